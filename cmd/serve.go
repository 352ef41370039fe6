package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/serve"
	"github.com/marcus/svp/internal/session"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the svp HTTP API server",
	Long: `Start an HTTP API server that exposes site visit plans over REST.

The server provides JSON endpoints for listing, initiating, updating and
canceling plans, the computed plan grid, saved searches, and the page
layout. Clients can subscribe to /api/svp/events to refresh on change.
It supports optional bearer token authentication and CORS for browser
based clients.

If --port is 0 (the default), a random available port is assigned.
The actual port is written to .svp/serve-port for discovery.`,
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (0 = auto-assign)")
	serveCmd.Flags().StringP("addr", "a", "localhost", "Address to bind to")
	serveCmd.Flags().String("token", "", "Bearer token for authentication (optional)")
	serveCmd.Flags().String("cors", "", "Allowed CORS origin (optional, e.g. http://localhost:3000)")
	serveCmd.Flags().Duration("ping", 30*time.Second, "Keepalive interval for event streams")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := getBaseDir()

	database, err := db.Open(dir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	sess, err := session.GetOrCreate(dir)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	port, _ := cmd.Flags().GetInt("port")
	addr, _ := cmd.Flags().GetString("addr")
	token, _ := cmd.Flags().GetString("token")
	cors, _ := cmd.Flags().GetString("cors")
	ping, _ := cmd.Flags().GetDuration("ping")
	if !cmd.Flags().Changed("token") {
		if cfg, err := config.Load(dir); err == nil {
			token = cfg.Token
		}
	}

	srv := serve.NewServer(database, dir, sess.ID, serve.ServeConfig{
		Port:         port,
		Addr:         addr,
		Token:        token,
		CORSOrigin:   cors,
		PingInterval: ping,
	})

	instanceID, err := serve.GenerateInstanceID()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	onListen := func(actualPort int) error {
		info := &serve.PortInfo{
			Port:       actualPort,
			PID:        os.Getpid(),
			StartedAt:  time.Now(),
			InstanceID: instanceID,
		}
		if err := serve.WritePortFile(dir, info); err != nil {
			return fmt.Errorf("write port file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "svp serve listening on http://%s:%d\n", addr, actualPort)
		fmt.Fprintf(os.Stderr, "  base dir:   %s\n", dir)
		fmt.Fprintf(os.Stderr, "  database:   %s\n", db.Path(dir))
		fmt.Fprintf(os.Stderr, "  session:    %s\n", sess.ID)
		fmt.Fprintf(os.Stderr, "  instance:   %s\n", instanceID)
		return nil
	}

	err = srv.ListenAndServe(ctx, onListen)
	if derr := serve.DeletePortFile(dir, instanceID); derr != nil {
		slog.Warn("remove port file", "err", derr)
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintln(os.Stderr, "svp serve stopped")
	return nil
}

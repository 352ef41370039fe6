package cmd

import (
	"github.com/marcus/svp/internal/client"
	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/pkg/monitor"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"ui", "tui"},
	Short:   "Open the interactive plan list",
	Long: `Open the interactive plan list: filter, sort and page through plans,
select rows, and open, view or cancel plans from the row action menu.

Press ? inside for the key bindings. With --remote the list reads from
a running svp serve instead of the local database.`,
	GroupID: "plans",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := getBaseDir()
		fs := cmd.Flags()

		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		opts := monitor.RunOptions{BaseDir: dir}
		opts.ViewOnly, _ = fs.GetBool("view-only")
		opts.RefreshInterval, _ = fs.GetDuration("refresh")
		opts.Username, _ = fs.GetString("username")

		server, _ := fs.GetString("server")
		remote, _ := fs.GetBool("remote")
		switch {
		case server != "":
			opts.Client = client.New(server, cfg.Token)
		case remote:
			if opts.Client, err = serverClient(cfg); err != nil {
				return err
			}
		default:
			database, err := openDB()
			if err != nil {
				return err
			}
			database.Close()
		}
		return monitor.Run(opts)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Bool("view-only", false, "Open plans read-only and hide plan changes")
	monitorCmd.Flags().Duration("refresh", 0, "Also refresh on this interval (0 = on change only)")
	monitorCmd.Flags().StringP("username", "u", "", "User recorded when opening plans (default from config)")
	monitorCmd.Flags().String("server", "", "Server URL, e.g. http://localhost:8080")
	monitorCmd.Flags().Bool("remote", false, "Use the configured or locally running server")
}

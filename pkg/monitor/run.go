package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/svp/internal/client"
	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/session"
)

// RunOptions configure Run
type RunOptions struct {
	BaseDir         string
	Username        string
	ViewOnly        bool
	RefreshInterval time.Duration
	// Client, when set, reads plans from a server instead of the local
	// database.
	Client *client.Client
}

// Run starts the plan list page and blocks until it exits
func Run(opts RunOptions) error {
	cfg, err := config.Load(opts.BaseDir)
	if err != nil {
		return err
	}
	if opts.Username == "" {
		opts.Username = cfg.Username
	}
	if !opts.ViewOnly {
		opts.ViewOnly = cfg.ViewOnly
	}

	var pageSizes []int
	if o, err := config.LoadGridOverrides(opts.BaseDir); err != nil {
		slog.Warn("ignoring grid overrides", "err", err)
	} else if o != nil {
		pageSizes = o.PageSizes
	}

	if _, err := session.GetOrCreate(opts.BaseDir); err != nil {
		slog.Warn("start session", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)

	var src DataSource
	if opts.Client != nil {
		src = opts.Client
		go subscribeServer(ctx, opts.Client, changes)
	} else {
		database, err := getSharedDB(opts.BaseDir)
		if err != nil {
			return err
		}
		defer releaseSharedDB(opts.BaseDir)
		src = NewDBSource(database)
		go func() {
			if err := watchProject(ctx, opts.BaseDir, changes); err != nil {
				slog.Warn("watch project", "err", err)
			}
		}()
	}

	m := NewModel(Options{
		Source:          src,
		BaseDir:         opts.BaseDir,
		Username:        opts.Username,
		ViewOnly:        opts.ViewOnly,
		PageSize:        cfg.PageSize(),
		PageSizes:       pageSizes,
		SearchID:        cfg.ActiveSearchID,
		SessionTimeout:  cfg.SessionTimeout(),
		SessionWarning:  cfg.SessionWarning(),
		RefreshInterval: opts.RefreshInterval,
		Changes:         changes,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.Expired {
		fmt.Println("Session expired due to inactivity.")
	}
	return nil
}

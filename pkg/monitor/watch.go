package monitor

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/marcus/svp/internal/client"
	"github.com/marcus/svp/internal/config"
)

// sseRetryDelay is the pause before reconnecting a dropped event stream
const sseRetryDelay = 3 * time.Second

// waitForChange blocks until ch signals, then reports a ChangeMsg. A
// closed channel ends the wait for good.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return ChangeMsg{}
	}
}

// notify coalesces bursts into at most one pending signal
func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// watchedFile reports whether a change to name affects the plan list
func watchedFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "svp.db") || base == "config.json" || base == filepath.Base(config.GridPath(""))
}

// watchProject signals on ch whenever the project's database or config
// files change. It returns when ctx is done.
func watchProject(ctx context.Context, baseDir string, ch chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Join(baseDir, config.Dir)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if watchedFile(event.Name) {
				notify(ch)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher", "err", err)
		}
	}
}

// subscribeServer signals on ch for every server change event,
// reconnecting after transient failures. It returns when ctx is done.
func subscribeServer(ctx context.Context, c *client.Client, ch chan<- struct{}) {
	lastID := ""
	for {
		err := c.Subscribe(ctx, lastID, func(ev client.Event) {
			lastID = ev.ID
			notify(ch)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, client.ErrUnreachable) {
			slog.Warn("event stream", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sseRetryDelay):
		}
	}
}

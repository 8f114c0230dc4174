package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/hardtrack/internal/daemon"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Listen     string `help:"Listen address override (host:port)"`
	Reminder   string `help:"Daily reminder time override (HH:MM)"`
	NoReminder bool   `help:"Disable the daily reminder"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := daemon.Options{
		Listen:       a.cfg.Daemon.Listen,
		ReminderTime: a.cfg.Daemon.ReminderTime,
	}
	if w.Listen != "" {
		opts.Listen = w.Listen
	}
	if w.Reminder != "" {
		opts.ReminderTime = w.Reminder
	}
	if w.NoReminder {
		opts.ReminderTime = ""
	}

	d := daemon.New(a.store, a.state, a.wlog, a.catalog, opts, a.logger)
	return d.Run(ctx)
}

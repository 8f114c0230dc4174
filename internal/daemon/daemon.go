// Package daemon runs the tracker in watch mode: it follows every slot of
// the shared medium, exposes the live state over HTTP and nudges about an
// unfinished checklist once a day.
package daemon

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/hardtrack/internal/catalog"
	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
	"git.home.luguber.info/inful/hardtrack/internal/logfields"
	"git.home.luguber.info/inful/hardtrack/internal/store"
	"git.home.luguber.info/inful/hardtrack/internal/workout"
)

// Options configures watch mode.
type Options struct {
	Listen string
	// ReminderTime is "HH:MM"; empty disables the daily reminder.
	ReminderTime string
}

// Daemon follows the tracker state and serves it.
type Daemon struct {
	logger  *slog.Logger
	store   *store.Store
	state   *challenge.State
	wlog    *workout.Log
	catalog *catalog.Catalog
	opts    Options

	metrics *Metrics
	started time.Time
}

// New assembles a daemon over an already bound store and domain state. The
// caller keeps ownership of all four collaborators.
func New(st *store.Store, state *challenge.State, wlog *workout.Log, cat *catalog.Catalog, opts Options, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		logger:  logger,
		store:   st,
		state:   state,
		wlog:    wlog,
		catalog: cat,
		opts:    opts,
		metrics: newMetrics(state, wlog),
	}
}

// watchedKeys are the slots surfaced in change logs and counters.
var watchedKeys = []string{
	challenge.KeyCurrentDay,
	challenge.KeyCompletedDays,
	challenge.KeyTodayTasks,
	workout.KeyWorkouts,
}

// Run serves until ctx is canceled, then shuts the server and the reminder
// scheduler down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	d.started = time.Now()

	cancelWatch := d.watchSlots()
	defer cancelWatch()

	scheduler, err := d.startReminder()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              d.opts.Listen,
		Handler:           d.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	d.logger.Info("watch mode started",
		logfields.Addr(d.opts.Listen),
		logfields.Backend(d.store.BackendName()))

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = terrors.WrapError(err, terrors.CategoryDaemon, "http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = terrors.WrapError(err, terrors.CategoryDaemon, "http shutdown failed")
	}
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil && runErr == nil {
			runErr = terrors.WrapError(err, terrors.CategoryDaemon, "scheduler shutdown failed")
		}
	}
	d.logger.Info("watch mode stopped")
	return runErr
}

// watchSlots logs every slot change and feeds the change counters.
func (d *Daemon) watchSlots() func() {
	cancels := make([]func(), 0, len(watchedKeys))
	for _, key := range watchedKeys {
		cancels = append(cancels, d.store.Subscribe(key, func(n store.Notification) {
			d.metrics.SlotChanged(n.Key, n.External)
			d.logger.Info("slot changed",
				logfields.SlotKey(n.Key),
				slog.Bool("external", n.External),
				slog.Bool("present", n.Found))
		}))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// startReminder schedules the daily checklist reminder, if configured.
func (d *Daemon) startReminder() (gocron.Scheduler, error) {
	if d.opts.ReminderTime == "" {
		return nil, nil
	}
	at, err := time.Parse("15:04", d.opts.ReminderTime)
	if err != nil {
		return nil, terrors.ValidationFailed("daemon.reminder_time", "must be HH:MM")
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, terrors.WrapError(err, terrors.CategoryDaemon, "cannot create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(at.Hour()), uint(at.Minute()), 0))),
		gocron.NewTask(d.remind),
		gocron.WithName("daily-reminder"),
	)
	if err != nil {
		return nil, terrors.WrapError(err, terrors.CategoryDaemon, "cannot schedule reminder")
	}
	scheduler.Start()
	d.logger.Info("daily reminder scheduled", slog.String("at", d.opts.ReminderTime))
	return scheduler, nil
}

// remind logs the outstanding checklist. A finished day stays quiet.
func (d *Daemon) remind() {
	tasks := d.state.Tasks()
	if tasks.AllDone() {
		return
	}
	open := make([]string, 0, len(challenge.AllTasks))
	for _, id := range challenge.AllTasks {
		if !tasks[id] {
			open = append(open, id.Label())
		}
	}
	day := d.state.CurrentDay()
	attrs := []any{
		logfields.Day(day),
		logfields.Count(len(open)),
		slog.String("open", strings.Join(open, ", ")),
	}
	if d.catalog != nil {
		if quote := d.catalog.QuoteForDay(day); quote != "" {
			attrs = append(attrs, slog.String("quote", quote))
		}
	}
	d.logger.Info("checklist reminder", attrs...)
}

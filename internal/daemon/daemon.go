package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"tempo/internal/catalog"
	"tempo/internal/collect"
	"tempo/internal/config"
	"tempo/internal/logging"
	"tempo/internal/notifications"
	"tempo/internal/preflight"
	"tempo/internal/render"
	"tempo/internal/store"
)

// ErrAlreadyRunning reports that another daemon instance holds the lock.
var ErrAlreadyRunning = errors.New("another tempo daemon instance is already running")

// Daemon owns the scheduled collection loop and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	mu      sync.RWMutex
	catalog *catalog.Catalog

	store  *store.Store
	runner *collect.Runner
	cron   *cron.Cron

	running atomic.Bool
	cancel  context.CancelFunc
	watch   chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		notifier: notifications.NewService(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, runs the preflight checks, loads the
// catalog, and schedules collection. It returns once the loop is running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := d.startLocked(ctx); err != nil {
		if d.store != nil {
			_ = d.store.Close()
			d.store = nil
		}
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("tempo daemon started",
		slog.String("lock", d.lockPath),
		slog.String("schedule", d.cfg.Collect.Schedule))
	return nil
}

func (d *Daemon) startLocked(ctx context.Context) error {
	if err := preflight.Err(preflight.RunAll(ctx, d.cfg)); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}

	cat, err := catalog.Load(d.cfg.Paths.Catalog)
	if err != nil {
		return err
	}
	d.setCatalog(cat)

	if d.cfg.Store.Enabled {
		st, err := store.Open(d.cfg)
		if err != nil {
			return err
		}
		d.store = st
	}

	runner, err := collect.NewRunner(d.logger, d.cfg, d.store, d.notifier)
	if err != nil {
		return err
	}
	d.runner = runner

	location, err := time.LoadLocation(d.cfg.Collect.Timezone)
	if err != nil {
		return fmt.Errorf("load collect timezone %q: %w", d.cfg.Collect.Timezone, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel

	scheduler := cron.New(cron.WithLocation(location))
	if _, err := scheduler.AddFunc(d.cfg.Collect.Schedule, func() { d.collectOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("parse schedule %q: %w", d.cfg.Collect.Schedule, err)
	}
	d.cron = scheduler
	d.cron.Start()

	if err := writePidFile(d.cfg.PidFilePath()); err != nil {
		d.logger.Warn("failed to write pid file", logging.Error(err))
	}

	d.watch = make(chan struct{})
	go d.watchCatalog(runCtx)
	return nil
}

// Stop halts scheduling, stops the catalog watch, and releases the lock.
// In-flight collection runs are cancelled and drained before Stop returns.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cron != nil {
		// The returned context completes when running jobs have drained.
		<-d.cron.Stop().Done()
		d.cron = nil
	}
	if d.watch != nil {
		<-d.watch
		d.watch = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	if err := os.Remove(d.cfg.PidFilePath()); err != nil && !os.IsNotExist(err) {
		d.logger.Warn("failed to remove pid file", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("tempo daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		err := d.store.Close()
		d.store = nil
		return err
	}
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled, then shuts down.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.logger.Info("tempo daemon shutting down")
	d.Stop()
	return nil
}

// CollectNow runs one collection pass outside the schedule, using the
// daemon's current catalog.
func (d *Daemon) CollectNow(ctx context.Context, trigger string) (*collect.RunStats, error) {
	if !d.running.Load() || d.runner == nil {
		return nil, errors.New("daemon is not running")
	}
	return d.runner.Run(ctx, d.currentCatalog(), "", trigger)
}

func (d *Daemon) collectOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stats, err := d.runner.Run(ctx, d.currentCatalog(), "", collect.TriggerScheduled)
	if err != nil {
		d.logger.Error("scheduled collection failed", logging.Error(err))
	}
	if stats == nil || ctx.Err() != nil {
		return
	}

	if d.cfg.Collect.RenderAfterCollect {
		renderer := render.New(d.logger, d.cfg.Pipeline.Counters)
		rendered, err := renderer.Render(ctx, render.Options{
			Input:  d.cfg.Paths.DataDir,
			OutDir: d.cfg.Paths.OutputDir,
			TopN:   10,
			Charts: true,
			HTML:   true,
		})
		if err != nil {
			d.logger.Error("render after collect failed", logging.Error(err))
			return
		}
		if rendered.Anomalies > 0 {
			sources := make([]string, 0, len(rendered.Totals))
			for _, totals := range rendered.Totals {
				if totals.Anomalies > 0 {
					sources = append(sources, totals.Source)
				}
			}
			if err := d.notifier.NotifyAnomalies(ctx, rendered.Anomalies, sources); err != nil {
				d.logger.Warn("anomaly notification failed", logging.Error(err))
			}
		}
	}
}

func (d *Daemon) watchCatalog(ctx context.Context) {
	defer close(d.watch)
	err := catalog.Watch(ctx, d.logger, d.cfg.Paths.Catalog, d.setCatalog)
	if err != nil && ctx.Err() == nil {
		d.logger.Warn("catalog watch ended", logging.Error(err))
	}
}

func (d *Daemon) setCatalog(cat *catalog.Catalog) {
	d.mu.Lock()
	d.catalog = cat
	d.mu.Unlock()
}

func (d *Daemon) currentCatalog() *catalog.Catalog {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.catalog
}

func writePidFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

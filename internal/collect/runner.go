package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tempo/internal/catalog"
	"tempo/internal/config"
	"tempo/internal/logging"
	"tempo/internal/notifications"
	"tempo/internal/series"
	"tempo/internal/store"
)

// Triggers recorded with each collection run.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// SourceStats describes the outcome of one source within a run.
type SourceStats struct {
	Source    string
	Targets   int
	Succeeded int
	Failed    int
	Skipped   int
	File      string
}

// RunStats describes one collection run.
type RunStats struct {
	RunID    string
	Trigger  string
	Started  time.Time
	Finished time.Time
	Sources  []SourceStats
	Records  int
}

// Targets returns the total number of catalog items attempted or skipped.
func (s *RunStats) Targets() int {
	total := 0
	for _, src := range s.Sources {
		total += src.Targets
	}
	return total
}

// Succeeded returns the number of items scraped successfully.
func (s *RunStats) Succeeded() int {
	total := 0
	for _, src := range s.Sources {
		total += src.Succeeded
	}
	return total
}

// Failed returns the number of items whose scrape failed.
func (s *RunStats) Failed() int {
	total := 0
	for _, src := range s.Sources {
		total += src.Failed
	}
	return total
}

// Skipped returns the number of items never attempted, such as the
// remainder of a run aborted by context cancellation.
func (s *RunStats) Skipped() int {
	total := 0
	for _, src := range s.Sources {
		total += src.Skipped
	}
	return total
}

// Duration returns the wall time of the run.
func (s *RunStats) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Runner executes collection runs over the target catalog.
type Runner struct {
	cfg      *config.Config
	fetcher  *Fetcher
	writer   *SnapshotWriter
	store    *store.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// NewRunner builds a runner from the configuration. The store may be nil
// when run history is disabled; a nil notifier falls back to the
// configuration-driven service.
func NewRunner(logger *slog.Logger, cfg *config.Config, st *store.Store, notifier notifications.Service) (*Runner, error) {
	writer, err := NewSnapshotWriter(logger, cfg.Paths.DataDir, cfg.Collect.Timezone)
	if err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Runner{
		cfg:      cfg,
		fetcher:  NewFetcher(logger, cfg.Collect),
		writer:   writer,
		store:    st,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "collect"),
	}, nil
}

// Run collects every enabled catalog source, or only the named one when
// source is non-empty. Individual scrape failures are recorded as error
// records and counted, never returned; the returned error covers run-level
// problems such as an unknown source filter or a write failure.
func (r *Runner) Run(ctx context.Context, cat *catalog.Catalog, source, trigger string) (*RunStats, error) {
	if trigger == "" {
		trigger = TriggerManual
	}
	names, err := selectSources(cat, source)
	if err != nil {
		return nil, err
	}

	stats := &RunStats{
		RunID:   uuid.NewString(),
		Trigger: trigger,
		Started: time.Now().UTC(),
	}
	r.logger.Info("collection run started",
		slog.String(logging.FieldRunID, stats.RunID),
		slog.String("trigger", trigger),
		slog.Int("sources", len(names)))

	if r.store != nil {
		if err := r.store.StartRun(ctx, stats.RunID, trigger, stats.Started); err != nil {
			r.logger.Warn("failed to record run start", logging.Error(err))
		}
	}

	var errs []error
	for _, name := range names {
		srcStats, records, err := r.collectSource(ctx, stats.Started, name, cat.Sources[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", name, err))
		}
		if len(records) > 0 {
			path, err := r.writer.Append(name, stats.Started, records)
			if err != nil {
				errs = append(errs, fmt.Errorf("source %s: %w", name, err))
			} else {
				srcStats.File = path
				stats.Records += len(records)
			}
		}
		stats.Sources = append(stats.Sources, srcStats)
		r.logger.Info("source collected",
			slog.String(logging.FieldSource, name),
			slog.Int("targets", srcStats.Targets),
			slog.Int("succeeded", srcStats.Succeeded),
			slog.Int("failed", srcStats.Failed),
			slog.Int("skipped", srcStats.Skipped))
	}
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	stats.Finished = time.Now().UTC()
	runErr := errors.Join(errs...)

	if r.store != nil {
		// Record the outcome even when the run was cancelled.
		finishCtx := context.WithoutCancel(ctx)
		counts := store.RunCounts{
			Sources:   len(stats.Sources),
			Targets:   stats.Targets(),
			Succeeded: stats.Succeeded(),
			Failed:    stats.Failed(),
			Skipped:   stats.Skipped(),
			Records:   stats.Records,
		}
		if err := r.store.FinishRun(finishCtx, stats.RunID, stats.Finished, counts, runErr); err != nil {
			r.logger.Warn("failed to record run finish", logging.Error(err))
		}
		if limit := r.cfg.Store.HistoryLimit; limit > 0 {
			removed, err := r.store.PruneRuns(finishCtx, limit)
			if err != nil {
				r.logger.Warn("failed to prune run history", logging.Error(err))
			} else if removed > 0 {
				r.logger.Debug("pruned run history",
					slog.Int64("removed", removed),
					slog.Int("keep", limit))
			}
		}
	}

	r.notify(ctx, stats, runErr)
	r.logger.Info("collection run finished",
		slog.String(logging.FieldRunID, stats.RunID),
		slog.Int("records", stats.Records),
		slog.Int("succeeded", stats.Succeeded()),
		slog.Int("failed", stats.Failed()),
		slog.Duration("duration", stats.Duration()))
	return stats, runErr
}

func (r *Runner) notify(ctx context.Context, stats *RunStats, runErr error) {
	var err error
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		// A shutdown mid-run is not worth a push notification.
		return
	case runErr != nil:
		err = r.notifier.NotifyCollectFailed(context.WithoutCancel(ctx), runErr)
	default:
		err = r.notifier.NotifyCollectCompleted(ctx, stats.Targets(), stats.Succeeded(), stats.Failed(), stats.Duration())
	}
	if err != nil {
		r.logger.Warn("notification failed", logging.Error(err))
	}
}

func (r *Runner) collectSource(ctx context.Context, now time.Time, name string, src catalog.Source) (SourceStats, []map[string]any, error) {
	srcStats := SourceStats{Source: name, Targets: len(src.Items)}
	scraper, err := NewScraper(r.logger, r.fetcher, name, src, r.counters())
	if err != nil {
		srcStats.Skipped = len(src.Items)
		return srcStats, nil, err
	}

	records := make([]map[string]any, 0, len(src.Items))
	for _, item := range src.Items {
		if ctx.Err() != nil {
			srcStats.Skipped = srcStats.Targets - srcStats.Succeeded - srcStats.Failed
			break
		}
		snap, err := scraper.Scrape(ctx, item.ID)
		if err != nil {
			srcStats.Failed++
			r.logger.Warn("scrape failed",
				slog.String(logging.FieldSource, name),
				slog.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		} else {
			srcStats.Succeeded++
		}
		records = append(records, r.writer.Record(name, item, snap, err, now))
	}
	return srcStats, records, nil
}

func (r *Runner) counters() []string {
	if len(r.cfg.Pipeline.Counters) > 0 {
		return r.cfg.Pipeline.Counters
	}
	return series.DefaultCounters
}

func selectSources(cat *catalog.Catalog, source string) ([]string, error) {
	names := cat.EnabledSources()
	if source == "" {
		return names, nil
	}
	for _, name := range names {
		if name == source {
			return []string{name}, nil
		}
	}
	if _, ok := cat.Sources[source]; ok {
		return nil, fmt.Errorf("source %q is disabled or has no items", source)
	}
	return nil, fmt.Errorf("source %q not found in catalog", source)
}

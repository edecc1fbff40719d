package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"nabscan/internal/config"
	"nabscan/internal/logging"
	"nabscan/internal/maintenance"
	"nabscan/internal/scan"
	"nabscan/internal/store"
)

var (
	// ErrNoActiveGroups stops the loop when no group is marked active.
	ErrNoActiveGroups = errors.New("no active groups")
	// ErrGroupNotFound stops the loop when the requested group is unknown or inactive.
	ErrGroupNotFound = errors.New("group not found or inactive")
)

// Store is the subset of the index store read by the loop.
type Store interface {
	ActiveGroups(ctx context.Context) ([]store.Group, error)
	GroupByName(ctx context.Context, name string) (*store.Group, error)
	MissGroups(ctx context.Context) ([]string, error)
}

// Request selects what a run scans.
type Request struct {
	Mode scan.Mode
	// Group restricts the run to a single group when set.
	Group string
	// Since is the backfill target. Zero means now minus backfill_days.
	Since time.Time
}

// SleepFunc waits between update cycles. It returns early with the context
// error when ctx is cancelled.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Loop is the scan orchestrator.
type Loop struct {
	cfg        *config.Config
	store      Store
	scheduler  *scan.Scheduler
	scanner    scan.GroupScanner
	processor  scan.Processor
	maintainer *maintenance.Maintainer
	logger     *slog.Logger
	now        func() time.Time
	sleep      SleepFunc
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleep overrides the inter-cycle wait.
func WithSleep(sleep SleepFunc) Option {
	return func(l *Loop) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New wires a Loop. The maintainer must be dedicated to this loop; it carries
// the compaction rotation counter.
func New(cfg *config.Config, st Store, scanner scan.GroupScanner, processor scan.Processor, maintainer *maintenance.Maintainer, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		cfg:        cfg,
		store:      st,
		scheduler:  scan.NewScheduler(cfg.Scan.UpdateThreads, logger),
		scanner:    scanner,
		processor:  processor,
		maintainer: maintainer,
		logger:     logging.NewComponentLogger(logger, "orchestrator"),
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes cycles until the request is complete. Update mode repeats
// until ctx is cancelled, which is a clean stop. Backfill runs one cycle.
// ErrNoActiveGroups and ErrGroupNotFound end the run in either mode.
func (l *Loop) Run(ctx context.Context, req Request) error {
	req, err := l.resolve(req)
	if err != nil {
		return err
	}

	l.logger.Info("scan starting",
		logging.String(logging.FieldMode, string(req.Mode)),
		logging.String(logging.FieldGroup, req.Group),
		logging.Int("update_threads", l.scheduler.Limit()),
		logging.Bool("retry_missed", l.cfg.Scan.RetryMissed),
	)

	for cycle := 1; ; cycle++ {
		if ctx.Err() != nil {
			l.logger.Info("scan stopped", logging.Int(logging.FieldCycle, cycle-1))
			return nil
		}

		summary, err := l.RunCycle(ctx, req, cycle)
		switch {
		case errors.Is(err, ErrNoActiveGroups), errors.Is(err, ErrGroupNotFound):
			return err
		case err != nil && req.Mode == scan.ModeBackfill:
			return err
		case err != nil:
			logging.ErrorWithContext(l.logger, "scan cycle aborted", "cycle_failed",
				logging.String(logging.FieldCycleID, summary.ID),
				logging.Int(logging.FieldCycle, cycle),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check database health with 'nabscan db check'"),
			)
		}

		if req.Mode == scan.ModeBackfill {
			return nil
		}

		wait := l.cfg.UpdateWait()
		l.logger.Info("scan sleeping", logging.Duration("wait", wait))
		if err := l.sleep(ctx, wait); err != nil {
			l.logger.Info("scan stopped", logging.Int(logging.FieldCycle, cycle))
			return nil
		}
	}
}

func (l *Loop) resolve(req Request) (Request, error) {
	switch req.Mode {
	case "":
		req.Mode = scan.ModeUpdate
	case scan.ModeUpdate, scan.ModeBackfill:
	default:
		return req, fmt.Errorf("unknown scan mode %q", req.Mode)
	}
	req.Group = strings.TrimSpace(req.Group)
	if req.Mode == scan.ModeBackfill && req.Since.IsZero() {
		req.Since = l.now().Add(-l.cfg.BackfillWindow()).UTC()
	}
	return req, nil
}

// RunCycle executes one pass of the state machine. Scan and processing
// failures are logged and do not fail the cycle; selection and maintenance
// failures do.
func (l *Loop) RunCycle(ctx context.Context, req Request, cycle int) (CycleSummary, error) {
	work := context.WithoutCancel(ctx)
	summary := CycleSummary{ID: uuid.NewString(), Cycle: cycle, Mode: req.Mode}
	started := l.now()
	logger := l.logger.With(
		logging.String(logging.FieldCycleID, summary.ID),
		logging.Int(logging.FieldCycle, cycle),
		logging.String(logging.FieldMode, string(req.Mode)),
	)

	due := l.maintainer.BeginCycle()
	logger.Debug("cycle started", logging.String("compaction_due", due.String()))

	groups, err := l.selectGroups(work, req.Group)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			logging.ErrorWithContext(logger, "requested group is unknown or inactive", "group_not_found",
				logging.String(logging.FieldGroup, req.Group),
				logging.String(logging.FieldErrorHint, "add or activate it with 'nabscan groups'"),
			)
		} else if errors.Is(err, ErrNoActiveGroups) {
			logger.Info("no groups active, stopping scan")
		}
		return summary, err
	}
	summary.Groups = len(groups)

	backlogged, segments, err := l.maintainer.Backlogged(work)
	if err != nil {
		return summary, err
	}
	summary.Segments = segments
	if backlogged {
		logger.Info("segment backlog detected, processing first",
			logging.Int64("segments", segments),
			logging.Int64("threshold", l.cfg.Scan.EarlyProcessThreshold),
		)
		summary.EarlyProcess = true
		l.process(work, logger)
	}

	var jobs []scan.Job
	if req.Mode == scan.ModeBackfill {
		jobs = scan.BackfillJobs(groups, req.Since, l.cfg.Scan.GroupScanLimit)
	} else {
		jobs = scan.UpdateJobs(groups, l.cfg.Scan.GroupScanLimit)
	}
	results, err := l.scheduler.ScanWave(work, l.scanner, jobs)
	if err != nil {
		return summary, err
	}
	summary.Jobs = len(results)
	summary.Failures = scan.Failures(results)

	if req.Mode == scan.ModeUpdate && l.cfg.Scan.RetryMissed {
		if err := l.retryMisses(work, logger, &summary); err != nil {
			return summary, err
		}
	}

	l.process(work, logger)

	reaped, err := l.maintainer.Reap(work)
	if err != nil {
		return summary, err
	}
	summary.Reaped = reaped

	kind, err := l.maintainer.Compact(work)
	summary.Compaction = kind.String()
	if err != nil {
		return summary, err
	}

	summary.Duration = l.now().Sub(started)
	logger.Info("scan cycle complete", summary.Attrs()...)
	return summary, nil
}

func (l *Loop) selectGroups(ctx context.Context, name string) ([]string, error) {
	if name != "" {
		g, err := l.store.GroupByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup group: %w", err)
		}
		if g == nil || !g.Active {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
		}
		return []string{g.Name}, nil
	}

	active, err := l.store.ActiveGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active groups: %w", err)
	}
	if len(active) == 0 {
		return nil, ErrNoActiveGroups
	}
	names := make([]string, 0, len(active))
	for _, g := range active {
		names = append(names, g.Name)
	}
	return names, nil
}

func (l *Loop) retryMisses(ctx context.Context, logger *slog.Logger, summary *CycleSummary) error {
	missGroups, err := l.store.MissGroups(ctx)
	if err != nil {
		return fmt.Errorf("list miss groups: %w", err)
	}
	if len(missGroups) == 0 {
		logger.Debug("no missed segments to retry")
		return nil
	}
	results, err := l.scheduler.RetryWave(ctx, l.scanner, missGroups)
	if err != nil {
		return err
	}
	summary.Retries = len(results)
	summary.RetryFailures = scan.Failures(results)
	return nil
}

// process runs the binary then release pipeline. Failures are logged; the
// pipeline is idempotent and catches up next cycle.
func (l *Loop) process(ctx context.Context, logger *slog.Logger) {
	if err := l.processor.ProcessBinaries(ctx); err != nil {
		logging.ErrorWithContext(logger, "binary processing failed", "process_binaries_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "segments remain unassembled until next cycle"),
		)
	}
	if err := l.processor.ProcessReleases(ctx); err != nil {
		logging.ErrorWithContext(logger, "release processing failed", "process_releases_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "binaries remain unreleased until next cycle"),
		)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

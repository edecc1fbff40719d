// Package maintenance keeps the index store bounded: it reaps abandoned
// binaries, rotates light and full compaction on a cycle counter and reports
// segment backlog pressure.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nabscan/internal/config"
	"nabscan/internal/logging"
	"nabscan/internal/store"
)

// Store is the subset of the index store used by maintenance.
type Store interface {
	CountSegments(ctx context.Context) (int64, error)
	DeleteBinariesPostedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Compact(ctx context.Context, kind store.CompactionKind) error
}

// Policy holds the maintenance knobs.
type Policy struct {
	// DeadBinaryAge is the binary retention age. Zero disables reaping.
	DeadBinaryAge time.Duration
	// FullVacuumIterations is the number of cycles between full compactions.
	// Values below 1 make every cycle a rotation cycle.
	FullVacuumIterations int
	// FullVacuum enables the full pass at rotation.
	FullVacuum bool
	// EarlyProcessThreshold is the segment count above which processing runs
	// before the scan wave.
	EarlyProcessThreshold int64
}

// PolicyFromConfig extracts the maintenance policy from the scan section.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		DeadBinaryAge:         cfg.DeadBinaryAge(),
		FullVacuumIterations:  cfg.Scan.FullVacuumIterations,
		FullVacuum:            cfg.Scan.FullVacuum,
		EarlyProcessThreshold: cfg.Scan.EarlyProcessThreshold,
	}
}

// Maintainer runs maintenance steps. It is not safe for concurrent use; the
// orchestrator calls it from its own goroutine once per cycle.
type Maintainer struct {
	store     Store
	policy    Policy
	logger    *slog.Logger
	now       func() time.Time
	iteration int
	due       store.CompactionKind
	begun     bool
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithClock overrides the time source used for the reap cutoff.
func WithClock(now func() time.Time) Option {
	return func(m *Maintainer) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a Maintainer.
func New(st Store, policy Policy, logger *slog.Logger, opts ...Option) *Maintainer {
	m := &Maintainer{
		store:  st,
		policy: policy,
		logger: logging.NewComponentLogger(logger, "maintenance"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Iteration returns the current value of the compaction rotation counter.
func (m *Maintainer) Iteration() int {
	return m.iteration
}

// Backlogged reports whether the segment backlog exceeds the early-process
// threshold, along with the observed count.
func (m *Maintainer) Backlogged(ctx context.Context) (bool, int64, error) {
	count, err := m.store.CountSegments(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("backlog check: %w", err)
	}
	return count > m.policy.EarlyProcessThreshold, count, nil
}

// Reap deletes binaries posted strictly before now minus the retention age. A
// zero age disables reaping.
func (m *Maintainer) Reap(ctx context.Context) (int64, error) {
	if m.policy.DeadBinaryAge <= 0 {
		m.logger.Debug("dead binary reaping disabled")
		return 0, nil
	}
	cutoff := m.now().Add(-m.policy.DeadBinaryAge)
	deleted, err := m.store.DeleteBinariesPostedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reap dead binaries: %w", err)
	}
	m.logger.Info("dead binaries reaped",
		logging.Int64("deleted", deleted),
		logging.Time("cutoff", cutoff),
	)
	return deleted, nil
}

// BeginCycle counts a cycle and fixes the compaction kind the cycle's
// Compact call runs. On the cycle that brings the counter to
// FullVacuumIterations the counter resets, and the full pass is due if
// FullVacuum is enabled; every other cycle gets the light pass. Cycles that
// abort before compaction still count.
func (m *Maintainer) BeginCycle() store.CompactionKind {
	m.due = store.CompactionLight
	m.iteration++
	if m.iteration >= max(m.policy.FullVacuumIterations, 1) {
		if m.policy.FullVacuum {
			m.due = store.CompactionFull
		}
		m.iteration = 0
	}
	m.begun = true
	return m.due
}

// Compact runs the compaction fixed by BeginCycle. Without a preceding
// BeginCycle it counts the cycle itself.
func (m *Maintainer) Compact(ctx context.Context) (store.CompactionKind, error) {
	if !m.begun {
		m.BeginCycle()
	}
	m.begun = false
	kind := m.due

	m.logger.Info("compacting index",
		logging.String("kind", kind.String()),
		logging.Int("iteration", m.iteration),
	)
	if err := m.store.Compact(ctx, kind); err != nil {
		return kind, fmt.Errorf("%s compaction: %w", kind, err)
	}
	return kind, nil
}

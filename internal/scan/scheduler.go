package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"nabscan/internal/logging"
	"nabscan/internal/services"
)

// RunFunc executes one job.
type RunFunc func(ctx context.Context, job Job) error

// Scheduler runs waves of jobs with bounded parallelism.
type Scheduler struct {
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

// NewScheduler creates a scheduler running at most limit jobs at once. A
// limit <= 0 gives every job its own slot.
func NewScheduler(limit int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		limit:  limit,
		logger: logging.NewComponentLogger(logger, "scheduler"),
		now:    time.Now,
	}
}

// Limit returns the configured concurrency bound.
func (s *Scheduler) Limit() int {
	return s.limit
}

// Run dispatches every job and waits for all of them. Results are returned in
// completion order. The only error is ErrIdle for an empty job set; job
// failures are reported through the results.
func (s *Scheduler) Run(ctx context.Context, jobs []Job, run RunFunc) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, ErrIdle
	}

	limit := s.limit
	if limit <= 0 || limit > len(jobs) {
		limit = len(jobs)
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(jobs))
		g       errgroup.Group
	)
	g.SetLimit(limit)

	for _, job := range jobs {
		g.Go(func() error {
			result := s.execute(ctx, job, run)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			// Failures travel in results; Wait is a pure join.
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (s *Scheduler) execute(ctx context.Context, job Job, run RunFunc) (result Result) {
	result = Result{Job: job, Started: s.now()}
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%s job panicked: %v", job.Kind, r)
			s.logger.Error("scan job panicked",
				logging.String(logging.FieldGroup, job.Group),
				logging.String(logging.FieldMode, string(job.Mode)),
				logging.String("stack", string(debug.Stack())),
			)
		}
		result.Duration = s.now().Sub(result.Started)
		s.report(result)
	}()
	result.Err = run(ctx, job)
	return result
}

func (s *Scheduler) report(result Result) {
	job := result.Job
	attrs := []logging.Attr{
		logging.String(logging.FieldGroup, job.Group),
		logging.String(logging.FieldMode, string(job.Mode)),
		logging.String("kind", string(job.Kind)),
		logging.String("direction", string(job.Direction)),
		logging.Duration("duration", result.Duration),
	}
	if result.Err != nil {
		hint := "group is skipped this cycle and retried next cycle"
		if services.IsConfiguration(result.Err) {
			hint = "set collaborators.scan_command in the config file"
		}
		logging.ErrorWithContext(s.logger, "scan job failed", "scan_job_failed",
			append(attrs,
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, hint),
			)...,
		)
		return
	}
	s.logger.Info("scan job complete", logging.Args(attrs...)...)
}

// ScanWave runs one ScanGroup call per job.
func (s *Scheduler) ScanWave(ctx context.Context, scanner GroupScanner, jobs []Job) ([]Result, error) {
	return s.Run(ctx, jobs, scanner.ScanGroup)
}

// RetryWave runs one ScanMissingSegments call per distinct group. Retries
// have no timeout; a slow group is waited for.
func (s *Scheduler) RetryWave(ctx context.Context, scanner GroupScanner, groups []string) ([]Result, error) {
	return s.Run(ctx, RetryJobs(groups), func(ctx context.Context, job Job) error {
		return scanner.ScanMissingSegments(ctx, job.Group)
	})
}

package scan

import (
	"context"
	"errors"
	"time"
)

// Mode selects between continuous forward scanning and one-shot backfill.
type Mode string

const (
	ModeUpdate   Mode = "update"
	ModeBackfill Mode = "backfill"
)

// Direction is the direction a scan walks a group's article range.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// Kind distinguishes primary scan jobs from miss retries.
type Kind string

const (
	KindScan  Kind = "scan"
	KindRetry Kind = "retry"
)

// ErrIdle is returned when a wave has no jobs to dispatch.
var ErrIdle = errors.New("scan: no jobs to dispatch")

// Job describes one scan of one group.
type Job struct {
	Group     string
	Kind      Kind
	Mode      Mode
	Direction Direction
	// Since bounds a backward scan. Zero means the collaborator's default.
	Since time.Time
	// Limit is the maximum number of articles fetched by this invocation.
	Limit int
}

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Err      error
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the job completed without error.
func (r Result) OK() bool { return r.Err == nil }

// GroupScanner fetches articles for a group and records segments and misses.
type GroupScanner interface {
	ScanGroup(ctx context.Context, job Job) error
	ScanMissingSegments(ctx context.Context, group string) error
}

// Processor turns accumulated segments into binaries and binaries into
// releases. Both calls are idempotent.
type Processor interface {
	ProcessBinaries(ctx context.Context) error
	ProcessReleases(ctx context.Context) error
}

// UpdateJobs builds forward jobs for an update cycle.
func UpdateJobs(groups []string, limit int) []Job {
	jobs := make([]Job, 0, len(groups))
	for _, name := range groups {
		jobs = append(jobs, Job{
			Group:     name,
			Kind:      KindScan,
			Mode:      ModeUpdate,
			Direction: DirectionForward,
			Limit:     limit,
		})
	}
	return jobs
}

// BackfillJobs builds backward jobs walking toward since.
func BackfillJobs(groups []string, since time.Time, limit int) []Job {
	jobs := make([]Job, 0, len(groups))
	for _, name := range groups {
		jobs = append(jobs, Job{
			Group:     name,
			Kind:      KindScan,
			Mode:      ModeBackfill,
			Direction: DirectionBackward,
			Since:     since,
			Limit:     limit,
		})
	}
	return jobs
}

// RetryJobs builds one retry job per distinct group.
func RetryJobs(groups []string) []Job {
	seen := make(map[string]struct{}, len(groups))
	jobs := make([]Job, 0, len(groups))
	for _, name := range groups {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		jobs = append(jobs, Job{
			Group:     name,
			Kind:      KindRetry,
			Mode:      ModeUpdate,
			Direction: DirectionForward,
		})
	}
	return jobs
}

// Failures counts the failed results.
func Failures(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

package orchestrator

import (
	"time"

	"nabscan/internal/logging"
	"nabscan/internal/scan"
)

// CycleSummary describes what one cycle did.
type CycleSummary struct {
	ID            string
	Cycle         int
	Mode          scan.Mode
	Groups        int
	Segments      int64
	EarlyProcess  bool
	Jobs          int
	Failures      int
	Retries       int
	RetryFailures int
	Reaped        int64
	Compaction    string
	Duration      time.Duration
}

// Attrs renders the summary as log attributes.
func (s CycleSummary) Attrs() []any {
	return logging.Args(
		logging.Int("groups", s.Groups),
		logging.Int64("segments", s.Segments),
		logging.Bool("early_process", s.EarlyProcess),
		logging.Int("jobs", s.Jobs),
		logging.Int("failures", s.Failures),
		logging.Int("retries", s.Retries),
		logging.Int("retry_failures", s.RetryFailures),
		logging.Int64("reaped", s.Reaped),
		logging.String("compaction", s.Compaction),
		logging.Duration("duration", s.Duration),
	)
}

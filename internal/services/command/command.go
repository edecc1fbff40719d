// Package command runs the scan and pipeline collaborators as external
// programs.
//
// Each configured command line is split on whitespace; the first field is the
// binary. The adapter appends a verb (scan, missing, binaries, releases),
// job flags and any configured extra arguments:
//
//	<scan_command> scan --group NAME --direction forward|backward --limit N [--since RFC3339]
//	<scan_missing_command> missing --group NAME
//	<binaries_command> binaries
//	<releases_command> releases
//
// Output from the programs is forwarded to the debug log.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"nabscan/internal/config"
	"nabscan/internal/logging"
	"nabscan/internal/scan"
	"nabscan/internal/services"
)

// ErrNotConfigured marks a collaborator with no command configured.
var ErrNotConfigured = fmt.Errorf("%w: collaborator command not configured", services.ErrConfiguration)

// Option configures the adapter.
type Option func(*Collaborators)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Collaborators) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Collaborators implements scan.GroupScanner and scan.Processor by invoking
// the configured programs.
type Collaborators struct {
	cfg    config.Collaborators
	exec   Executor
	logger *slog.Logger
}

var (
	_ scan.GroupScanner = (*Collaborators)(nil)
	_ scan.Processor    = (*Collaborators)(nil)
)

// New constructs the adapter.
func New(cfg config.Collaborators, logger *slog.Logger, opts ...Option) *Collaborators {
	c := &Collaborators{
		cfg:    cfg,
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(logger, "collaborator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScanGroup scans one group. An unconfigured scan command is an error so the
// scheduler reports the group as failed.
func (c *Collaborators) ScanGroup(ctx context.Context, job scan.Job) error {
	args := []string{
		"scan",
		"--group", job.Group,
		"--direction", string(job.Direction),
		"--limit", strconv.Itoa(job.Limit),
	}
	if !job.Since.IsZero() {
		args = append(args, "--since", job.Since.UTC().Format(time.RFC3339))
	}
	return c.run(ctx, "scan", job.Group, c.cfg.ScanCommand, args, true)
}

// ScanMissingSegments retries the outstanding misses of one group.
func (c *Collaborators) ScanMissingSegments(ctx context.Context, group string) error {
	return c.run(ctx, "missing", group, c.cfg.ScanMissingCommand, []string{"missing", "--group", group}, true)
}

// ProcessBinaries assembles segments into binaries. Unconfigured is a no-op.
func (c *Collaborators) ProcessBinaries(ctx context.Context) error {
	return c.run(ctx, "binaries", "", c.cfg.BinariesCommand, []string{"binaries"}, false)
}

// ProcessReleases turns binaries into releases. Unconfigured is a no-op.
func (c *Collaborators) ProcessReleases(ctx context.Context) error {
	return c.run(ctx, "releases", "", c.cfg.ReleasesCommand, []string{"releases"}, false)
}

func (c *Collaborators) run(ctx context.Context, verb, group, commandLine string, args []string, required bool) error {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		if required {
			return services.Wrap(ErrNotConfigured, verb, group, verb+" command is empty", nil)
		}
		c.logger.Debug("collaborator not configured, skipping", logging.String("verb", verb))
		return nil
	}

	binary := fields[0]
	full := make([]string, 0, len(fields)-1+len(args)+len(c.cfg.ExtraArgs))
	full = append(full, fields[1:]...)
	full = append(full, args...)
	full = append(full, c.cfg.ExtraArgs...)

	logger := c.logger.With(logging.String("verb", verb))
	if group != "" {
		logger = logger.With(logging.String(logging.FieldGroup, group))
	}
	logger.Debug("running collaborator", logging.String("binary", binary), logging.Any("args", full))

	started := time.Now()
	err := c.exec.Run(ctx, binary, full, func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			logger.Debug(line)
		}
	})
	if err != nil {
		marker := services.ErrExternalTool
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, verb, group, binary+" failed", err)
	}
	logger.Debug("collaborator finished", logging.Duration("duration", time.Since(started)))
	return nil
}

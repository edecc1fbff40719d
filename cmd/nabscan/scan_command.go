package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nabscan/internal/config"
	"nabscan/internal/daemon"
	"nabscan/internal/logging"
	"nabscan/internal/maintenance"
	"nabscan/internal/orchestrator"
	"nabscan/internal/preflight"
	"nabscan/internal/scan"
	"nabscan/internal/services/command"
	"nabscan/internal/store"
)

type scanOptions struct {
	backfill  bool
	group     string
	date      string
	daemonize bool
	pidFile   string
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the scan loop (update mode by default)",
		Long: `Run the scan orchestrator.

Without flags the update loop runs until interrupted: every active group is
scanned forward, missed segments are retried when scan.retry_missed is set,
binaries and releases are processed and the database is maintained.

With --backfill a single backward pass runs to --date, or to
scan.backfill_days ago when no date is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if opts.daemonize && !daemon.IsChild() {
				return launchDaemon(cmd, cfg, opts)
			}
			return runScan(cmd.Context(), cfg, req, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.backfill, "backfill", false, "Scan backward to --date instead of forward")
	cmd.Flags().StringVar(&opts.group, "group", "", "Restrict the run to one active group")
	cmd.Flags().StringVar(&opts.date, "date", "", "Backfill target date (2006-01-02, RFC3339 or \"2006-01-02 15:04:05\", UTC)")
	cmd.Flags().BoolVar(&opts.daemonize, "daemonize", false, "Detach and run in the background")
	cmd.Flags().StringVar(&opts.pidFile, "pid-file", "", "PID file for --daemonize (defaults to scan.pid_file)")
	return cmd
}

func (o scanOptions) request() (orchestrator.Request, error) {
	req := orchestrator.Request{Mode: scan.ModeUpdate, Group: strings.TrimSpace(o.group)}
	if o.backfill {
		req.Mode = scan.ModeBackfill
	}
	if strings.TrimSpace(o.date) != "" {
		if !o.backfill {
			return req, errors.New("--date requires --backfill")
		}
		since, err := parseBackfillDate(o.date)
		if err != nil {
			return req, err
		}
		req.Since = since
	}
	return req, nil
}

var backfillDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseBackfillDate accepts the supported layouts and returns the instant in
// UTC. Layouts without a zone are read as UTC.
func parseBackfillDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range backfillDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --date %q: expected 2006-01-02, RFC3339 or \"2006-01-02 15:04:05\"", value)
}

func launchDaemon(cmd *cobra.Command, cfg *config.Config, opts scanOptions) error {
	pidPath, err := daemon.ResolvePIDFile(opts.pidFile, cfg.Scan.PIDFile)
	if err != nil {
		return err
	}
	if _, err := daemon.CheckPIDFile(pidPath); err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := os.Args[1:]
	if !hasFlag(args, "--pid-file") {
		args = append(append([]string(nil), args...), "--pid-file", pidPath)
	}
	pid, err := daemon.Launch(exe, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "nabscan daemon started (pid %d, pid file %s)\n", pid, pidPath)
	return nil
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name || strings.HasPrefix(arg, name+"=") {
			return true
		}
	}
	return false
}

func runScan(cmdCtx context.Context, cfg *config.Config, req orchestrator.Request, opts scanOptions) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := ""
	if cfg.Paths.LogDir != "" {
		logPath = filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("nabscan-%s.log", runID))
	}
	logger, err := logging.NewFromConfig(cfg, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, uuid.NewString()))
	if logPath != "" {
		if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
			logger.Warn("unable to update nabscan.log link", logging.Error(err))
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
			logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "nabscan-*.log", Exclude: []string{logPath}},
		)
	}

	if daemon.IsChild() {
		pidPath, err := daemon.ResolvePIDFile(opts.pidFile, cfg.Scan.PIDFile)
		if err != nil {
			logging.Critical(logger, "daemon startup failed", logging.Error(err))
			return err
		}
		instance, err := daemon.Acquire(pidPath)
		if err != nil {
			logging.Critical(logger, "daemon startup failed", logging.Error(err), logging.String("pid_file", pidPath))
			return err
		}
		defer func() {
			if err := instance.Release(); err != nil {
				logger.Warn("release daemon instance", logging.Error(err))
			}
		}()
		logger.Info("daemon started", logging.Int("pid", os.Getpid()), logging.String("pid_file", instance.PIDPath()))
	}

	if err := runPreflight(signalCtx, cfg, logger); err != nil {
		if daemon.IsChild() {
			logging.Critical(logger, "daemon startup failed", logging.Error(err))
		}
		return err
	}

	st, err := store.Open(cfg)
	if err != nil {
		if daemon.IsChild() {
			logging.Critical(logger, "daemon startup failed", logging.Error(err))
		} else {
			logger.Error("open index database", logging.Error(err))
		}
		return err
	}
	defer st.Close()

	collaborators := command.New(cfg.Collaborators, logger)
	maintainer := maintenance.New(st, maintenance.PolicyFromConfig(cfg), logger)
	loop := orchestrator.New(cfg, st, collaborators, collaborators, maintainer, logger)

	err = loop.Run(signalCtx, req)
	switch {
	case errors.Is(err, orchestrator.ErrNoActiveGroups), errors.Is(err, orchestrator.ErrGroupNotFound):
		logger.Error("scan stopped", logging.Error(err),
			logging.String(logging.FieldErrorHint, "activate a group with 'nabscan groups activate NAME'"))
		return err
	case err != nil:
		logger.Error("scan failed", logging.Error(err))
		return err
	}
	logger.Info("nabscan shutting down")
	return nil
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		switch {
		case r.Passed:
			logger.Debug("preflight passed", logging.String("check", r.Name), logging.String("detail", r.Detail))
		case r.Warning:
			logging.WarnWithContext(logger, "preflight warning", "preflight_warning",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
		default:
			logger.Error("preflight failed", logging.String("check", r.Name), logging.String("detail", r.Detail))
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.Name)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(names, ", "))
	}
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "nabscan.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

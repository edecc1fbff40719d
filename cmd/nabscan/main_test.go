package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"nabscan/internal/config"
	"nabscan/internal/daemon"
	"nabscan/internal/orchestrator"
	"nabscan/internal/store"
	"nabscan/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("NABSCAN_DB_PATH", "")
	t.Setenv(daemon.ChildEnv, "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Database.Path)
}

func TestGroupsLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"groups", "add", "alt.binaries.teevee", "alt.binaries.moovee"}, env.configPath)
	if err != nil {
		t.Fatalf("groups add: %v", err)
	}
	requireContains(t, out, "Added alt.binaries.teevee (active: yes)")

	if _, _, err := runCLI(t, []string{"groups", "deactivate", "alt.binaries.moovee"}, env.configPath); err != nil {
		t.Fatalf("groups deactivate: %v", err)
	}

	out, _, err = runCLI(t, []string{"groups", "list", "--active"}, env.configPath)
	if err != nil {
		t.Fatalf("groups list: %v", err)
	}
	requireContains(t, out, "alt.binaries.teevee")
	if strings.Contains(out, "alt.binaries.moovee") {
		t.Fatalf("expected inactive group hidden, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"groups", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("groups list: %v", err)
	}
	requireContains(t, out, "alt.binaries.moovee")

	_, _, err = runCLI(t, []string{"groups", "activate", "alt.binaries.unknown"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGroupsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"groups", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("groups list: %v", err)
	}
	requireContains(t, out, "No groups configured")
}

func TestStatusAndDBCheck(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"groups", "add", "alt.binaries.test"}, env.configPath); err != nil {
		t.Fatalf("groups add: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Active groups")
	requireContains(t, out, "Release nzbs")
	requireContains(t, out, "within threshold")

	out, _, err = runCLI(t, []string{"db", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("db check: %v\n%s", err, out)
	}
	requireContains(t, out, "Database healthy")
}

func TestRenderStatusFormatsCounts(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.EarlyProcessThreshold = 1000
	var buf bytes.Buffer
	renderStatus(&buf, &cfg, "/tmp/index.db", store.Stats{
		Segments:  1234567,
		Artifacts: map[store.ArtifactKind]int64{store.ArtifactNZB: 42},
	})
	out := buf.String()
	requireContains(t, out, "1,234,567")
	requireContains(t, out, "over threshold")
}

func TestRenderStatusZeroThresholdMatchesValve(t *testing.T) {
	cfg := config.Default()
	cfg.Scan.EarlyProcessThreshold = 0
	var buf bytes.Buffer
	renderStatus(&buf, &cfg, "/tmp/index.db", store.Stats{Segments: 1})
	requireContains(t, buf.String(), "over threshold")

	buf.Reset()
	renderStatus(&buf, &cfg, "/tmp/index.db", store.Stats{})
	requireContains(t, buf.String(), "within threshold")
}

func TestParseBackfillDate(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", want},
		{"2024-03-01 12:30:00", want.Add(12*time.Hour + 30*time.Minute)},
		{"2024-03-01T02:00:00+02:00", want},
	}
	for _, tc := range cases {
		got, err := parseBackfillDate(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if !got.Equal(tc.want) || got.Location() != time.UTC {
			t.Fatalf("parse %q: got %s want %s", tc.in, got, tc.want)
		}
	}
	if _, err := parseBackfillDate("03/01/2024"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestScanDateRequiresBackfill(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"scan", "--date", "2024-01-01"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--backfill") {
		t.Fatalf("expected --backfill error, got %v", err)
	}
}

func TestScanBackfillRunsSingleCycle(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCollaborators(config.Collaborators{
		ScanCommand: "true",
	}))
	if _, _, err := runCLI(t, []string{"groups", "add", "alt.binaries.test"}, env.configPath); err != nil {
		t.Fatalf("groups add: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := runCLI(t, []string{"scan", "--backfill", "--date", "2024-01-01"}, env.configPath)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("scan --backfill: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("backfill did not return after one cycle")
	}

	matches, err := filepath.Glob(filepath.Join(env.cfg.Paths.LogDir, "nabscan-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one run log, got %v err=%v", matches, err)
	}
	if _, err := os.Lstat(filepath.Join(env.cfg.Paths.LogDir, "nabscan.log")); err != nil {
		t.Fatalf("expected nabscan.log pointer: %v", err)
	}
}

func TestScanWithoutActiveGroupsFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCollaborators(config.Collaborators{ScanCommand: "true"}))
	_, _, err := runCLI(t, []string{"scan"}, env.configPath)
	if !errors.Is(err, orchestrator.ErrNoActiveGroups) {
		t.Fatalf("expected ErrNoActiveGroups, got %v", err)
	}
}

func TestScanDaemonizeRequiresPIDFile(t *testing.T) {
	env := setupCLITestEnv(t)
	cfg := *env.cfg
	cfg.Scan.PIDFile = ""
	data, err := toml.Marshal(&cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(env.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err = runCLI(t, []string{"scan", "--daemonize"}, env.configPath)
	if !errors.Is(err, daemon.ErrPIDFileRequired) {
		t.Fatalf("expected ErrPIDFileRequired, got %v", err)
	}
}

func TestScanDaemonizeRefusesRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	// The parent of the test binary stands in for a live daemon.
	if err := os.WriteFile(env.cfg.Scan.PIDFile, []byte(strconv.Itoa(os.Getppid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	_, _, err := runCLI(t, []string{"scan", "--daemonize"}, env.configPath)
	if !errors.Is(err, daemon.ErrDaemonRunning) {
		t.Fatalf("expected ErrDaemonRunning, got %v", err)
	}
}

func TestLogsPrintsRunLogTail(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	runLog := filepath.Join(env.cfg.Paths.LogDir, "nabscan-20240101T000000.000Z.log")
	if err := os.WriteFile(runLog, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write run log: %v", err)
	}
	if err := ensureCurrentLogPointer(env.cfg.Paths.LogDir, runLog); err != nil {
		t.Fatalf("pointer: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("unexpected logs output: %q", out)
	}
}

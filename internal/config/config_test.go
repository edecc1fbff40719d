package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"nabscan/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("NABSCAN_DB_PATH", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "nabscan")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Database.Path != filepath.Join(wantData, "index.db") {
		t.Fatalf("unexpected database path: %q", cfg.Database.Path)
	}
	if cfg.Scan.FullVacuumIterations != 288 {
		t.Fatalf("expected default full_vacuum_iterations 288, got %d", cfg.Scan.FullVacuumIterations)
	}
	if !cfg.Scan.FullVacuum {
		t.Fatal("expected full vacuum enabled by default")
	}
	if cfg.UpdateWait() != 300*time.Second {
		t.Fatalf("unexpected update wait: %s", cfg.UpdateWait())
	}
	if cfg.DeadBinaryAge() != 72*time.Hour {
		t.Fatalf("unexpected dead binary age: %s", cfg.DeadBinaryAge())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("NABSCAN_DB_PATH", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
data_dir = "~/nab"

[scan]
update_threads = 6
retry_missed = true
dead_binary_age = 0
full_vacuum = false
update_wait = 60
pid_file = "~/nab/nabscan.pid"

[collaborators]
scan_command = " /usr/bin/nab-scan "
extra_args = ["", "--verbose"]

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config %q to exist, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Scan.UpdateThreads != 6 || !cfg.Scan.RetryMissed || cfg.Scan.FullVacuum {
		t.Fatalf("unexpected scan settings: %+v", cfg.Scan)
	}
	if cfg.DeadBinaryAge() != 0 {
		t.Fatalf("expected reaping disabled, got %s", cfg.DeadBinaryAge())
	}
	if cfg.Scan.PIDFile != filepath.Join(tempHome, "nab", "nabscan.pid") {
		t.Fatalf("unexpected pid file: %q", cfg.Scan.PIDFile)
	}
	if cfg.Collaborators.ScanCommand != "/usr/bin/nab-scan" {
		t.Fatalf("expected trimmed scan command, got %q", cfg.Collaborators.ScanCommand)
	}
	if cfg.Collaborators.ScanMissingCommand != "/usr/bin/nab-scan" {
		t.Fatalf("expected scan missing command to fall back to scan command, got %q", cfg.Collaborators.ScanMissingCommand)
	}
	if len(cfg.Collaborators.ExtraArgs) != 1 || cfg.Collaborators.ExtraArgs[0] != "--verbose" {
		t.Fatalf("unexpected extra args: %v", cfg.Collaborators.ExtraArgs)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestDatabasePathEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := filepath.Join(t.TempDir(), "custom.db")
	t.Setenv("NABSCAN_DB_PATH", override)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Path != override {
		t.Fatalf("expected env database path %q, got %q", override, cfg.Database.Path)
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"threads", func(c *config.Config) { c.Scan.UpdateThreads = -1 }, "update_threads"},
		{"dead age", func(c *config.Config) { c.Scan.DeadBinaryAge = -2 }, "dead_binary_age"},
		{"wait", func(c *config.Config) { c.Scan.UpdateWait = -5 }, "update_wait"},
		{"threshold", func(c *config.Config) { c.Scan.EarlyProcessThreshold = -1 }, "early_process_threshold"},
		{"level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"scan limit", func(c *config.Config) { c.Scan.GroupScanLimit = 0 }, "group_scan_limit"},
		{"vacuum iterations", func(c *config.Config) { c.Scan.FullVacuumIterations = 0 }, "full_vacuum_iterations"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleProducesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Scan.FullVacuumIterations != 288 {
		t.Fatalf("expected sample full_vacuum_iterations 288, got %d", cfg.Scan.FullVacuumIterations)
	}
	if !cfg.Scan.RetryMissed {
		t.Fatal("expected sample to enable retry_missed")
	}
}

func TestLoadRejectsNegativeLimitsAndAcceptsLevelAliases(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NABSCAN_DB_PATH", "")

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		return path
	}

	for _, tc := range []struct{ content, want string }{
		{"[scan]\ngroup_scan_limit = -1\n", "group_scan_limit"},
		{"[scan]\nfull_vacuum_iterations = -2\n", "full_vacuum_iterations"},
	} {
		_, _, _, err := config.Load(write(t, tc.content))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
		}
	}

	for alias, want := range map[string]string{"WARNING": "warn", "fatal": "critical"} {
		cfg, _, _, err := config.Load(write(t, "[logging]\nlevel = \""+alias+"\"\n"))
		if err != nil {
			t.Fatalf("level %q rejected: %v", alias, err)
		}
		if cfg.Logging.Level != want {
			t.Fatalf("level %q: expected %q, got %q", alias, want, cfg.Logging.Level)
		}
	}

	cfg, _, _, err := config.Load(write(t, "[scan]\ngroup_scan_limit = 0\n"))
	if err != nil || cfg.Scan.GroupScanLimit != 2000000 {
		t.Fatalf("expected unset limit to default, got %+v err=%v", cfg, err)
	}
}

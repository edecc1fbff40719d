package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Database contains configuration for the SQLite index store.
type Database struct {
	Path        string `toml:"path"`
	BusyTimeout int    `toml:"busy_timeout_ms"`
}

// Scan contains the scheduling knobs consumed by the scan orchestrator.
type Scan struct {
	GroupScanLimit        int    `toml:"group_scan_limit"`
	BackfillDays          int    `toml:"backfill_days"`
	UpdateThreads         int    `toml:"update_threads"`
	RetryMissed           bool   `toml:"retry_missed"`
	EarlyProcessThreshold int64  `toml:"early_process_threshold"`
	DeadBinaryAge         int    `toml:"dead_binary_age"`
	FullVacuumIterations  int    `toml:"full_vacuum_iterations"`
	FullVacuum            bool   `toml:"full_vacuum"`
	UpdateWait            int    `toml:"update_wait"`
	PIDFile               string `toml:"pid_file"`
}

// Collaborators names the external programs that perform the actual NNTP
// scanning and binary/release processing. Empty commands are not invoked.
type Collaborators struct {
	ScanCommand        string   `toml:"scan_command"`
	ScanMissingCommand string   `toml:"scan_missing_command"`
	BinariesCommand    string   `toml:"binaries_command"`
	ReleasesCommand    string   `toml:"releases_command"`
	ExtraArgs          []string `toml:"extra_args"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for nabscan.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Database: SQLite store location and busy timeout
//   - Scan: orchestrator scheduling, retry, reaping and compaction policy
//   - Collaborators: external scan and processing commands
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Database      Database      `toml:"database"`
	Scan          Scan          `toml:"scan"`
	Collaborators Collaborators `toml:"collaborators"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("nabscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Database.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UpdateWait returns the inter-cycle sleep of continuous mode.
func (c *Config) UpdateWait() time.Duration {
	return time.Duration(c.Scan.UpdateWait) * time.Second
}

// DeadBinaryAge returns the binary retention age. Zero disables reaping.
func (c *Config) DeadBinaryAge() time.Duration {
	return time.Duration(c.Scan.DeadBinaryAge) * 24 * time.Hour
}

// BackfillWindow returns the default backfill lookback when no date is given.
func (c *Config) BackfillWindow() time.Duration {
	return time.Duration(c.Scan.BackfillDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

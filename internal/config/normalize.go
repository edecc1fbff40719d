package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	if err := c.normalizeScan(); err != nil {
		return err
	}
	c.normalizeCollaborators()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	if value, ok := os.LookupEnv("NABSCAN_DB_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Database.Path = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = filepath.Join(c.Paths.DataDir, defaultDatabaseFile)
	}
	var err error
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	if c.Database.BusyTimeout <= 0 {
		c.Database.BusyTimeout = defaultBusyTimeoutMS
	}
	return nil
}

func (c *Config) normalizeScan() error {
	c.Scan.PIDFile = strings.TrimSpace(c.Scan.PIDFile)
	if c.Scan.PIDFile != "" {
		var err error
		if c.Scan.PIDFile, err = expandPath(c.Scan.PIDFile); err != nil {
			return fmt.Errorf("scan.pid_file: %w", err)
		}
	}
	// Zero means unset; negatives are left for Validate to reject.
	if c.Scan.GroupScanLimit == 0 {
		c.Scan.GroupScanLimit = defaultGroupScanLimit
	}
	if c.Scan.FullVacuumIterations == 0 {
		c.Scan.FullVacuumIterations = defaultFullVacuumIterations
	}
	return nil
}

func (c *Config) normalizeCollaborators() {
	c.Collaborators.ScanCommand = strings.TrimSpace(c.Collaborators.ScanCommand)
	c.Collaborators.ScanMissingCommand = strings.TrimSpace(c.Collaborators.ScanMissingCommand)
	if c.Collaborators.ScanMissingCommand == "" {
		c.Collaborators.ScanMissingCommand = c.Collaborators.ScanCommand
	}
	c.Collaborators.BinariesCommand = strings.TrimSpace(c.Collaborators.BinariesCommand)
	c.Collaborators.ReleasesCommand = strings.TrimSpace(c.Collaborators.ReleasesCommand)
	args := c.Collaborators.ExtraArgs[:0]
	for _, arg := range c.Collaborators.ExtraArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Collaborators.ExtraArgs = args
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	case "fatal":
		c.Logging.Level = "critical"
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

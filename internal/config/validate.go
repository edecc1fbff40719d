package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.GroupScanLimit < 1 {
		return fmt.Errorf("scan.group_scan_limit must be >= 1, got %d", c.Scan.GroupScanLimit)
	}
	if c.Scan.FullVacuumIterations < 1 {
		return fmt.Errorf("scan.full_vacuum_iterations must be >= 1, got %d", c.Scan.FullVacuumIterations)
	}
	if c.Scan.BackfillDays < 0 {
		return fmt.Errorf("scan.backfill_days must be >= 0, got %d", c.Scan.BackfillDays)
	}
	if c.Scan.UpdateThreads < 0 {
		return fmt.Errorf("scan.update_threads must be >= 0, got %d", c.Scan.UpdateThreads)
	}
	if c.Scan.EarlyProcessThreshold < 0 {
		return fmt.Errorf("scan.early_process_threshold must be >= 0, got %d", c.Scan.EarlyProcessThreshold)
	}
	if c.Scan.DeadBinaryAge < 0 {
		return fmt.Errorf("scan.dead_binary_age must be >= 0, got %d", c.Scan.DeadBinaryAge)
	}
	if c.Scan.UpdateWait < 0 {
		return fmt.Errorf("scan.update_wait must be >= 0, got %d", c.Scan.UpdateWait)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "critical":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn (warning), error, critical (fatal)")
	}
}

package config

const (
	defaultConfigPath            = "~/.config/nabscan/config.toml"
	defaultDataDir               = "~/.local/share/nabscan"
	defaultLogDir                = "~/.local/share/nabscan/logs"
	defaultDatabaseFile          = "index.db"
	defaultBusyTimeoutMS         = 5000
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultGroupScanLimit        = 2000000
	defaultBackfillDays          = 10
	defaultEarlyProcessThreshold = 50000000
	defaultDeadBinaryAge         = 3
	defaultFullVacuumIterations  = 288
	defaultUpdateWait            = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Database: Database{
			BusyTimeout: defaultBusyTimeoutMS,
		},
		Scan: Scan{
			GroupScanLimit:        defaultGroupScanLimit,
			BackfillDays:          defaultBackfillDays,
			UpdateThreads:         0,
			RetryMissed:           false,
			EarlyProcessThreshold: defaultEarlyProcessThreshold,
			DeadBinaryAge:         defaultDeadBinaryAge,
			FullVacuumIterations:  defaultFullVacuumIterations,
			FullVacuum:            true,
			UpdateWait:            defaultUpdateWait,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

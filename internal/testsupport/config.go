package testsupport

import (
	"path/filepath"
	"testing"

	"nabscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Database.Path = filepath.Join(base, "data", "index.db")
	cfgVal.Scan.PIDFile = filepath.Join(base, "nabscan.pid")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithScan mutates the scan section of the test config.
func WithScan(mutate func(*config.Scan)) ConfigOption {
	return func(b *configBuilder) {
		mutate(&b.cfg.Scan)
	}
}

// WithCollaborators sets the external command configuration.
func WithCollaborators(c config.Collaborators) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Collaborators = c
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

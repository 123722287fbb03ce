package testsupport

import (
	"path/filepath"
	"testing"

	"sprocket/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SessionDir = filepath.Join(base, "sessions")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithFolderCreation toggles missing-hierarchy auto-creation.
func WithFolderCreation(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.FolderCreation.Enabled = enabled
	}
}

// WithTimelineFrameStart overrides the editorial timeline frame origin.
func WithTimelineFrameStart(frame int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Editorial.TimelineFrameStart = frame
	}
}

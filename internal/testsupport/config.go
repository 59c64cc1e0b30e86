package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subinspector/internal/config"
	"subinspector/internal/raster"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	cfg *config.Config
}

// NewConfig produces a default config with a per-test font directory and a
// fixed concurrency of two. Options are applied in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Fonts.Dir = filepath.Join(base, "fonts")
	if err := os.MkdirAll(cfgVal.Fonts.Dir, 0o755); err != nil {
		t.Fatalf("mkdir fonts dir: %v", err)
	}
	cfgVal.Audit.Concurrency = 2

	builder := &configBuilder{cfg: &cfgVal}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithBackend selects the renderer backend.
func WithBackend(backend raster.Backend) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.Backend = string(backend)
	}
}

// WithCanvas forces a canvas size regardless of script PlayRes.
func WithCanvas(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Canvas = config.Canvas{Width: width, Height: height}
	}
}

// WithConcurrency sets how many files are checked at once.
func WithConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Audit.Concurrency = n
	}
}

// WithMaxScriptBytes sets the per-session script size limit.
func WithMaxScriptBytes(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.MaxScriptBytes = n
	}
}

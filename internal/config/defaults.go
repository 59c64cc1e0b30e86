package config

import "subinspector/internal/raster"

const (
	defaultBackend        = string(raster.BackendBasic)
	defaultMaxScriptBytes = 64 << 20
	defaultReportFormat   = "table"
	defaultLogFormat      = "console"
	defaultLogLevel       = "warn"

	// fallbackWidth and fallbackHeight apply when neither the config nor the
	// script names a canvas size.
	fallbackWidth  = 384
	fallbackHeight = 288
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Renderer: Renderer{
			Backend:        defaultBackend,
			MaxScriptBytes: defaultMaxScriptBytes,
		},
		Audit: Audit{
			Format: defaultReportFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

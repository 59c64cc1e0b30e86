package config

import (
	"errors"
	"fmt"
	"slices"

	"subinspector/internal/raster"
)

// ReportFormats lists the accepted audit.format values.
var ReportFormats = []string{"table", "json", "yaml", "markdown"}

var (
	logFormats = []string{"console", "json"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCanvas() error {
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 {
		return errors.New("canvas.width and canvas.height must not be negative")
	}
	if (c.Canvas.Width == 0) != (c.Canvas.Height == 0) {
		return errors.New("canvas.width and canvas.height must be set together")
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if _, err := raster.ParseBackend(c.Renderer.Backend); err != nil {
		return fmt.Errorf("renderer.backend: %w", err)
	}
	if c.Renderer.MaxScriptBytes < 0 {
		return errors.New("renderer.max_script_bytes must be positive")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if c.Audit.Concurrency < 0 {
		return errors.New("audit.concurrency must not be negative")
	}
	if !slices.Contains(ReportFormats, c.Audit.Format) {
		return fmt.Errorf("audit.format must be one of %v, got %q", ReportFormats, c.Audit.Format)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", logFormats, c.Logging.Format)
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", logLevels, c.Logging.Level)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// fontDirEnv supplies fonts.dir when the file leaves it empty.
const fontDirEnv = "SUBINSPECTOR_FONT_DIR"

func (c *Config) normalize() error {
	if err := c.normalizeFonts(); err != nil {
		return err
	}
	c.normalizeRenderer()
	c.normalizeAudit()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeFonts() error {
	c.Fonts.Config = strings.TrimSpace(c.Fonts.Config)
	c.Fonts.Dir = strings.TrimSpace(c.Fonts.Dir)
	if c.Fonts.Dir == "" {
		if value, ok := os.LookupEnv(fontDirEnv); ok {
			c.Fonts.Dir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Fonts.Config, err = ExpandPath(c.Fonts.Config); err != nil {
		return fmt.Errorf("fonts.config: %w", err)
	}
	if c.Fonts.Dir, err = ExpandPath(c.Fonts.Dir); err != nil {
		return fmt.Errorf("fonts.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRenderer() {
	c.Renderer.Backend = strings.ToLower(strings.TrimSpace(c.Renderer.Backend))
	if c.Renderer.Backend == "" {
		c.Renderer.Backend = defaultBackend
	}
	if c.Renderer.MaxScriptBytes == 0 {
		c.Renderer.MaxScriptBytes = defaultMaxScriptBytes
	}
}

func (c *Config) normalizeAudit() {
	if c.Audit.Concurrency == 0 {
		c.Audit.Concurrency = runtime.NumCPU()
	}
	c.Audit.Format = strings.ToLower(strings.TrimSpace(c.Audit.Format))
	if c.Audit.Format == "" {
		c.Audit.Format = defaultReportFormat
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

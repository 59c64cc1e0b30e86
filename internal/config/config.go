package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	appName         = "subinspector"
	configFileName  = "config.toml"
	projectFileName = "subinspector.toml"
)

// Canvas is the renderer output frame size.
type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Fonts configures font lookup.
type Fonts struct {
	Config string `toml:"config"`
	Dir    string `toml:"dir"`
}

// Renderer selects and limits the rasterization backend.
type Renderer struct {
	Backend        string `toml:"backend"`
	MaxScriptBytes int    `toml:"max_script_bytes"`
}

// Audit configures the check command.
type Audit struct {
	Concurrency int    `toml:"concurrency"`
	Format      string `toml:"format"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for SubInspector.
type Config struct {
	Canvas   Canvas   `toml:"canvas"`
	Fonts    Fonts    `toml:"fonts"`
	Renderer Renderer `toml:"renderer"`
	Audit    Audit    `toml:"audit"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the XDG location of the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the path that was considered and whether that file existed.
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

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
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
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath := DefaultConfigPath()
	projectPath, err := filepath.Abs(projectFileName)
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

// CanvasFor returns the canvas size to use for a script whose PlayRes is
// playResX x playResY. A configured size wins over the script's.
func (c *Config) CanvasFor(playResX, playResY int) (int, int) {
	if c.Canvas.Width > 0 && c.Canvas.Height > 0 {
		return c.Canvas.Width, c.Canvas.Height
	}
	if playResX > 0 && playResY > 0 {
		return playResX, playResY
	}
	return fallbackWidth, fallbackHeight
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// SampleConfig returns the annotated default configuration.
func SampleConfig() string {
	return sampleConfig
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

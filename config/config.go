// Package config loads the converter's defaults from an optional TOML file.
//
// Command-line flags are applied on top of the loaded values by the CLI, so
// the file only needs to carry the settings a user wants to change globally.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"batimgcon/codec"
)

// Encoding carries the encoder settings shared by all output formats.
type Encoding struct {
	Quality      int `toml:"quality"`
	QualityAlpha int `toml:"quality_alpha"`
	Speed        int `toml:"speed"`
}

// Logging controls console output.
type Logging struct {
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	NoColor bool   `toml:"no_color"`
}

// Output configures the optional artifacts written after a run.
type Output struct {
	Progress    bool   `toml:"progress"`
	MetricsFile string `toml:"metrics_file"`
	ReportFile  string `toml:"report_file"`
}

type Config struct {
	WorkersCount int      `toml:"workers_count"`
	ReducedPrio  bool     `toml:"reduced_prio"`
	Encoding     Encoding `toml:"encoding"`
	Logging      Logging  `toml:"logging"`
	Output       Output   `toml:"output"`
}

const (
	defaultConfigPath   = "~/.config/batimgcon/config.toml"
	projectConfigName   = "batimgcon.toml"
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultQuality      = 80
	defaultQualityAlpha = 80
	defaultSpeed        = 6
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		WorkersCount: runtime.NumCPU(),
		ReducedPrio:  true,
		Encoding: Encoding{
			Quality:      defaultQuality,
			QualityAlpha: defaultQualityAlpha,
			Speed:        defaultSpeed,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses and validates a configuration file. An explicit path
// that does not exist is not an error; defaults are returned and the bool
// result reports whether a file was read.
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

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
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
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
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

func (c *Config) normalize() error {
	if c.WorkersCount == 0 {
		c.WorkersCount = runtime.NumCPU()
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}

	var err error
	if c.Output.MetricsFile, err = expandPath(c.Output.MetricsFile); err != nil {
		return fmt.Errorf("output.metrics_file: %w", err)
	}
	if c.Output.ReportFile, err = expandPath(c.Output.ReportFile); err != nil {
		return fmt.Errorf("output.report_file: %w", err)
	}
	return nil
}

// CodecOptions maps the encoding section onto codec options.
func (c *Config) CodecOptions() codec.Options {
	return codec.Options{
		Quality:      c.Encoding.Quality,
		QualityAlpha: c.Encoding.QualityAlpha,
		Speed:        c.Encoding.Speed,
	}
}

// ExpandPath resolves a leading "~" and makes the path absolute. An empty
// path stays empty.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
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

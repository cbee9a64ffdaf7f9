package config

import (
	"errors"
	"fmt"

	"batimgcon/logger"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.WorkersCount < 1 {
		return fmt.Errorf("workers_count must be a positive integer, got %d", c.WorkersCount)
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEncoding() error {
	if c.Encoding.Quality < 0 || c.Encoding.Quality > 100 {
		return errors.New("encoding.quality must be in range 0-100")
	}
	if c.Encoding.QualityAlpha < 0 || c.Encoding.QualityAlpha > 100 {
		return errors.New("encoding.quality_alpha must be in range 0-100")
	}
	if c.Encoding.Speed < 0 || c.Encoding.Speed > 10 {
		return errors.New("encoding.speed must be in range 0-10")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("log format: unsupported value %q", c.Logging.Format)
	}
}

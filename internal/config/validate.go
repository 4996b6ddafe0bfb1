package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetect(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateDetect() error {
	if c.Detect.FingerprintThreshold < 0 || c.Detect.FingerprintThreshold > 1 {
		return errors.New("detect.fingerprint_threshold must be between 0 and 1")
	}
	if c.Detect.FuzzyThreshold < 0 || c.Detect.FuzzyThreshold > 1 {
		return errors.New("detect.fuzzy_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateOrganize() error {
	pattern := c.Organize.Pattern
	if strings.Contains(pattern, "..") {
		return errors.New("organize.pattern must not contain parent directory references")
	}
	if strings.HasPrefix(pattern, "/") {
		return errors.New("organize.pattern must be relative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

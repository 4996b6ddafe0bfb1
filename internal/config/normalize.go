package config

import (
	"fmt"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeDetect()
	c.normalizeOrganize()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultWorkers()
	}
}

func (c *Config) normalizeDetect() {
	if c.Detect.DurationToleranceMillis <= 0 {
		c.Detect.DurationToleranceMillis = defaultDurationToleranceMillis
	}
	if c.Detect.FingerprintThreshold == 0 {
		c.Detect.FingerprintThreshold = defaultFingerprintThreshold
	}
	if c.Detect.FuzzyThreshold == 0 {
		c.Detect.FuzzyThreshold = defaultFuzzyThreshold
	}
	if strings.TrimSpace(c.Detect.FpcalcBinary) == "" {
		c.Detect.FpcalcBinary = defaultFpcalcBinary
	}
	if c.Detect.FpcalcTimeoutSeconds <= 0 {
		c.Detect.FpcalcTimeoutSeconds = defaultFpcalcTimeoutSeconds
	}
	if c.Detect.FpcalcLengthSeconds <= 0 {
		c.Detect.FpcalcLengthSeconds = defaultFpcalcLengthSeconds
	}
	if c.Detect.Workers <= 0 {
		c.Detect.Workers = defaultWorkers()
	}
}

func (c *Config) normalizeOrganize() {
	if strings.TrimSpace(c.Organize.Pattern) == "" {
		c.Organize.Pattern = defaultOrganizePattern
	}
	if strings.TrimSpace(c.Organize.Placeholder) == "" {
		c.Organize.Placeholder = defaultOrganizePlaceholder
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

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	if n > 8 {
		return 8
	}
	return n
}

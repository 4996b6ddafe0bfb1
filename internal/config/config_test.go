package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quaver/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config file")
	}
	if cfg.Detect.DurationToleranceMillis != 3000 {
		t.Fatalf("unexpected duration tolerance: %d", cfg.Detect.DurationToleranceMillis)
	}
	if cfg.Detect.FingerprintThreshold != 0.95 {
		t.Fatalf("unexpected fingerprint threshold: %v", cfg.Detect.FingerprintThreshold)
	}
	if cfg.Organize.Placeholder != "Unknown" {
		t.Fatalf("unexpected placeholder: %q", cfg.Organize.Placeholder)
	}
	if cfg.Scan.Workers < 2 {
		t.Fatalf("expected resolved worker count, got %d", cfg.Scan.Workers)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
library_dir = "` + dir + `/library"
data_dir = "` + dir + `/data"

[detect]
duration_tolerance_ms = 5000

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Detect.DurationToleranceMillis != 5000 {
		t.Fatalf("unexpected tolerance: %d", cfg.Detect.DurationToleranceMillis)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %q", cfg.Logging.Level)
	}
	if !filepath.IsAbs(cfg.Paths.LibraryDir) {
		t.Fatalf("expected absolute library dir, got %q", cfg.Paths.LibraryDir)
	}
	if cfg.IndexPath() != filepath.Join(cfg.Paths.DataDir, "library.db") {
		t.Fatalf("unexpected index path: %s", cfg.IndexPath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "threshold above one",
			mutate:  func(c *config.Config) { c.Detect.FingerprintThreshold = 1.5 },
			wantSub: "fingerprint_threshold",
		},
		{
			name:    "absolute pattern",
			mutate:  func(c *config.Config) { c.Organize.Pattern = "/srv/{artist}" },
			wantSub: "organize.pattern",
		},
		{
			name:    "parent escape pattern",
			mutate:  func(c *config.Config) { c.Organize.Pattern = "../{artist}" },
			wantSub: "organize.pattern",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "yaml" },
			wantSub: "logging.format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Logging.Format = "console"
			cfg.Logging.Level = "info"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[detect]") {
		t.Fatal("sample config missing [detect] section")
	}
}

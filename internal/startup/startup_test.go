package startup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	for _, want := range []string{"Version:    " + Version, "Commit:     " + Commit, "CPUs:"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("IMAGEVAULT_DATABASE_DIR", dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MaxFiles != 20 || cfg.MaxFileSizeMB != 10 || cfg.MaxOutputSizeMB != 1 ||
		cfg.MaxOutputDimension != 1920 || cfg.ThumbnailSize != 200 || cfg.Workers != 0 || !cfg.VipsEnabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DatabasePath != filepath.Join(dir, DatabaseFile) {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("database directory was not created: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IMAGEVAULT_DATABASE_DIR", t.TempDir())
	t.Setenv("IMAGEVAULT_MAX_FILES", "5")
	t.Setenv("IMAGEVAULT_MAX_FILE_SIZE_MB", "2")
	t.Setenv("IMAGEVAULT_MAX_OUTPUT_SIZE_MB", "0.5")
	t.Setenv("IMAGEVAULT_THUMBNAIL_SIZE", "128")
	t.Setenv("IMAGEVAULT_WORKERS", "3")
	t.Setenv("IMAGEVAULT_VIPS_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	opts := cfg.IngestOptions()
	if opts.MaxFiles != 5 || opts.MaxFileSize != 2*1024*1024 || opts.Workers != 3 {
		t.Errorf("IngestOptions() = %+v", opts)
	}
	if opts.MaxOutputSizeMB != 0.5 || opts.ThumbnailMaxDimensionPx != 128 || opts.MaxOutputDimensionPx != 1920 {
		t.Errorf("media options = %+v", opts.Options)
	}
	if cfg.VipsEnabled {
		t.Error("VipsEnabled should be false")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric", key: "IMAGEVAULT_MAX_FILES", value: "lots"},
		{name: "negative files", key: "IMAGEVAULT_MAX_FILES", value: "-1"},
		{name: "zero file size", key: "IMAGEVAULT_MAX_FILE_SIZE_MB", value: "0"},
		{name: "tiny output", key: "IMAGEVAULT_MAX_OUTPUT_DIMENSION", value: "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("IMAGEVAULT_DATABASE_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("LoadConfig() error = %v, want invalid configuration", err)
			}
		})
	}
}

func TestLoadConfigDatabaseDirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IMAGEVAULT_DATABASE_DIR", file)

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail when DATABASE_DIR is a file")
	}
}

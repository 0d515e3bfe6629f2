package startup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"image-vault/internal/ingest"
	"image-vault/internal/logging"
	"image-vault/internal/media"
	"image-vault/internal/workers"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// EnvPrefix prefixes every configuration variable.
const EnvPrefix = "IMAGEVAULT"

// DatabaseFile is the file name of the library database inside DatabaseDir.
const DatabaseFile = "library.db"

// maxIngestWorkers caps automatic worker sizing.
const maxIngestWorkers = 8

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	DatabaseDir        string  `envconfig:"DATABASE_DIR" default:"./data" validate:"required"`
	MaxFiles           int     `envconfig:"MAX_FILES" default:"20" validate:"gte=0"`
	MaxFileSizeMB      int     `envconfig:"MAX_FILE_SIZE_MB" default:"10" validate:"gt=0"`
	MaxOutputSizeMB    float64 `envconfig:"MAX_OUTPUT_SIZE_MB" default:"1" validate:"gt=0"`
	MaxOutputDimension int     `envconfig:"MAX_OUTPUT_DIMENSION" default:"1920" validate:"gte=16"`
	ThumbnailSize      int     `envconfig:"THUMBNAIL_SIZE" default:"200" validate:"gt=0"`
	Workers            int     `envconfig:"WORKERS" default:"0" validate:"gte=0"`
	VipsEnabled        bool    `envconfig:"VIPS_ENABLED" default:"true"`
	MetricsTextfile    string  `envconfig:"METRICS_TEXTFILE"`

	// Derived paths
	DatabasePath string `ignored:"true"`
}

// LoadConfig reads configuration from the environment, validates it and
// prepares the database directory.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	databaseDir, err := filepath.Abs(cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	cfg.DatabaseDir = databaseDir
	cfg.DatabasePath = filepath.Join(databaseDir, DatabaseFile)

	logConfig(&cfg)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Debug("  [OK] Database directory is writable")

	return &cfg, nil
}

// IngestOptions converts the configuration into pipeline options.
func (c *Config) IngestOptions() ingest.Options {
	return ingest.Options{
		Options: media.Options{
			MaxOutputSizeMB:         c.MaxOutputSizeMB,
			MaxOutputDimensionPx:    c.MaxOutputDimension,
			ThumbnailMaxDimensionPx: c.ThumbnailSize,
		},
		MaxFiles:    c.MaxFiles,
		MaxFileSize: int64(c.MaxFileSizeMB) * 1024 * 1024,
		Workers:     workers.Resolve(c.Workers, maxIngestWorkers),
	}
}

func logConfig(c *Config) {
	logging.Debug("------------------------------------------------------------")
	logging.Debug("CONFIGURATION")
	logging.Debug("------------------------------------------------------------")
	logging.Debug("  DATABASE_DIR:          %s", c.DatabaseDir)
	logging.Debug("  MAX_FILES:             %d", c.MaxFiles)
	logging.Debug("  MAX_FILE_SIZE_MB:      %d", c.MaxFileSizeMB)
	logging.Debug("  MAX_OUTPUT_SIZE_MB:    %g", c.MaxOutputSizeMB)
	logging.Debug("  MAX_OUTPUT_DIMENSION:  %d", c.MaxOutputDimension)
	logging.Debug("  THUMBNAIL_SIZE:        %d", c.ThumbnailSize)
	logging.Debug("  WORKERS:               %d", c.Workers)
	logging.Debug("  VIPS_ENABLED:          %v", c.VipsEnabled)
	logging.Debug("  METRICS_TEXTFILE:      %s", c.MetricsTextfile)
	logging.Debug("  LOG_LEVEL:             %s", logging.GetLevel())
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration, fresh bool) {
	if fresh {
		logging.Info("  [OK] Created new library in %v", duration)
		return
	}
	logging.Debug("  [OK] Database opened in %v", duration)
}

// PrintBanner writes the version banner to w.
func PrintBanner(w io.Writer) {
	banner := `
------------------------------------------------------------
   ____                          _   __          ____
  /  _/_ _  ___ ____ ____    | | / /__ ___ __/ / /_
 _/ //  ' \/ _ '/ _ '/ -_)   | |/ / _ '/ // / / __/
/___/_/_/_/\_,_/\_, /\__/    |___/\_,_/\_,_/_/\__/
               /___/
------------------------------------------------------------`
	fmt.Fprintln(w, banner)
	info := GetBuildInfo()
	fmt.Fprintf(w, "  Version:    %s\n", info.Version)
	fmt.Fprintf(w, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(w, "  Build Time: %s\n", info.BuildTime)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
	fmt.Fprintf(w, "  CPUs:       %d (GOMAXPROCS %d)\n", runtime.NumCPU(), runtime.GOMAXPROCS(0))
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

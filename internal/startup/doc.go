// Package startup handles configuration loading and startup logging for the
// image vault.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig],
// using the IMAGEVAULT_ prefix:
//
//   - IMAGEVAULT_DATABASE_DIR: directory holding the library database (default: ./data)
//   - IMAGEVAULT_MAX_FILES: maximum files per upload batch, 0 for no limit (default: 20)
//   - IMAGEVAULT_MAX_FILE_SIZE_MB: maximum size of one source file (default: 10)
//   - IMAGEVAULT_MAX_OUTPUT_SIZE_MB: size ceiling of the stored image (default: 1)
//   - IMAGEVAULT_MAX_OUTPUT_DIMENSION: longest edge of the stored image in px (default: 1920)
//   - IMAGEVAULT_THUMBNAIL_SIZE: longest edge of thumbnails in px (default: 200)
//   - IMAGEVAULT_WORKERS: files transcoded in parallel, 0 for one per CPU (default: 0)
//   - IMAGEVAULT_VIPS_ENABLED: initialize libvips for SVG support (default: true)
//   - IMAGEVAULT_METRICS_TEXTFILE: write Prometheus metrics here on exit (default: disabled)
//
// LOG_LEVEL, DEBUG and LOG_FORMAT are read by the logging package and
// INGEST_WORKERS by the workers package.
//
// # Directory Setup
//
// The database directory is created if missing and tested for write access
// before the database is opened; a failure there is fatal.
package startup

package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"image-vault/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// errVipsUnavailable is returned when a source needs libvips and InitVips
// has not been called.
var errVipsUnavailable = errors.New("libvips not available")

// vipsSeverity ranks GLib log levels. GLib flags grow as severity drops, so
// the raw values cannot be compared directly.
func vipsSeverity(lvl vips.LogLevel) int {
	switch lvl {
	case vips.LogLevelError:
		return 5
	case vips.LogLevelCritical:
		return 4
	case vips.LogLevelWarning:
		return 3
	case vips.LogLevelMessage:
		return 2
	case vips.LogLevelInfo:
		return 1
	default:
		return 0
	}
}

// vipsLogSettings maps the application log level onto a libvips threshold
// and a handler forwarding libvips messages at or above it into our logger.
func vipsLogSettings(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	var threshold vips.LogLevel
	switch level {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelWarn:
		threshold = vips.LogLevelCritical
	case logging.LevelError:
		threshold = vips.LogLevelError
	default:
		threshold = vips.LogLevelWarning
	}

	handler := func(domain string, lvl vips.LogLevel, msg string) {
		if vipsSeverity(lvl) < vipsSeverity(threshold) {
			return
		}
		switch lvl {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return threshold, handler
}

// InitVips initializes the libvips library.
// This should be called once at startup; SVG sources cannot be decoded
// without it.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Configure vips logging BEFORE Startup() so LOG_LEVEL is respected
	vipsLevel, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, vipsLevel)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// rasterizeWithVips decodes formats the Go decoders cannot handle (SVG,
// HEIC, TIFF variants) by letting libvips render them to PNG.
func rasterizeWithVips(data []byte) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s image: %dx%d", ref.Format(), ref.Width(), ref.Height())

	out, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

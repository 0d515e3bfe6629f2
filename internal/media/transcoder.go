package media

import (
	"context"
	"time"

	"image-vault/internal/logging"
	"image-vault/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// Options bounds the variants produced for one image.
type Options struct {
	MaxOutputSizeMB         float64
	MaxOutputDimensionPx    int
	ThumbnailMaxDimensionPx int
}

// DefaultOptions returns the stock limits: 1MB and 1920px for the compressed
// variant, 200px for thumbnails.
func DefaultOptions() Options {
	return Options{
		MaxOutputSizeMB:         1,
		MaxOutputDimensionPx:    1920,
		ThumbnailMaxDimensionPx: 200,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxOutputSizeMB <= 0 {
		o.MaxOutputSizeMB = d.MaxOutputSizeMB
	}
	if o.MaxOutputDimensionPx <= 0 {
		o.MaxOutputDimensionPx = d.MaxOutputDimensionPx
	}
	if o.ThumbnailMaxDimensionPx <= 0 {
		o.ThumbnailMaxDimensionPx = d.ThumbnailMaxDimensionPx
	}
	return o
}

func (o Options) maxBytes() int64 {
	return int64(o.MaxOutputSizeMB * 1024 * 1024)
}

// Variant is one encoded rendition.
type Variant struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// DataURL returns the variant as a base64 data URL.
func (v Variant) DataURL() string {
	return EncodeDataURL(v.MimeType, v.Data)
}

// Output is the result of processing one source. Width, Height and
// AspectRatio describe the decoded original.
type Output struct {
	Compressed  Variant
	Thumbnail   Variant
	Width       int
	Height      int
	AspectRatio float64
}

// Transcoder decodes sources and produces their stored variants.
// It holds no state and is safe for concurrent use.
type Transcoder struct{}

// NewTranscoder returns a Transcoder.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// Process decodes src once and encodes the compressed and thumbnail
// variants concurrently. Failure of either encode fails the whole file.
func (t *Transcoder) Process(ctx context.Context, src Source, opts Options) (*Output, error) {
	opts = opts.withDefaults()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	img, err := decode(src)
	metrics.TranscodeDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TranscodeErrors.WithLabelValues("decode").Inc()
		return nil, err
	}

	b := img.Bounds()
	out := &Output{
		Width:       b.Dx(),
		Height:      b.Dy(),
		AspectRatio: float64(b.Dx()) / float64(b.Dy()),
	}
	logging.Debug("Decoded %s: %dx%d", src.Name, out.Width, out.Height)

	mime := src.ContentType()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		v, err := compress(img, mime, opts.MaxOutputDimensionPx, opts.maxBytes())
		metrics.TranscodeDuration.WithLabelValues("compressed").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.TranscodeErrors.WithLabelValues("compressed").Inc()
			return err
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		metrics.TranscodeOutputBytes.WithLabelValues("compressed").Observe(float64(len(v.Data)))
		out.Compressed = v
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		v, err := thumbnail(img, opts.ThumbnailMaxDimensionPx)
		metrics.TranscodeDuration.WithLabelValues("thumbnail").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.TranscodeErrors.WithLabelValues("thumbnail").Inc()
			return err
		}
		metrics.TranscodeOutputBytes.WithLabelValues("thumbnail").Observe(float64(len(v.Data)))
		out.Thumbnail = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.Debug("Transcoded %s: compressed %s (%dx%d), thumbnail %s",
		src.Name, FormatFileSize(int64(len(out.Compressed.Data))),
		out.Compressed.Width, out.Compressed.Height,
		FormatFileSize(int64(len(out.Thumbnail.Data))))

	return out, nil
}

package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"image-vault/internal/mediatypes"

	// Image format decoders
	_ "image/gif"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

// jpegQualities is the descending ladder tried for each bound before the
// bound itself is shrunk.
var jpegQualities = []int{92, 85, 75, 65, 55, 45, 35}

const (
	// ThumbnailQuality is the JPEG quality used for every thumbnail.
	ThumbnailQuality = 80

	// minOutputDimension is the smallest longest-edge the compressor will
	// shrink to before giving up.
	minOutputDimension = 16

	// shrinkFactor is applied to the bound when no quality fits.
	shrinkFactor = 0.75
)

// decode turns source bytes into an image. EXIF orientation is applied.
func decode(src Source) (image.Image, error) {
	mime := src.ContentType()

	var (
		img image.Image
		err error
	)
	if mime == "image/svg+xml" {
		img, err = rasterizeWithVips(src.Data)
	} else {
		img, err = imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
		if err != nil && IsVipsAvailable() {
			img, err = rasterizeWithVips(src.Data)
		}
	}
	if err != nil {
		return nil, &DecodeError{Name: src.Name, Err: err}
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Name: src.Name, Err: fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())}
	}
	return img, nil
}

// keepsTransparency reports whether the compressed output should try PNG
// before JPEG.
func keepsTransparency(mime string) bool {
	switch mime {
	case "image/png", "image/gif", "image/svg+xml":
		return true
	}
	return false
}

// fitWithin scales img so neither edge exceeds bound. Images already within
// bound are returned as is.
func fitWithin(img image.Image, bound int) image.Image {
	b := img.Bounds()
	if b.Dx() <= bound && b.Dy() <= bound {
		return img
	}
	return imaging.Fit(img, bound, bound, imaging.Lanczos)
}

// flatten composites img onto an opaque white background for JPEG output.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// compress produces the size-bounded variant. The longest edge starts at
// min(maxDim, source edge) and shrinks until an encode fits within maxBytes.
// The starting bound is always attempted, so sources smaller than
// minOutputDimension still get one encode.
func compress(img image.Image, srcMime string, maxDim int, maxBytes int64) (Variant, error) {
	bound := maxDim
	b := img.Bounds()
	if longest := max(b.Dx(), b.Dy()); longest < bound {
		bound = longest
	}
	bound = max(bound, 1)

	tryPNG := keepsTransparency(srcMime)

	for {
		scaled := fitWithin(img, bound)
		sb := scaled.Bounds()

		if tryPNG {
			data, err := encodePNG(scaled)
			if err != nil {
				return Variant{}, err
			}
			if int64(len(data)) <= maxBytes {
				return Variant{Data: data, MimeType: mediatypes.MimeTypes[".png"], Width: sb.Dx(), Height: sb.Dy()}, nil
			}
		}

		flat := flatten(scaled)
		for _, q := range jpegQualities {
			data, err := encodeJPEG(flat, q)
			if err != nil {
				return Variant{}, err
			}
			if int64(len(data)) <= maxBytes {
				return Variant{Data: data, MimeType: mediatypes.MimeTypes[".jpg"], Width: sb.Dx(), Height: sb.Dy()}, nil
			}
		}

		next := int(float64(bound) * shrinkFactor)
		if next < minOutputDimension || next >= bound {
			return Variant{}, ErrOutputTooLarge
		}
		bound = next
	}
}

// thumbnail produces the preview variant. It never upscales.
func thumbnail(img image.Image, maxDim int) (Variant, error) {
	thumb := flatten(fitWithin(img, maxDim))
	data, err := encodeJPEG(thumb, ThumbnailQuality)
	if err != nil {
		return Variant{}, err
	}
	tb := thumb.Bounds()
	return Variant{Data: data, MimeType: mediatypes.MimeTypes[".jpg"], Width: tb.Dx(), Height: tb.Dy()}, nil
}

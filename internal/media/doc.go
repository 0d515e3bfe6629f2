// Package media turns user supplied images into the variants the library
// stores.
//
// A Transcoder decodes one Source and produces two independent encodes:
//   - Compressed: bounded by Options.MaxOutputSizeMB and
//     Options.MaxOutputDimensionPx, aspect ratio preserved
//   - Thumbnail: fitted to Options.ThumbnailMaxDimensionPx, JPEG at a fixed
//     quality, never upscaled
//
// Width and height are always taken from the decoded original. Raster formats
// are decoded with the imaging package (plus the x/image WebP and BMP
// decoders); SVG is rasterized by libvips when InitVips has been called.
package media

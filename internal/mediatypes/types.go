package mediatypes

import "strings"

const (
	// MaxFileSize is the largest accepted upload, in bytes (10 MiB).
	MaxFileSize int64 = 10 * 1024 * 1024

	// DefaultMaxFiles is the default number of files accepted in one batch.
	DefaultMaxFiles = 20
)

// AllowedMimeTypes lists the MIME types accepted for upload, in display order.
var AllowedMimeTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

var allowedSet = func() map[string]bool {
	m := make(map[string]bool, len(AllowedMimeTypes))
	for _, t := range AllowedMimeTypes {
		m[t] = true
	}
	return m
}()

// IsAllowedMimeType reports whether mimeType is on the upload allow-list.
// Parameters such as "; charset=utf-8" are ignored.
func IsAllowedMimeType(mimeType string) bool {
	return allowedSet[NormalizeMimeType(mimeType)]
}

// NormalizeMimeType lowercases a MIME type and strips any parameters.
func NormalizeMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// ExtensionFor returns the preferred file extension for a MIME type, or ""
// when the type is unknown.
func ExtensionFor(mimeType string) string {
	switch NormalizeMimeType(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}

// SortField specifies which field to sort by.
type SortField string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByUploadDate sorts results by the time they were stored.
	SortByUploadDate SortField = "uploadDate"
	// SortByName sorts results by the user supplied file name.
	SortByName SortField = "originalName"
	// SortBySize sorts results by compressed size.
	SortBySize SortField = "fileSize"
	// SortByCategory sorts results by category name.
	SortByCategory SortField = "category"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// ParseSortField resolves a user supplied sort key. "fileName" and "name" are
// accepted as aliases for originalName, "date" for uploadDate and "size" for
// fileSize.
func ParseSortField(s string) (SortField, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uploaddate", "date":
		return SortByUploadDate, true
	case "originalname", "filename", "name":
		return SortByName, true
	case "filesize", "size":
		return SortBySize, true
	case "category":
		return SortByCategory, true
	}
	return "", false
}

// ParseSortOrder resolves "asc"/"desc" (case-insensitive).
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAsc, true
	case "desc", "descending":
		return SortDesc, true
	}
	return "", false
}

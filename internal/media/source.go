package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"image-vault/internal/mediatypes"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Source is one user supplied image, held in memory.
type Source struct {
	Name     string
	MimeType string
	Data     []byte
}

// FileName returns the user supplied name.
func (s Source) FileName() string {
	return s.Name
}

// ContentType returns the declared MIME type, or the type sniffed from the
// content when none was declared.
func (s Source) ContentType() string {
	if s.MimeType != "" {
		return mediatypes.NormalizeMimeType(s.MimeType)
	}
	return mediatypes.NormalizeMimeType(mimetype.Detect(s.Data).String())
}

// Size returns the byte length of the source.
func (s Source) Size() int64 {
	return int64(len(s.Data))
}

// ReadFile loads a file from disk. Supported image extensions set the MIME
// type the way a browser file picker assigns it; anything else is left empty
// so ContentType sniffs the bytes.
func ReadFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	src := Source{Name: filepath.Base(path), Data: data}
	if ext := strings.ToLower(filepath.Ext(path)); mediatypes.ImageExtensions[ext] {
		src.MimeType = mediatypes.GetMimeType(ext)
	}
	return src, nil
}

// NewFileName returns a generated storage name of the form
// img_<unix millis>_<9 hex chars>, unrelated to the user supplied name.
func NewFileName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("img_%d_%s", time.Now().UnixMilli(), id[:9])
}

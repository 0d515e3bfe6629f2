package validation

import (
	"errors"
	"fmt"
	"strings"

	"image-vault/internal/mediatypes"
)

var (
	// ErrTooManyFiles is returned when a batch exceeds the per-batch limit.
	ErrTooManyFiles = errors.New("too many files")
	// ErrUnsupportedType is returned for files outside the MIME allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for files over the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// File is the view of an upload candidate the validator needs.
type File interface {
	FileName() string
	ContentType() string
	Size() int64
}

// Error describes why a single file was rejected.
type Error struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Err   error  `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Rejection is returned when a batch is not accepted. Err is set for
// batch-level failures; Invalid lists every file that failed its own checks.
type Rejection struct {
	Err     error
	Invalid []*Error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	parts := make([]string, 0, len(r.Invalid))
	for _, e := range r.Invalid {
		parts = append(parts, e.Error())
	}
	return fmt.Sprintf("%d invalid file(s): %s", len(r.Invalid), strings.Join(parts, "; "))
}

// Unwrap exposes the batch error and every per-file error to errors.Is/As.
func (r *Rejection) Unwrap() []error {
	errs := make([]error, 0, len(r.Invalid)+1)
	if r.Err != nil {
		errs = append(errs, r.Err)
	}
	for _, e := range r.Invalid {
		errs = append(errs, e)
	}
	return errs
}

// Limits bounds a batch.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

// DefaultLimits returns the 20-file, 10 MiB limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:    mediatypes.DefaultMaxFiles,
		MaxFileSize: mediatypes.MaxFileSize,
	}
}

// Validate checks a batch against the default per-file size limit and
// maxFiles. A maxFiles of 0 disables the count check. It returns nil when
// the batch is accepted and a *Rejection otherwise.
func Validate(files []File, maxFiles int) error {
	limits := DefaultLimits()
	limits.MaxFiles = maxFiles
	return ValidateWithLimits(files, limits)
}

// ValidateWithLimits is Validate with an explicit size limit.
func ValidateWithLimits(files []File, limits Limits) error {
	if limits.MaxFiles > 0 && len(files) > limits.MaxFiles {
		return &Rejection{
			Err: fmt.Errorf("%w: at most %d files can be uploaded at once", ErrTooManyFiles, limits.MaxFiles),
		}
	}

	var invalid []*Error
	for i, f := range files {
		if err := ValidateFile(f, limits.MaxFileSize); err != nil {
			invalid = append(invalid, &Error{Index: i, Name: f.FileName(), Err: err})
		}
	}

	if len(invalid) > 0 {
		return &Rejection{Invalid: invalid}
	}
	return nil
}

// ValidateFile checks one file's type and size.
func ValidateFile(f File, maxSize int64) error {
	if !mediatypes.IsAllowedMimeType(f.ContentType()) {
		return fmt.Errorf("%w %q: supported types are %s",
			ErrUnsupportedType, f.ContentType(), strings.Join(mediatypes.AllowedMimeTypes, ", "))
	}

	if maxSize > 0 && f.Size() > maxSize {
		return fmt.Errorf("%w: maximum size is %dMB", ErrFileTooLarge, maxSize/(1024*1024))
	}

	return nil
}

package media

import (
	"errors"
	"fmt"
)

// ErrOutputTooLarge is returned when no encode of the image fits the
// configured size ceiling.
var ErrOutputTooLarge = errors.New("image cannot be compressed below the size limit")

// DecodeError reports a source that could not be decoded.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

package bin2tif

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOddDimensions is returned when a capture's declared shape cannot tile
// the 2x2 Bayer pattern.
var ErrOddDimensions = errors.New("image dimensions must be even")

// MetadataError reports a required metadata key that is missing or cannot
// be coerced to the expected type.
type MetadataError struct {
	Key string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata %q: %v", e.Key, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// FieldOfViewError reports a field-of-view string that does not hold
// exactly two numeric tokens.
type FieldOfViewError struct {
	Value string
	Err   error
}

func (e *FieldOfViewError) Error() string {
	return fmt.Sprintf("field of view %q: %v", e.Value, e.Err)
}

func (e *FieldOfViewError) Unwrap() error { return e.Err }

// ShapeMismatchError reports raw data whose byte count differs from
// Height*Width.
type ShapeMismatchError struct {
	Got    int
	Height int
	Width  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("cannot reshape %d bytes into %dx%d", e.Got, e.Height, e.Width)
}

// WriteError wraps a failure from the raster writer.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

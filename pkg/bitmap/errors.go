package bitmap

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature  = errors.New("bitmap: invalid image signature")
	ErrUnsupportedFormat = errors.New("bitmap: unsupported pixel format")
	ErrMalformedInput    = errors.New("bitmap: malformed input")
)

var (
	// ErrRowPadding means the row size implies padding, which no known
	// firmware produces.
	ErrRowPadding  = fmt.Errorf("%w: row size implies padding", ErrUnsupportedFormat)
	ErrTruncated   = fmt.Errorf("%w: truncated image data", ErrMalformedInput)
	ErrBadPalette  = fmt.Errorf("%w: palette index out of range", ErrMalformedInput)
	ErrPixelBuffer = errors.New("bitmap: pixel buffer does not match dimensions")
)

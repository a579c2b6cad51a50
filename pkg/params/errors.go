package params

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedInput is the root of every decoding failure in this package.
var ErrMalformedInput = errors.New("malformed input")

var (
	ErrTruncatedVarInt       = fmt.Errorf("%w: truncated varint", ErrMalformedInput)
	ErrInvalidKey            = fmt.Errorf("%w: invalid field id", ErrMalformedInput)
	ErrInvalidChildrenSize   = fmt.Errorf("%w: invalid children size", ErrMalformedInput)
	ErrChildrenOutOfBounds   = fmt.Errorf("%w: children exceed parent bounds", ErrMalformedInput)
	errUnsupportedNestedList = errors.New("params: list elements cannot be lists")
)

// DecodeError reports where in the input a tree failed to decode.
// Offset is absolute within the slice handed to DecodeTree.
type DecodeError struct {
	Offset int
	Field  FieldID
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("params: ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(ErrMalformedInput.Error())
	}
	fmt.Fprintf(&b, " at offset %d", e.Offset)
	if e.Field != 0 {
		fmt.Fprintf(&b, " (field %d)", e.Field)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(offset int, field FieldID, err error) *DecodeError {
	return &DecodeError{
		Offset: offset,
		Field:  field,
		Err:    err,
	}
}

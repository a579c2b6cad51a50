package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema covers malformed schema documents and values that do not fit
	// the shape the schema declares.
	ErrSchema = errors.New("schema error")

	// ErrUnknownField is returned when encoding a name the schema does not
	// define. Decoding never fails on unknown ids.
	ErrUnknownField = errors.New("unknown field")
)

var (
	ErrUnknownType  = fmt.Errorf("%w: unknown type", ErrSchema)
	ErrInvalidKey   = fmt.Errorf("%w: invalid description key", ErrSchema)
	ErrTypeMismatch = fmt.Errorf("%w: value does not match declared type", ErrSchema)
	ErrInvalidValue = fmt.Errorf("%w: invalid value", ErrSchema)
)

// PathError attaches the dotted field path to a conversion failure.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return "schema: " + e.Err.Error()
	}
	return "schema: " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(path string, err error) error {
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Path: path, Err: err}
}

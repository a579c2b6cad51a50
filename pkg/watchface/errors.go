package watchface

import (
	"errors"
	"fmt"

	"github.com/samcharles93/watchface/pkg/params"
)

var (
	// ErrMalformedInput is shared with the parameter codec so a single
	// errors.Is check covers every structural decoding failure.
	ErrMalformedInput = params.ErrMalformedInput

	ErrInvalidSignature = errors.New("invalid watch face signature")
	ErrInvalidStructure = errors.New("invalid file structure")
	ErrInvalidGroup     = errors.New("invalid parameter group")
	ErrNoSchema         = errors.New("codec has no schema")
)

var (
	ErrTruncated   = fmt.Errorf("%w: truncated container", ErrMalformedInput)
	ErrOutOfBounds = fmt.Errorf("%w: section out of bounds", ErrMalformedInput)
	ErrBadInfo     = fmt.Errorf("%w: bad parameter info", ErrMalformedInput)
)

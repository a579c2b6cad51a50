package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/watchface/internal/catalog"
	"github.com/samcharles93/watchface/pkg/bitmap"
	"github.com/samcharles93/watchface/pkg/schema"
	"github.com/samcharles93/watchface/pkg/watchface"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeCodecError maps codec failures to status codes.
func writeCodecError(c *echo.Context, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", err.Error(), "", "body_too_large")
	case errors.Is(err, catalog.ErrUnknownModel):
		return writeError(c, http.StatusNotFound, "not_found_error", err.Error(), "model", "unknown_model")
	case errors.Is(err, watchface.ErrInvalidSignature):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_container_error", err.Error(), "", "invalid_signature")
	case errors.Is(err, watchface.ErrMalformedInput), errors.Is(err, bitmap.ErrMalformedInput), errors.Is(err, bitmap.ErrInvalidSignature):
		return writeError(c, http.StatusUnprocessableEntity, "invalid_container_error", err.Error(), "", "malformed_input")
	case errors.Is(err, schema.ErrSchema), errors.Is(err, schema.ErrUnknownField), errors.Is(err, ErrInvalidRequest), errors.Is(err, watchface.ErrInvalidGroup),
		errors.Is(err, bitmap.ErrUnsupportedFormat), errors.Is(err, bitmap.ErrPixelBuffer):
		return writeBadRequest(c, err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}

// decodeJSON keeps untyped numbers as json.Number so parameter values are
// not rounded through float64.
func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// limitBody caps the request body at n bytes; n <= 0 disables the cap.
func limitBody(c *echo.Context, n int64) io.Reader {
	if n <= 0 {
		return c.Request().Body
	}
	return http.MaxBytesReader(c.Response(), c.Request().Body, n)
}

func newDecodeID() string {
	return "wfd_" + uuid.NewString()
}

func newEncodeID() string {
	return "wfe_" + uuid.NewString()
}

package api

import "github.com/samcharles93/watchface/internal/catalog"

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// DecodeResponse is the body returned by POST /v1/decode.
type DecodeResponse struct {
	ID         string         `json:"id"`
	Object     string         `json:"object"`
	Model      string         `json:"model"`
	Parameters map[string]any `json:"parameters"`
	Images     []DecodedImage `json:"images"`
}

type DecodedImage struct {
	Index        int    `json:"index"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitsPerPixel int    `json:"bitsPerPixel"`
	PixelFormat  string `json:"pixelFormat"`
	PNG          []byte `json:"png"`
}

// EncodeRequest is the body accepted by POST /v1/encode.
type EncodeRequest struct {
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters"`
	Images     []ImagePayload `json:"images,omitempty"`

	// Output variant; zero values select 24 bpp BGR565.
	BitsPerPixel int    `json:"bitsPerPixel,omitempty"`
	PixelFormat  string `json:"pixelFormat,omitempty"`
	// Fit shrinks images larger than the model screen.
	Fit bool `json:"fit,omitempty"`
}

// ImagePayload carries either an encoded image file or raw RGBA pixels.
type ImagePayload struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	PNG    []byte `json:"png,omitempty"`
	RGBA   []byte `json:"rgba,omitempty"`
}

type ModelInfo struct {
	ID            string          `json:"id"`
	Object        string          `json:"object"`
	Description   string          `json:"description,omitempty"`
	HeaderSize    int             `json:"headerSize"`
	SignatureSize int             `json:"signatureSize"`
	Screen        *catalog.Screen `json:"screen,omitempty"`
	Default       bool            `json:"default,omitempty"`
}

type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// Package api serves the watch face codec over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/watchface/internal/catalog"
	"github.com/samcharles93/watchface/internal/imageio"
	"github.com/samcharles93/watchface/internal/logger"
	"github.com/samcharles93/watchface/pkg/bitmap"
	"github.com/samcharles93/watchface/pkg/watchface"
)

// DefaultMaxBodyBytes bounds request bodies when the config does not.
const DefaultMaxBodyBytes = 32 << 20

type ServerConfig struct {
	Registry     *catalog.Registry
	Logger       logger.Logger
	MaxBodyBytes int64
}

// Server handles decode and encode requests. Codecs come from the registry
// and are shared between concurrent requests.
type Server struct {
	reg     *catalog.Registry
	log     logger.Logger
	maxBody int64
}

func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody == 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Server{reg: cfg.Registry, log: log, maxBody: maxBody}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/models", s.handleListModels)
	e.POST("/v1/decode", s.handleDecode)
	e.POST("/v1/encode", s.handleEncode)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListModels(c *echo.Context) error {
	if s.reg == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "model registry not configured", "", "")
	}
	cat := s.reg.Catalog()
	def, _ := cat.Lookup("")
	data := make([]ModelInfo, 0, len(cat.Models))
	for _, m := range cat.Models {
		data = append(data, ModelInfo{
			ID:            m.Name,
			Object:        "model",
			Description:   m.Description,
			HeaderSize:    len(m.Header),
			SignatureSize: m.SignatureSize,
			Screen:        m.Screen,
			Default:       m.Name == def.Name,
		})
	}
	return c.JSON(http.StatusOK, ModelList{Object: "list", Data: data})
}

func (s *Server) handleDecode(c *echo.Context) error {
	if s.reg == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "model registry not configured", "", "")
	}
	codec, model, err := s.reg.Codec(c.QueryParam("model"))
	if err != nil {
		return writeCodecError(c, err)
	}
	body, err := io.ReadAll(limitBody(c, s.maxBody))
	if err != nil {
		return writeCodecError(c, err)
	}
	if len(body) == 0 {
		return writeBadRequest(c, "empty body")
	}

	ct, err := codec.Decode(body)
	if err != nil {
		s.log.Debug("decode failed", "model", model.Name, "size", len(body), "error", err)
		return writeCodecError(c, err)
	}
	resp := DecodeResponse{
		ID:         newDecodeID(),
		Object:     "watchface.decode",
		Model:      model.Name,
		Parameters: ct.Parameters,
		Images:     make([]DecodedImage, len(ct.Images)),
	}
	for i, img := range ct.Images {
		var buf bytes.Buffer
		if err := imageio.WritePNG(&buf, img); err != nil {
			return writeCodecError(c, fmt.Errorf("image %d: %w", i, err))
		}
		resp.Images[i] = DecodedImage{
			Index:        i,
			Width:        int(img.Width),
			Height:       int(img.Height),
			BitsPerPixel: int(img.BitsPerPixel),
			PixelFormat:  fmt.Sprintf("0x%02X", uint16(img.PixelFormat)),
			PNG:          buf.Bytes(),
		}
	}
	s.log.Info("decoded watch face", "id", resp.ID, "model", model.Name, "size", len(body), "images", len(ct.Images))
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEncode(c *echo.Context) error {
	if s.reg == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "model registry not configured", "", "")
	}
	req, err := decodeJSON[EncodeRequest](limitBody(c, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return writeCodecError(c, err)
		}
		return writeBadRequest(c, err.Error())
	}
	if req.Parameters == nil {
		return writeBadRequest(c, "parameters is required")
	}
	codec, model, err := s.reg.Codec(req.Model)
	if err != nil {
		return writeCodecError(c, err)
	}

	if req.BitsPerPixel != 0 || req.PixelFormat != "" {
		opts := bitmap.EncodeOptions{BitsPerPixel: uint16(req.BitsPerPixel)}
		if req.BitsPerPixel < 0 || req.BitsPerPixel > 32 {
			return writeBadRequest(c, "bitsPerPixel out of range")
		}
		if req.PixelFormat != "" {
			f, err := bitmap.ParsePixelFormat(req.PixelFormat)
			if err != nil {
				return writeBadRequest(c, err.Error())
			}
			opts.PixelFormat = f
		}
		codec = codec.With(watchface.WithImageOptions(opts))
	}

	var fit imageio.Size
	if req.Fit {
		if model.Screen == nil {
			return writeBadRequest(c, fmt.Sprintf("model %q has no screen size to fit to", model.Name))
		}
		fit = imageio.Size{Width: model.Screen.Width, Height: model.Screen.Height}
	}
	images := make([]*bitmap.Image, len(req.Images))
	for i, p := range req.Images {
		img, err := payloadImage(p, imageio.Options{FitTo: fit})
		if err != nil {
			return writeBadRequest(c, fmt.Sprintf("images[%d]: %v", i, err))
		}
		images[i] = img
	}

	out, err := codec.Encode(&watchface.Container{Parameters: req.Parameters, Images: images})
	if err != nil {
		return writeCodecError(c, err)
	}
	id := newEncodeID()
	s.log.Info("encoded watch face", "id", id, "model", model.Name, "size", len(out), "images", len(images))
	h := c.Response().Header()
	h.Set("X-Request-Id", id)
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", model.Name+".bin"))
	h.Set(echo.HeaderContentLength, strconv.Itoa(len(out)))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, out)
}

func payloadImage(p ImagePayload, opts imageio.Options) (*bitmap.Image, error) {
	switch {
	case len(p.PNG) > 0 && len(p.RGBA) > 0:
		return nil, newInvalidRequest("png and rgba are mutually exclusive")
	case len(p.PNG) > 0:
		return imageio.Read(bytes.NewReader(p.PNG), opts)
	case len(p.RGBA) > 0:
		if p.Width <= 0 || p.Height <= 0 || p.Width > 0xFFFF || p.Height > 0xFFFF {
			return nil, newInvalidRequest("invalid size %dx%d", p.Width, p.Height)
		}
		if len(p.RGBA) != 4*p.Width*p.Height {
			return nil, newInvalidRequest("rgba has %d bytes, want %d", len(p.RGBA), 4*p.Width*p.Height)
		}
		img := &bitmap.Image{Width: uint16(p.Width), Height: uint16(p.Height), Pixels: p.RGBA}
		if opts.FitTo.Width > 0 {
			fitted := imageio.Fit(img.ToNRGBA(), opts.FitTo)
			return bitmap.FromImage(fitted)
		}
		return img, nil
	default:
		return nil, newInvalidRequest("png or rgba is required")
	}
}

// Package bitmap implements the raster format embedded in watch face files.
//
// Every image starts with a 16 byte little-endian header:
//
//	[0]  signature "BM"
//	[2]  pixel format
//	[4]  width
//	[6]  height
//	[8]  row size in bytes
//	[10] bits per pixel
//	[12] palette color count
//	[14] transparent palette index (1-based, 0 = none)
//
// followed by the palette (4 bytes per color) and the pixel data. Rows are
// never padded. Alpha is stored inverted on the wire: 0x00 is opaque.
package bitmap

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"
)

const HeaderSize = 16

const paletteEntrySize = 4

var Signature = [2]byte{'B', 'M'}

// PixelFormat selects how color words are unpacked.
type PixelFormat uint16

const (
	FormatBGR565   PixelFormat = 0x1B // written by default
	FormatBGR565A  PixelFormat = 0x08
	FormatBGR565B  PixelFormat = 0x10
	FormatRGB565   PixelFormat = 0x1C
	FormatRGB565A  PixelFormat = 0x09
	FormatABGR4444 PixelFormat = 0x13
	FormatPalette  PixelFormat = 0x64
)

func (f PixelFormat) String() string {
	var layout string
	switch f {
	case FormatBGR565, FormatBGR565A, FormatBGR565B:
		layout = "bgr565"
	case FormatRGB565, FormatRGB565A:
		layout = "rgb565"
	case FormatABGR4444:
		layout = "abgr4444"
	case FormatPalette:
		layout = "palette"
	default:
		layout = "unknown"
	}
	return fmt.Sprintf("0x%02X (%s)", uint16(f), layout)
}

// ParsePixelFormat parses a numeric format code such as "0x1B" or "27" and
// checks that Decode understands it.
func ParsePixelFormat(s string) (PixelFormat, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	f := PixelFormat(v)
	if !f.direct() && f != FormatPalette {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return f, nil
}

func (f PixelFormat) direct() bool {
	switch f {
	case FormatBGR565, FormatBGR565A, FormatBGR565B, FormatRGB565, FormatRGB565A, FormatABGR4444:
		return true
	}
	return false
}

// Header is the fixed image header.
type Header struct {
	Signature        [2]byte
	PixelFormat      PixelFormat
	Width            uint16
	Height           uint16
	RowSize          uint16
	BitsPerPixel     uint16
	PaletteColors    uint16
	TransparentIndex uint16
}

// ParseHeader reads and validates the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(b))
	}
	h = decodeHeader(b)
	if h.Signature != Signature {
		return h, fmt.Errorf("%w: got %x", ErrInvalidSignature, h.Signature[:])
	}
	if err := h.Validate(); err != nil {
		return h, err
	}
	return h, nil
}

// Validate checks the depth/palette/format combination and the row size.
func (h Header) Validate() error {
	switch h.BitsPerPixel {
	case 16, 24, 32:
		if h.PaletteColors != 0 || !h.PixelFormat.direct() {
			return h.unsupported()
		}
	case 4, 8:
		if h.PaletteColors == 0 || h.PixelFormat != FormatPalette {
			return h.unsupported()
		}
	default:
		return h.unsupported()
	}

	bits := int(h.BitsPerPixel) * int(h.Width)
	if bits%8 != 0 || bits/8 != int(h.RowSize) {
		return fmt.Errorf("%w: row size %d for %d pixels at %d bpp", ErrRowPadding, h.RowSize, h.Width, h.BitsPerPixel)
	}
	return nil
}

func (h Header) unsupported() error {
	return fmt.Errorf("%w: format %s, %d bpp, %d palette colors", ErrUnsupportedFormat, h.PixelFormat, h.BitsPerPixel, h.PaletteColors)
}

// Size is the number of bytes the image occupies, header included.
func (h Header) Size() int {
	return HeaderSize + int(h.PaletteColors)*paletteEntrySize + int(h.RowSize)*int(h.Height)
}

func decodeHeader(b []byte) Header {
	return Header{
		Signature:        [2]byte{b[0], b[1]},
		PixelFormat:      PixelFormat(binary.LittleEndian.Uint16(b[2:4])),
		Width:            binary.LittleEndian.Uint16(b[4:6]),
		Height:           binary.LittleEndian.Uint16(b[6:8]),
		RowSize:          binary.LittleEndian.Uint16(b[8:10]),
		BitsPerPixel:     binary.LittleEndian.Uint16(b[10:12]),
		PaletteColors:    binary.LittleEndian.Uint16(b[12:14]),
		TransparentIndex: binary.LittleEndian.Uint16(b[14:16]),
	}
}

func encodeHeader(dst []byte, h Header) {
	dst[0], dst[1] = h.Signature[0], h.Signature[1]
	binary.LittleEndian.PutUint16(dst[2:4], uint16(h.PixelFormat))
	binary.LittleEndian.PutUint16(dst[4:6], h.Width)
	binary.LittleEndian.PutUint16(dst[6:8], h.Height)
	binary.LittleEndian.PutUint16(dst[8:10], h.RowSize)
	binary.LittleEndian.PutUint16(dst[10:12], h.BitsPerPixel)
	binary.LittleEndian.PutUint16(dst[12:14], h.PaletteColors)
	binary.LittleEndian.PutUint16(dst[14:16], h.TransparentIndex)
}

// Image is a decoded bitmap. Pixels are row-major RGBA, 4 bytes per pixel,
// with conventional alpha (0xFF opaque).
type Image struct {
	Width  uint16
	Height uint16
	Pixels []byte

	// Source depth and format as found on the wire. Zero for images that were
	// not decoded from a bitmap.
	BitsPerPixel uint16
	PixelFormat  PixelFormat
}

// New allocates a transparent image of the given size.
func New(width, height uint16) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]byte, 4*int(width)*int(height)),
	}
}

func (img *Image) checkPixels() error {
	if want := 4 * int(img.Width) * int(img.Height); len(img.Pixels) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%d", ErrPixelBuffer, len(img.Pixels), want, img.Width, img.Height)
	}
	return nil
}

// ToNRGBA exposes the pixels as an image.NRGBA. The pixel buffer is copied.
func (img *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, int(img.Width), int(img.Height)))
	copy(out.Pix, img.Pixels)
	return out
}

// FromNRGBA copies src into a new Image. Bounds larger than 65535 in either
// dimension are rejected.
func FromNRGBA(src *image.NRGBA) (*Image, error) {
	r := src.Bounds()
	if r.Dx() > 0xFFFF || r.Dy() > 0xFFFF {
		return nil, fmt.Errorf("bitmap: image %dx%d exceeds 65535x65535", r.Dx(), r.Dy())
	}
	img := New(uint16(r.Dx()), uint16(r.Dy()))
	rowLen := 4 * r.Dx()
	for y := 0; y < r.Dy(); y++ {
		start := src.PixOffset(r.Min.X, r.Min.Y+y)
		copy(img.Pixels[y*rowLen:(y+1)*rowLen], src.Pix[start:start+rowLen])
	}
	return img, nil
}

// FromImage converts any image to an Image with non-premultiplied alpha.
func FromImage(src image.Image) (*Image, error) {
	if n, ok := src.(*image.NRGBA); ok {
		return FromNRGBA(n)
	}
	r := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return FromNRGBA(dst)
}

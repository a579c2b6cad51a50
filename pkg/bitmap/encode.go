package bitmap

import (
	"encoding/binary"
	"fmt"
)

// EncodeOptions selects the wire variant. The zero value is the default
// variant written by Encode: 24 bpp, FormatBGR565.
type EncodeOptions struct {
	BitsPerPixel uint16
	PixelFormat  PixelFormat
}

func (o EncodeOptions) withDefaults() EncodeOptions {
	if o.PixelFormat == 0 {
		if o.BitsPerPixel == 4 || o.BitsPerPixel == 8 {
			o.PixelFormat = FormatPalette
		} else {
			o.PixelFormat = FormatBGR565
		}
	}
	if o.BitsPerPixel == 0 {
		if o.PixelFormat == FormatPalette {
			o.BitsPerPixel = 8
		} else {
			o.BitsPerPixel = 24
		}
	}
	return o
}

// Encode writes img as a 24 bpp image: one inverted alpha byte followed by a
// big-endian 5:6:5 BGR word per pixel.
func Encode(img *Image) ([]byte, error) {
	return EncodeWithOptions(img, EncodeOptions{})
}

// SourceOptions returns options that reproduce the variant img was decoded
// from, or the defaults when img did not come from a bitmap.
func SourceOptions(img *Image) EncodeOptions {
	return EncodeOptions{BitsPerPixel: img.BitsPerPixel, PixelFormat: img.PixelFormat}.withDefaults()
}

// EncodeWithOptions writes img in any variant Decode accepts. Paletted output
// requires at most 256 (8 bpp) or 16 (4 bpp) distinct colors and alpha values
// of either 0x00 or 0xFF; all fully transparent pixels share one palette slot.
func EncodeWithOptions(img *Image, opts EncodeOptions) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrPixelBuffer)
	}
	if err := img.checkPixels(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	rowBits := int(opts.BitsPerPixel) * int(img.Width)
	if rowBits/8 > 0xFFFF {
		return nil, fmt.Errorf("%w: row of %d pixels too wide for %d bpp", ErrUnsupportedFormat, img.Width, opts.BitsPerPixel)
	}
	h := Header{
		Signature:    Signature,
		PixelFormat:  opts.PixelFormat,
		Width:        img.Width,
		Height:       img.Height,
		RowSize:      uint16(rowBits / 8),
		BitsPerPixel: opts.BitsPerPixel,
	}

	if opts.PixelFormat == FormatPalette {
		return encodePaletted(img, h)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, h.Size())
	encodeHeader(out, h)
	encodeDirect(out[HeaderSize:], img.Pixels, h)
	return out, nil
}

func encodeDirect(dst, pixels []byte, h Header) {
	bpp := int(h.BitsPerPixel) / 8
	for i := 0; i < len(pixels)/4; i++ {
		p := pixels[i*4 : i*4+4]
		c := rgba{r: p[0], g: p[1], b: p[2], a: 0xFF - p[3]}
		px := dst[i*bpp : (i+1)*bpp]
		switch bpp {
		case 4:
			px[0], px[1], px[2], px[3] = c.r, c.g, c.b, c.a
		case 3:
			px[0] = c.a
			binary.BigEndian.PutUint16(px[1:3], packWord(c, h.PixelFormat))
		default:
			binary.LittleEndian.PutUint16(px[0:2], packWord(c, h.PixelFormat))
		}
	}
}

// packWord is the inverse of unpackWord; low bits of each channel are dropped.
func packWord(c rgba, f PixelFormat) uint16 {
	switch f {
	case FormatABGR4444:
		return uint16(c.a&0xF0)<<8 | uint16(c.b&0xF0)<<4 | uint16(c.g&0xF0) | uint16(c.r&0xF0)>>4
	case FormatRGB565, FormatRGB565A:
		return uint16(c.r&0xF8)<<8 | uint16(c.g&0xFC)<<3 | uint16(c.b&0xF8)>>3
	default:
		return uint16(c.b&0xF8)<<8 | uint16(c.g&0xFC)<<3 | uint16(c.r&0xF8)>>3
	}
}

func encodePaletted(img *Image, h Header) ([]byte, error) {
	maxColors := 1 << h.BitsPerPixel
	if h.BitsPerPixel != 4 && h.BitsPerPixel != 8 {
		return nil, h.unsupported()
	}

	n := len(img.Pixels) / 4
	indices := make([]uint8, n)
	var palette []rgba
	slots := make(map[rgba]int)
	transparent := -1
	for i := 0; i < n; i++ {
		p := img.Pixels[i*4 : i*4+4]
		var slot int
		switch p[3] {
		case 0x00:
			if transparent < 0 {
				transparent = len(palette)
				palette = append(palette, rgba{r: p[0], g: p[1], b: p[2], a: 0xFF})
			}
			slot = transparent
		case 0xFF:
			key := rgba{r: p[0], g: p[1], b: p[2]}
			s, ok := slots[key]
			if !ok {
				s = len(palette)
				slots[key] = s
				palette = append(palette, key)
			}
			slot = s
		default:
			return nil, fmt.Errorf("%w: pixel %d has partial alpha 0x%02X, palette images need binary alpha", ErrUnsupportedFormat, i, p[3])
		}
		if slot >= maxColors {
			return nil, fmt.Errorf("%w: more than %d colors for %d bpp palette", ErrUnsupportedFormat, maxColors, h.BitsPerPixel)
		}
		indices[i] = uint8(slot)
	}
	if len(palette) == 0 {
		palette = append(palette, rgba{})
	}

	h.PaletteColors = uint16(len(palette))
	if transparent >= 0 {
		h.TransparentIndex = uint16(transparent + 1)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, h.Size())
	encodeHeader(out, h)
	pal := out[HeaderSize:]
	for i, c := range palette {
		e := pal[i*paletteEntrySize:]
		e[0], e[1], e[2] = c.r, c.g, c.b
	}
	data := pal[len(palette)*paletteEntrySize:]
	for i, idx := range indices {
		if h.BitsPerPixel == 8 {
			data[i] = idx
			continue
		}
		if i%2 == 0 {
			data[i/2] = idx << 4
		} else {
			data[i/2] |= idx & 0x0F
		}
	}
	return out, nil
}

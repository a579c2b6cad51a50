package bitmap

import (
	"encoding/binary"
	"fmt"
)

type rgba struct {
	r, g, b, a uint8
}

// Decode parses one image from the start of b. Bytes after the image are
// ignored, so b may extend to the end of the containing file.
func Decode(b []byte) (*Image, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if len(b) < h.Size() {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, h.Size(), len(b))
	}

	img := &Image{
		Width:        h.Width,
		Height:       h.Height,
		Pixels:       make([]byte, 4*int(h.Width)*int(h.Height)),
		BitsPerPixel: h.BitsPerPixel,
		PixelFormat:  h.PixelFormat,
	}

	data := b[HeaderSize:h.Size()]
	if h.PaletteColors > 0 {
		palette := readPalette(data, h)
		err = decodePaletted(img.Pixels, data[len(palette)*paletteEntrySize:], palette, h.BitsPerPixel)
	} else {
		decodeDirect(img.Pixels, data, h)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// readPalette returns the palette with wire alpha: exactly the slot named by
// the transparent index is flagged 0xFF.
func readPalette(data []byte, h Header) []rgba {
	palette := make([]rgba, h.PaletteColors)
	for i := range palette {
		e := data[i*paletteEntrySize:]
		palette[i] = rgba{r: e[0], g: e[1], b: e[2]}
		if i == int(h.TransparentIndex)-1 {
			palette[i].a = 0xFF
		}
	}
	return palette
}

func decodePaletted(dst, data []byte, palette []rgba, bpp uint16) error {
	n := len(dst) / 4
	for i := 0; i < n; i++ {
		var idx int
		if bpp == 4 {
			c := data[i/2]
			if i%2 == 0 {
				idx = int(c >> 4)
			} else {
				idx = int(c & 0x0F)
			}
		} else {
			idx = int(data[i])
		}
		if idx >= len(palette) {
			return fmt.Errorf("%w: pixel %d uses color %d of %d", ErrBadPalette, i, idx, len(palette))
		}
		putPixel(dst, i, palette[idx])
	}
	return nil
}

func decodeDirect(dst, data []byte, h Header) {
	bpp := int(h.BitsPerPixel) / 8
	n := len(dst) / 4
	for i := 0; i < n; i++ {
		px := data[i*bpp : (i+1)*bpp]
		var c rgba
		switch bpp {
		case 4:
			c = rgba{r: px[0], g: px[1], b: px[2], a: px[3]}
		case 3:
			// alpha byte, then a big-endian color word
			c = unpackWord(binary.BigEndian.Uint16(px[1:3]), h.PixelFormat)
			if h.PixelFormat != FormatABGR4444 {
				c.a = px[0]
			}
		default:
			c = unpackWord(binary.LittleEndian.Uint16(px[0:2]), h.PixelFormat)
		}
		putPixel(dst, i, c)
	}
}

// unpackWord expands a 16-bit color word. Alpha is only present in 4:4:4:4
// words; the other layouts leave it at zero (opaque once inverted).
func unpackWord(w uint16, f PixelFormat) rgba {
	switch f {
	case FormatABGR4444:
		return rgba{
			a: uint8((w & 0xF000) >> 8),
			b: uint8((w & 0x0F00) >> 4),
			g: uint8(w & 0x00F0),
			r: uint8((w & 0x000F) << 4),
		}
	case FormatRGB565, FormatRGB565A:
		return rgba{
			r: uint8((w & 0xF800) >> 8),
			g: uint8((w & 0x07E0) >> 3),
			b: uint8((w & 0x001F) << 3),
		}
	default:
		return rgba{
			b: uint8((w & 0xF800) >> 8),
			g: uint8((w & 0x07E0) >> 3),
			r: uint8((w & 0x001F) << 3),
		}
	}
}

func putPixel(dst []byte, i int, c rgba) {
	p := dst[i*4 : i*4+4]
	p[0] = c.r
	p[1] = c.g
	p[2] = c.b
	p[3] = 0xFF - c.a
}

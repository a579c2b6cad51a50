package watchface

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/samcharles93/watchface/pkg/bitmap"
	"github.com/samcharles93/watchface/pkg/params"
	"github.com/samcharles93/watchface/pkg/schema"
)

const testSchema = `{
	"parameters": {"2:Background": {"1:Image": "Image"}, "3:Time": {"1:Hours": "Image"}},
	"types": {"Image": {"1:X": "int", "2:Y": "int", "3:ImageIndex": "imgid"}}
}`

var (
	// {1: {1: 8, 2: 0}, 2: {1: 0, 2: 8}}
	minimalInfo = []byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x00, 0x12, 0x04, 0x08, 0x00, 0x10, 0x08}
	// {1: {1: 0, 2: 0, 3: 0}}
	minimalBlock = []byte{0x0A, 0x06, 0x08, 0x00, 0x10, 0x00, 0x18, 0x00}
)

func minimalFile() []byte {
	hdr := bytes.Clone(ReferenceHeader)
	binary.LittleEndian.PutUint32(hdr[len(hdr)-8:], uint32(len(minimalBlock)))
	binary.LittleEndian.PutUint32(hdr[len(hdr)-4:], uint32(len(minimalInfo)))
	buf := append(hdr, minimalInfo...)
	return append(buf, minimalBlock...)
}

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	doc, err := schema.Parse([]byte(testSchema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	tr, err := schema.New(doc)
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	c, err := NewCodec(ReferenceStructure(), tr, opts...)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestDecodeMinimalContainer(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	ct, err := c.Decode(minimalFile())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"Background": map[string]any{
			"Image": map[string]any{"X": int64(0), "Y": int64(0), "ImageIndex": int64(0)},
		},
	}
	if !reflect.DeepEqual(ct.Parameters, want) {
		t.Fatalf("parameters mismatch: got %#v want %#v", ct.Parameters, want)
	}
	if len(ct.Images) != 0 {
		t.Fatalf("images: got %d want 0", len(ct.Images))
	}

	out, err := c.Encode(ct)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(out, minimalFile()) {
		t.Fatalf("re-encode mismatch:\ngot  % X\nwant % X", out, minimalFile())
	}
}

func TestDecodeRawLayout(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	raw, err := c.DecodeRaw(minimalFile())
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if raw.MaxParameterSize != uint32(len(minimalBlock)) {
		t.Fatalf("max parameter size: got %d want %d", raw.MaxParameterSize, len(minimalBlock))
	}
	if !bytes.Equal(raw.Header[:4], []byte("UIHH")) {
		t.Fatalf("header: got % X", raw.Header[:4])
	}
	lay := raw.Layout
	if lay.ParameterInfoOffset != len(ReferenceHeader) || lay.ParameterInfoSize != len(minimalInfo) {
		t.Fatalf("info section: got %d+%d", lay.ParameterInfoOffset, lay.ParameterInfoSize)
	}
	if lay.ParameterSize != len(minimalBlock) {
		t.Fatalf("parameter size: got %d want %d", lay.ParameterSize, len(minimalBlock))
	}
	wantSpans := []GroupSpan{{ID: 2, Offset: 0, Size: len(minimalBlock)}}
	if !reflect.DeepEqual(lay.Groups, wantSpans) {
		t.Fatalf("group spans: got %+v want %+v", lay.Groups, wantSpans)
	}
	want := params.Tree{2: params.Nested(params.Tree{
		1: params.Nested(params.Tree{1: params.Scalar(0), 2: params.Scalar(0), 3: params.Scalar(0)}),
	})}
	if !raw.Groups.Equal(want) {
		t.Fatalf("groups: got %v want %v", raw.Groups, want)
	}
}

func testImage(w, h uint16, seed byte) *bitmap.Image {
	img := bitmap.New(w, h)
	for i := 0; i < len(img.Pixels); i += 4 {
		// channel values that survive 5:6:5 quantization
		img.Pixels[i] = (seed + byte(i)) & 0xF8
		img.Pixels[i+1] = (seed * 3) & 0xFC
		img.Pixels[i+2] = byte(i*7) & 0xF8
		img.Pixels[i+3] = byte(i * 13)
	}
	return img
}

func TestEncodeRawRoundTripWithImages(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	rc := &RawContainer{
		Groups: params.Tree{
			2: params.Nested(params.Tree{1: params.List(
				params.Nested(params.Tree{1: params.Scalar(10), 2: params.Scalar(20), 3: params.Scalar(0)}),
				params.Nested(params.Tree{1: params.Scalar(-5), 2: params.Scalar(300), 3: params.Scalar(1)}),
			)}),
			3: params.Nested(params.Tree{1: params.Nested(params.Tree{3: params.Scalar(1)})}),
		},
		Images: []*bitmap.Image{testImage(3, 2, 0x10), testImage(1, 4, 0x40)},
	}
	buf, err := c.EncodeRaw(rc)
	if err != nil {
		t.Fatalf("encode raw: %v", err)
	}
	got, err := c.DecodeRaw(buf)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if !got.Groups.Equal(rc.Groups) {
		t.Fatalf("groups: got %v want %v", got.Groups, rc.Groups)
	}
	if len(got.Images) != 2 {
		t.Fatalf("images: got %d want 2", len(got.Images))
	}
	for i, img := range got.Images {
		if img.Width != rc.Images[i].Width || img.Height != rc.Images[i].Height {
			t.Fatalf("image %d size: got %dx%d", i, img.Width, img.Height)
		}
		if !bytes.Equal(img.Pixels, rc.Images[i].Pixels) {
			t.Fatalf("image %d pixels: got % X want % X", i, img.Pixels, rc.Images[i].Pixels)
		}
		if img.BitsPerPixel != 24 || img.PixelFormat != bitmap.FormatBGR565 {
			t.Fatalf("image %d format: got %d bpp %s", i, img.BitsPerPixel, img.PixelFormat)
		}
	}
	firstSize := bitmap.HeaderSize + 3*3*2
	if want := []uint32{0, uint32(firstSize)}; !reflect.DeepEqual(got.Layout.ImageOffsets, want) {
		t.Fatalf("image offsets: got %v want %v", got.Layout.ImageOffsets, want)
	}
	if len(got.Layout.Groups) != 2 || got.Layout.Groups[0].ID != 2 || got.Layout.Groups[1].Offset != got.Layout.Groups[0].Size {
		t.Fatalf("group layout: got %+v", got.Layout.Groups)
	}
	maxSize := uint32(max(got.Layout.Groups[0].Size, got.Layout.Groups[1].Size))
	if got.MaxParameterSize != maxSize {
		t.Fatalf("max parameter size: got %d want %d", got.MaxParameterSize, maxSize)
	}
}

func TestEncodeImageFormats(t *testing.T) {
	t.Parallel()

	src := &bitmap.Image{Width: 2, Height: 1, Pixels: []byte{0xF0, 0x00, 0x10, 0xFF, 0x00, 0x00, 0x00, 0x00}}
	paletted := bitmap.Image{Width: 2, Height: 1, Pixels: src.Pixels, BitsPerPixel: 8, PixelFormat: bitmap.FormatPalette}
	rc := &RawContainer{Groups: params.Tree{2: params.Nested(params.Tree{1: params.Nested(params.Tree{1: params.Scalar(1)})})}}

	tests := []struct {
		name   string
		opts   []Option
		img    *bitmap.Image
		bpp    uint16
		format bitmap.PixelFormat
	}{
		{name: "default", img: src, bpp: 24, format: bitmap.FormatBGR565},
		{name: "fixed options", opts: []Option{WithImageOptions(bitmap.EncodeOptions{BitsPerPixel: 16, PixelFormat: bitmap.FormatABGR4444})}, img: src, bpp: 16, format: bitmap.FormatABGR4444},
		{name: "source format", opts: []Option{WithSourceFormats()}, img: &paletted, bpp: 8, format: bitmap.FormatPalette},
		{name: "source format missing", opts: []Option{WithSourceFormats()}, img: src, bpp: 24, format: bitmap.FormatBGR565},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestCodec(t, tt.opts...)
			buf, err := c.EncodeRaw(&RawContainer{Groups: rc.Groups, Images: []*bitmap.Image{tt.img}})
			if err != nil {
				t.Fatalf("encode raw: %v", err)
			}
			got, err := c.DecodeRaw(buf)
			if err != nil {
				t.Fatalf("decode raw: %v", err)
			}
			img := got.Images[0]
			if img.BitsPerPixel != tt.bpp || img.PixelFormat != tt.format {
				t.Fatalf("format: got %d bpp %s want %d bpp %s", img.BitsPerPixel, img.PixelFormat, tt.bpp, tt.format)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	hl := len(ReferenceHeader)
	withInfo := func(info, rest []byte) []byte {
		hdr := bytes.Clone(ReferenceHeader)
		binary.LittleEndian.PutUint32(hdr[hl-4:], uint32(len(info)))
		buf := append(hdr, info...)
		return append(buf, rest...)
	}

	badSig := minimalFile()
	badSig[0] = 'X'

	// zero image offset, then a full-size bitmap header with the wrong magic
	badBitmap := make([]byte, 4+bitmap.HeaderSize)
	badBitmap[4], badBitmap[5] = 'X', 'Y'

	infoOverrun := minimalFile()
	binary.LittleEndian.PutUint32(infoOverrun[hl-4:], 200)

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{name: "bad signature", buf: badSig, want: ErrInvalidSignature},
		{name: "truncated header", buf: ReferenceHeader[:40], want: ErrTruncated},
		{name: "info overrun", buf: infoOverrun, want: ErrOutOfBounds},
		{name: "empty info", buf: withInfo(nil, nil), want: ErrMalformedInput},
		// {2: {1: 0, 2: 8}}
		{name: "missing summary", buf: withInfo([]byte{0x12, 0x04, 0x08, 0x00, 0x10, 0x08}, minimalBlock), want: ErrBadInfo},
		// {1: {1: 8}}
		{name: "missing image count", buf: withInfo([]byte{0x0A, 0x02, 0x08, 0x08}, minimalBlock), want: ErrBadInfo},
		// {1: {1: 9, 2: 0}, ...}
		{name: "parameter size overrun", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x09, 0x10, 0x00}, minimalBlock), want: ErrOutOfBounds},
		// {1: {1: 8, 2: 0}, 2: {1: 4, 2: 8}}
		{name: "group overrun", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x00, 0x12, 0x04, 0x08, 0x04, 0x10, 0x08}, minimalBlock), want: ErrOutOfBounds},
		// {1: {1: 8, 2: 0}, 2: 5}
		{name: "scalar group entry", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x00, 0x10, 0x05}, minimalBlock), want: ErrBadInfo},
		// {1: {1: 8, 2: 0}, 2: {1: 0, 2: 0}}
		{name: "empty group", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x00, 0x12, 0x04, 0x08, 0x00, 0x10, 0x00}, minimalBlock), want: ErrMalformedInput},
		// {1: {1: 8, 2: 1}, ...} with no image table
		{name: "image table overrun", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x01}, minimalBlock), want: ErrOutOfBounds},
		{name: "image offset overrun", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x01}, append(bytes.Clone(minimalBlock), 0x10, 0x00, 0x00, 0x00)), want: ErrOutOfBounds},
		{name: "bad image", buf: withInfo([]byte{0x0A, 0x04, 0x08, 0x08, 0x10, 0x01}, append(bytes.Clone(minimalBlock), badBitmap...)), want: bitmap.ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.DecodeRaw(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	leaf := params.Nested(params.Tree{1: params.Scalar(1)})
	tests := []struct {
		name   string
		groups params.Tree
		images []*bitmap.Image
		want   error
	}{
		{name: "reserved id", groups: params.Tree{1: leaf}, want: ErrInvalidGroup},
		{name: "scalar group", groups: params.Tree{2: params.Scalar(4)}, want: ErrInvalidGroup},
		{name: "empty group", groups: params.Tree{2: params.Nested(nil)}, want: ErrInvalidGroup},
		{name: "bad image", groups: params.Tree{2: leaf}, images: []*bitmap.Image{{Width: 2, Height: 2}}, want: bitmap.ErrPixelBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.EncodeRaw(&RawContainer{Groups: tt.groups, Images: tt.images})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEncodeUnknownName(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	_, err := c.Encode(&Container{Parameters: map[string]any{"Foreground": map[string]any{}}})
	if !errors.Is(err, schema.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestCodecWithoutSchema(t *testing.T) {
	t.Parallel()

	c, err := NewCodec(ReferenceStructure(), nil)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	if _, err := c.Decode(minimalFile()); !errors.Is(err, ErrNoSchema) {
		t.Fatalf("Decode: expected ErrNoSchema, got %v", err)
	}
	if _, err := c.Encode(&Container{}); !errors.Is(err, ErrNoSchema) {
		t.Fatalf("Encode: expected ErrNoSchema, got %v", err)
	}
	if _, err := c.DecodeRaw(minimalFile()); err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
}

func TestCodecWith(t *testing.T) {
	t.Parallel()

	base := newTestCodec(t)
	alt := base.With(WithImageOptions(bitmap.EncodeOptions{BitsPerPixel: 16, PixelFormat: bitmap.FormatRGB565}))
	if base.imageOpts != (bitmap.EncodeOptions{}) {
		t.Fatalf("With modified the receiver: %+v", base.imageOpts)
	}
	if alt.imageOpts.PixelFormat != bitmap.FormatRGB565 || alt.tr != base.tr {
		t.Fatalf("With copy: got %+v", alt)
	}
}

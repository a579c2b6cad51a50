package imageio

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/samcharles93/watchface/pkg/bitmap"
)

func TestFitSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		img, area, want Size
	}{
		{img: Size{400, 200}, area: Size{240, 240}, want: Size{240, 120}},
		{img: Size{200, 400}, area: Size{240, 240}, want: Size{120, 240}},
		{img: Size{300, 300}, area: Size{240, 280}, want: Size{240, 240}},
		{img: Size{1000, 3}, area: Size{100, 100}, want: Size{100, 1}},
		{img: Size{0, 3}, area: Size{100, 100}, want: Size{}},
	}
	for _, tt := range tests {
		if got := FitSize(tt.img, tt.area); got != tt.want {
			t.Fatalf("FitSize(%v, %v): got %v want %v", tt.img, tt.area, got, tt.want)
		}
	}
}

func TestFitLeavesSmallImages(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	if got := Fit(src, Size{20, 20}); got != image.Image(src) {
		t.Fatalf("small image should be returned as is")
	}
	got := Fit(image.NewNRGBA(image.Rect(0, 0, 40, 20)), Size{20, 20})
	if b := got.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("fit bounds: got %v", b)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	t.Parallel()

	img := bitmap.New(3, 2)
	for i := 0; i < len(img.Pixels); i += 4 {
		img.Pixels[i], img.Pixels[i+1], img.Pixels[i+2], img.Pixels[i+3] = byte(i*9), byte(i*5), byte(255-i), 0xFF
	}
	img.Pixels[3] = 0

	var buf bytes.Buffer
	if err := WritePNG(&buf, img); err != nil {
		t.Fatalf("write png: %v", err)
	}
	got, err := Read(&buf, Options{})
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if got.Width != 3 || got.Height != 2 {
		t.Fatalf("size: got %dx%d", got.Width, got.Height)
	}
	if !bytes.Equal(got.Pixels[4:], img.Pixels[4:]) {
		t.Fatalf("pixels: got % X want % X", got.Pixels, img.Pixels)
	}
	if got.Pixels[3] != 0 {
		t.Fatalf("transparent pixel alpha: got %d", got.Pixels[3])
	}
}

func TestReadFileFits(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xFF})
		}
	}
	path := filepath.Join(t.TempDir(), "wide.png")
	img, err := bitmap.FromImage(src)
	if err != nil {
		t.Fatalf("from image: %v", err)
	}
	if err := WritePNGFile(path, img); err != nil {
		t.Fatalf("write png file: %v", err)
	}
	got, err := ReadFile(path, Options{FitTo: Size{16, 16}})
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got.Width != 16 || got.Height != 8 {
		t.Fatalf("fitted size: got %dx%d want 16x8", got.Width, got.Height)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.png"), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// Package imageio moves bitmap images in and out of common image files.
package imageio

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"

	"github.com/samcharles93/watchface/pkg/bitmap"
)

// Size is an image or screen size in pixels.
type Size struct {
	Width  int
	Height int
}

// FitSize returns the largest size with the image's aspect ratio that fits
// inside area without cropping. Dimensions are rounded to whole pixels.
func FitSize(img, area Size) Size {
	if img.Width <= 0 || img.Height <= 0 || area.Width <= 0 || area.Height <= 0 {
		return Size{}
	}
	imgRatio := float64(img.Width) / float64(img.Height)
	areaRatio := float64(area.Width) / float64(area.Height)
	if imgRatio > areaRatio {
		return Size{Width: area.Width, Height: max(1, int(math.Round(float64(area.Width)/imgRatio)))}
	}
	return Size{Width: max(1, int(math.Round(float64(area.Height)*imgRatio))), Height: area.Height}
}

// Fit shrinks img to fit area, keeping its aspect ratio. Images that already
// fit are returned unchanged.
func Fit(img image.Image, area Size) image.Image {
	b := img.Bounds()
	if b.Dx() <= area.Width && b.Dy() <= area.Height {
		return img
	}
	s := FitSize(Size{Width: b.Dx(), Height: b.Dy()}, area)
	if s.Width == 0 {
		return img
	}
	return imaging.Resize(img, s.Width, s.Height, imaging.Lanczos)
}

// Options controls Read.
type Options struct {
	// FitTo, when non-zero, shrinks larger images to fit this size.
	FitTo Size
}

// Read decodes a PNG, JPEG, GIF, BMP or TIFF image into a bitmap.Image.
func Read(r io.Reader, opts Options) (*bitmap.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if opts.FitTo.Width > 0 && opts.FitTo.Height > 0 {
		img = Fit(img, opts.FitTo)
	}
	return bitmap.FromImage(img)
}

func ReadFile(path string, opts Options) (*bitmap.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img *bitmap.Image) error {
	return imaging.Encode(w, img.ToNRGBA(), imaging.PNG)
}

func WritePNGFile(path string, img *bitmap.Image) error {
	return imaging.Save(img.ToNRGBA(), path)
}

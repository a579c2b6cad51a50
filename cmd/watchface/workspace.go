package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/watchface/internal/imageio"
	"github.com/samcharles93/watchface/pkg/bitmap"
	"github.com/samcharles93/watchface/pkg/watchface"
)

// An unpacked watch face directory holds:
//
//	parameters.json  named parameter tree
//	images.json      manifest of the images below, with their source formats
//	images/NNNN.png  one PNG per image, in table order
const (
	parametersFile = "parameters.json"
	manifestFile   = "images.json"
	imagesDir      = "images"
)

type manifestEntry struct {
	Index        int    `json:"index"`
	File         string `json:"file"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitsPerPixel int    `json:"bitsPerPixel,omitempty"`
	PixelFormat  string `json:"pixelFormat,omitempty"`
}

func imageFileName(i int) string {
	return fmt.Sprintf("%04d.png", i)
}

// writeWorkspace unpacks ct into dir.
func writeWorkspace(dir string, ct *watchface.Container) error {
	if err := os.MkdirAll(filepath.Join(dir, imagesDir), 0o755); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, parametersFile), ct.Parameters); err != nil {
		return err
	}
	manifest := make([]manifestEntry, len(ct.Images))
	for i, img := range ct.Images {
		name := filepath.ToSlash(filepath.Join(imagesDir, imageFileName(i)))
		if err := imageio.WritePNGFile(filepath.Join(dir, name), img); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		manifest[i] = manifestEntry{
			Index:        i,
			File:         name,
			Width:        int(img.Width),
			Height:       int(img.Height),
			BitsPerPixel: int(img.BitsPerPixel),
		}
		if img.PixelFormat != 0 {
			manifest[i].PixelFormat = fmt.Sprintf("0x%02X", uint16(img.PixelFormat))
		}
	}
	return writeJSONFile(filepath.Join(dir, manifestFile), manifest)
}

// readWorkspace loads a directory written by writeWorkspace. Without a
// manifest every PNG under images/ is used in name order.
func readWorkspace(dir string, opts imageio.Options) (*watchface.Container, error) {
	var params map[string]any
	if err := readJSONFile(filepath.Join(dir, parametersFile), &params); err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("%s: no parameters", parametersFile)
	}

	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	images := make([]*bitmap.Image, len(manifest))
	for i, m := range manifest {
		img, err := imageio.ReadFile(filepath.Join(dir, filepath.FromSlash(m.File)), opts)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		img.BitsPerPixel = uint16(m.BitsPerPixel)
		if m.PixelFormat != "" {
			f, err := bitmap.ParsePixelFormat(m.PixelFormat)
			if err != nil {
				return nil, fmt.Errorf("%s: image %d: %w", manifestFile, i, err)
			}
			img.PixelFormat = f
		}
		images[i] = img
	}
	return &watchface.Container{Parameters: params, Images: images}, nil
}

func readManifest(dir string) ([]manifestEntry, error) {
	var manifest []manifestEntry
	err := readJSONFile(filepath.Join(dir, manifestFile), &manifest)
	if err == nil {
		for i, m := range manifest {
			if m.Index != i {
				return nil, fmt.Errorf("%s: entry %d has index %d", manifestFile, i, m.Index)
			}
		}
		return manifest, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(dir, imagesDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for i, name := range names {
		manifest = append(manifest, manifestEntry{Index: i, File: imagesDir + "/" + name})
	}
	return manifest, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// readJSONFile decodes numbers in untyped values as json.Number so integers
// above 2^53 survive.
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// parseSize parses "WxH".
func parseSize(s string) (imageio.Size, error) {
	var sz imageio.Size
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if ok {
		var errW, errH error
		sz.Width, errW = strconv.Atoi(w)
		sz.Height, errH = strconv.Atoi(h)
		ok = errW == nil && errH == nil && sz.Width > 0 && sz.Height > 0
	}
	if !ok {
		return imageio.Size{}, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	return sz, nil
}

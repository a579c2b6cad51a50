package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/watchface/internal/catalog"
	"github.com/samcharles93/watchface/internal/imageio"
	"github.com/samcharles93/watchface/internal/logger"
	"github.com/samcharles93/watchface/pkg/bitmap"
	"github.com/samcharles93/watchface/pkg/watchface"
)

func encodeCmd() *cli.Command {
	var (
		outPath     string
		fit         bool
		fitSize     string
		bpp         int64
		pixelFormat string
		keepFormats bool
	)

	return &cli.Command{
		Name:      "encode",
		Aliases:   []string{"pack"},
		Usage:     "Pack a directory written by decode into a watch face file",
		ArgsUsage: "<dir>",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output file (default: <dir>.bin)",
				Destination: &outPath,
			},
			&cli.BoolFlag{
				Name:        "fit",
				Usage:       "shrink images larger than the model screen",
				Destination: &fit,
			},
			&cli.StringFlag{
				Name:        "fit-size",
				Usage:       "fit images to WIDTHxHEIGHT instead of the model screen",
				Destination: &fitSize,
			},
			&cli.Int64Flag{
				Name:        "bpp",
				Usage:       "image bits per pixel (4, 8, 16, 24, 32)",
				Destination: &bpp,
			},
			&cli.StringFlag{
				Name:        "pixel-format",
				Usage:       "image pixel format code, e.g. 0x1B",
				Destination: &pixelFormat,
			},
			&cli.BoolFlag{
				Name:        "keep-formats",
				Usage:       "write each image in the format recorded in images.json",
				Destination: &keepFormats,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEncodeConfig(cmd, &bpp, &pixelFormat, &keepFormats, &fit)

			dir := strings.TrimSpace(cmd.Args().First())
			if dir == "" {
				return cli.Exit("error: input directory is required", 1)
			}
			if outPath == "" {
				outPath = filepath.Clean(dir) + ".bin"
			}

			codecOpts, err := imageCodecOptions(bpp, pixelFormat, keepFormats)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			codec, model, err := openCodec(log, codecOpts...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			var opts imageio.Options
			if fit || fitSize != "" {
				opts.FitTo, err = fitTarget(model, fitSize)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}

			ct, err := readWorkspace(dir, opts)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %s: %v", dir, err), 1)
			}
			out, err := codec.Encode(ct)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode: %v", err), 1)
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
			}
			log.Info("encoded watch face", "model", model.Name, "images", len(ct.Images), "size", len(out), "out", outPath)
			return nil
		},
	}
}

func imageCodecOptions(bpp int64, pixelFormat string, keepFormats bool) ([]watchface.Option, error) {
	if keepFormats {
		if bpp != 0 || pixelFormat != "" {
			return nil, fmt.Errorf("--keep-formats cannot be combined with --bpp or --pixel-format")
		}
		return []watchface.Option{watchface.WithSourceFormats()}, nil
	}
	if bpp == 0 && pixelFormat == "" {
		return nil, nil
	}
	if bpp < 0 || bpp > 32 {
		return nil, fmt.Errorf("invalid --bpp %d", bpp)
	}
	opts := bitmap.EncodeOptions{BitsPerPixel: uint16(bpp)}
	if pixelFormat != "" {
		f, err := bitmap.ParsePixelFormat(pixelFormat)
		if err != nil {
			return nil, err
		}
		opts.PixelFormat = f
	}
	return []watchface.Option{watchface.WithImageOptions(opts)}, nil
}

func fitTarget(m catalog.Model, override string) (imageio.Size, error) {
	if override != "" {
		return parseSize(override)
	}
	if m.Screen == nil {
		return imageio.Size{}, fmt.Errorf("model %q has no screen size, use --fit-size", m.Name)
	}
	return imageio.Size{Width: m.Screen.Width, Height: m.Screen.Height}, nil
}

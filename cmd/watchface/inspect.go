package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/watchface/internal/logger"
	"github.com/samcharles93/watchface/pkg/watchface"
)

type inspectGroup struct {
	ID     int64  `json:"id"`
	Name   string `json:"name,omitempty"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
}

type inspectImage struct {
	Index        int    `json:"index"`
	Offset       uint32 `json:"offset"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BitsPerPixel int    `json:"bitsPerPixel"`
	PixelFormat  string `json:"pixelFormat"`
}

type inspectReport struct {
	File                string         `json:"file"`
	Model               string         `json:"model"`
	Size                int            `json:"size"`
	Signature           string         `json:"signature"`
	HeaderSize          int            `json:"headerSize"`
	MaxParameterSize    uint32         `json:"maxParameterSize"`
	ParameterInfoOffset int            `json:"parameterInfoOffset"`
	ParameterInfoSize   int            `json:"parameterInfoSize"`
	ParameterOffset     int            `json:"parameterOffset"`
	ParameterSize       int            `json:"parameterSize"`
	Groups              []inspectGroup `json:"groups"`
	ImageTableOffset    int            `json:"imageTableOffset"`
	Images              []inspectImage `json:"images"`
}

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the section layout of a watch face file",
		ArgsUsage: "<file.bin>",
		Flags: append(commonModelFlags(),
			&cli.BoolFlag{Name: "json", Usage: "print the layout as JSON", Destination: &asJSON},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyModelConfig(cmd)

			in := cmd.Args().First()
			if in == "" {
				return cli.Exit("error: input file is required", 1)
			}
			codec, model, err := openCodec(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			f, err := watchface.OpenFile(in)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", in, err), 1)
			}
			defer func() { _ = f.Close() }()

			raw, err := codec.DecodeRaw(f.Data)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: decode %s: %v", in, err), 1)
			}
			report := buildReport(in, model.Name, len(f.Data), codec, raw)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(os.Stdout, report)
			return nil
		},
	}
}

func buildReport(file, model string, size int, codec *watchface.Codec, raw *watchface.RawContainer) inspectReport {
	lay := raw.Layout
	r := inspectReport{
		File:                file,
		Model:               model,
		Size:                size,
		Signature:           fmt.Sprintf("% X", codec.Structure().Signature()),
		HeaderSize:          len(raw.Header),
		MaxParameterSize:    raw.MaxParameterSize,
		ParameterInfoOffset: lay.ParameterInfoOffset,
		ParameterInfoSize:   lay.ParameterInfoSize,
		ParameterOffset:     lay.ParameterOffset,
		ParameterSize:       lay.ParameterSize,
		ImageTableOffset:    lay.ImageTableOffset,
	}
	tr := codec.Translator()
	for _, g := range lay.Groups {
		ig := inspectGroup{ID: int64(g.ID), Offset: g.Offset, Size: g.Size}
		if tr != nil {
			ig.Name, _ = tr.GroupName(g.ID)
		}
		r.Groups = append(r.Groups, ig)
	}
	for i, img := range raw.Images {
		r.Images = append(r.Images, inspectImage{
			Index:        i,
			Offset:       lay.ImageOffsets[i],
			Width:        int(img.Width),
			Height:       int(img.Height),
			BitsPerPixel: int(img.BitsPerPixel),
			PixelFormat:  img.PixelFormat.String(),
		})
	}
	return r
}

func printReport(w io.Writer, r inspectReport) {
	_, _ = fmt.Fprintf(w, "File:               %s (%d bytes)\n", r.File, r.Size)
	_, _ = fmt.Fprintf(w, "Model:              %s\n", r.Model)
	_, _ = fmt.Fprintf(w, "Signature:          %s\n", r.Signature)
	_, _ = fmt.Fprintf(w, "Header:             %d bytes\n", r.HeaderSize)
	_, _ = fmt.Fprintf(w, "Max parameter size: %d\n", r.MaxParameterSize)
	_, _ = fmt.Fprintf(w, "Parameter info:     offset=%d size=%d\n", r.ParameterInfoOffset, r.ParameterInfoSize)
	_, _ = fmt.Fprintf(w, "Parameter blocks:   offset=%d size=%d\n", r.ParameterOffset, r.ParameterSize)
	_, _ = fmt.Fprintf(w, "\nGroups (%d):\n", len(r.Groups))
	for _, g := range r.Groups {
		name := g.Name
		if name == "" {
			name = "?"
		}
		_, _ = fmt.Fprintf(w, "  %4d  %-24s offset=%-8d size=%d\n", g.ID, name, g.Offset, g.Size)
	}
	_, _ = fmt.Fprintf(w, "\nImages (%d), table at %d:\n", len(r.Images), r.ImageTableOffset)
	for _, img := range r.Images {
		_, _ = fmt.Fprintf(w, "  %4d  %4dx%-4d %2d bpp  %-18s offset=%d\n", img.Index, img.Width, img.Height, img.BitsPerPixel, img.PixelFormat, img.Offset)
	}
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/watchface/internal/logger"
	"github.com/samcharles93/watchface/pkg/watchface"
)

func decodeCmd() *cli.Command {
	var outDir string

	return &cli.Command{
		Name:      "decode",
		Aliases:   []string{"unpack"},
		Usage:     "Unpack a watch face file into parameters.json and PNG images",
		ArgsUsage: "<file.bin>",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory (default: input name without extension)",
				Destination: &outDir,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyModelConfig(cmd)

			in := strings.TrimSpace(cmd.Args().First())
			if in == "" {
				return cli.Exit("error: input file is required", 1)
			}
			if outDir == "" {
				outDir = strings.TrimSuffix(in, filepath.Ext(in))
				if outDir == in {
					outDir += ".d"
				}
			}

			codec, model, err := openCodec(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			f, err := watchface.OpenFile(in)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", in, err), 1)
			}
			ct, err := codec.Decode(f.Data)
			_ = f.Close()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: decode %s: %v", in, err), 1)
			}

			if err := writeWorkspace(outDir, ct); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", outDir, err), 1)
			}
			log.Info("decoded watch face", "model", model.Name, "groups", len(ct.Parameters), "images", len(ct.Images), "out", outDir)
			return nil
		},
	}
}

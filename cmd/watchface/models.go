package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/watchface/internal/catalog"
	"github.com/samcharles93/watchface/internal/logger"
)

func modelsCmd() *cli.Command {
	return &cli.Command{
		Name:    "models",
		Aliases: []string{"ls", "list-models"},
		Usage:   "List device models in the catalog",
		Flags:   commonModelFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyModelConfig(cmd)

			reg, err := openRegistry(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			cat := reg.Catalog()
			if len(cat.Models) == 0 {
				log.Info("no models found")
				return nil
			}
			def, _ := cat.Lookup("")
			for _, m := range cat.Models {
				marker := " "
				if m.Name == def.Name {
					marker = "*"
				}
				fmt.Printf("%s %-20s %s\n", marker, m.Name, describeModel(m))
			}
			fmt.Printf("\n%d model(s)\n", len(cat.Models))
			return nil
		},
	}
}

func describeModel(m catalog.Model) string {
	s := fmt.Sprintf("header=%dB signature=% X", len(m.Header), m.Structure().Signature())
	if m.Screen != nil {
		s += fmt.Sprintf(" screen=%dx%d", m.Screen.Width, m.Screen.Height)
	}
	if m.Description != "" {
		s += "  " + m.Description
	}
	return s
}

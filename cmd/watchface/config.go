package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/watchface/internal/catalog"
	"github.com/samcharles93/watchface/internal/config"
	"github.com/samcharles93/watchface/internal/logger"
	"github.com/samcharles93/watchface/pkg/schema"
	"github.com/samcharles93/watchface/pkg/watchface"
)

// cfg holds the config file, loaded once before any command runs.
var cfg config.Config

// setup loads the config file and installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = config.Path()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	loaded.ApplyEnv()
	cfg = loaded

	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	level := logLevel
	if debug {
		level = "debug"
	}
	log := logger.FromOptions(level, logFormat, os.Stderr)
	return logger.WithContext(ctx, log), nil
}

// applyModelConfig applies config file defaults to the model flags when the
// corresponding flag was not explicitly set.
func applyModelConfig(c *cli.Command) {
	if cfg.Model != "" && !c.IsSet("model") {
		modelName = cfg.Model
	}
	if cfg.ModelsFile != "" && !c.IsSet("models") {
		modelsFile = cfg.ModelsFile
	}
	if cfg.Schema != "" && !c.IsSet("schema") {
		schemaPath = cfg.Schema
	}
}

// applyEncodeConfig applies config file defaults to encode command variables.
func applyEncodeConfig(c *cli.Command, bpp *int64, pixelFormat *string, keepFormats, fit *bool) {
	applyModelConfig(c)
	if cfg.BitsPerPixel != nil && !c.IsSet("bpp") {
		*bpp = *cfg.BitsPerPixel
	}
	if cfg.PixelFormat != "" && !c.IsSet("pixel-format") {
		*pixelFormat = cfg.PixelFormat
	}
	if cfg.KeepSourceFormats != nil && !c.IsSet("keep-formats") {
		*keepFormats = *cfg.KeepSourceFormats
	}
	if cfg.Fit != nil && !c.IsSet("fit") {
		*fit = *cfg.Fit
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, addr *string, maxBody *int64) {
	applyModelConfig(c)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxUploadBytes != nil && !c.IsSet("max-body") {
		*maxBody = *cfg.MaxUploadBytes
	}
}

// openRegistry loads the model catalog selected by the flags.
func openRegistry(log logger.Logger, codecOpts ...watchface.Option) (*catalog.Registry, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if modelsFile != "" {
		cat, err = catalog.Load(modelsFile)
	} else {
		cat, err = catalog.Builtin()
	}
	if err != nil {
		return nil, err
	}
	codecOpts = append([]watchface.Option{watchface.WithLogger(log)}, codecOpts...)
	return catalog.NewRegistry(cat, schemaPath, []schema.Option{schema.WithLogger(log)}, codecOpts...), nil
}

// openCodec resolves --model against the catalog.
func openCodec(log logger.Logger, codecOpts ...watchface.Option) (*watchface.Codec, catalog.Model, error) {
	reg, err := openRegistry(log, codecOpts...)
	if err != nil {
		return nil, catalog.Model{}, err
	}
	return reg.Codec(modelName)
}

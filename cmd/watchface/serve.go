package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/watchface/internal/api"
	"github.com/samcharles93/watchface/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxBody     int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the decode/encode REST API",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-body",
				Usage:       "maximum request body in bytes",
				Value:       api.DefaultMaxBodyBytes,
				Destination: &maxBody,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, &addr, &maxBody)

			reg, err := openRegistry(log)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			// Fail at startup rather than on the first request.
			if _, _, err := reg.Codec(modelName); err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			server := api.NewServer(api.ServerConfig{
				Registry:     reg,
				Logger:       log,
				MaxBodyBytes: maxBody,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "models", reg.Catalog().Names())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

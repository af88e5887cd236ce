package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/glb/internal/api"
	"github.com/samcharles93/glb/internal/logger"
	"github.com/samcharles93/glb/internal/webui"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxUpload   int64
		rateLimit   float64
		rateBurst   int64
		noUI        bool
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the container decode API",
		Flags: []cli.Flag{
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
				Name:        "max-upload-bytes",
				Usage:       "largest accepted container",
				Value:       api.DefaultMaxUploadBytes,
				Destination: &maxUpload,
			},
			&cli.Float64Flag{
				Name:        "rate-limit",
				Usage:       "uploads per second (0 disables)",
				Destination: &rateLimit,
			},
			&cli.Int64Flag{
				Name:        "rate-burst",
				Usage:       "upload burst size",
				Value:       4,
				Destination: &rateBurst,
			},
			&cli.BoolFlag{
				Name:        "no-ui",
				Usage:       "do not serve the upload page at /",
				Destination: &noUI,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr, &maxUpload, &rateLimit, &rateBurst)

			server := api.NewServer(api.NewContainerStore(), api.Options{
				MaxUploadBytes: maxUpload,
				RateLimit:      rateLimit,
				RateBurst:      int(rateBurst),
				Logger:         log.With("component", "api"),
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			if !noUI {
				e.GET("/", echo.WrapHandler(http.FileServer(webui.StaticFS())))
			}
			log.Info("starting server", "address", addr, "max_upload_bytes", maxUpload, "rate_limit", rateLimit)
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

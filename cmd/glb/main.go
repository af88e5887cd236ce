package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/glb/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "glb",
		Usage: "Binary glTF container decoder and technique migrator",
		Flags: append(loggingFlags(), strictFlag()),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg = LoadConfig()
			applyGlobalConfig(cmd, cfg)
			return logger.WithContext(ctx, newLogger()), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			extractCmd(),
			convertCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	level := logLevel
	if debug {
		level = "debug"
	}
	return logger.ForFormat(os.Stderr, logFormat, level)
}

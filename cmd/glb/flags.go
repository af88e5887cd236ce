package main

import "github.com/urfave/cli/v3"

var (
	cfg       Config
	logLevel  string
	logFormat string
	debug     bool
	strict    bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func strictFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "strict",
		Usage:       "fail when the migration reports diagnostics",
		Destination: &strict,
	}
}

func inputFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "input",
		Aliases:     []string{"i"},
		Usage:       "path to .glb file",
		Destination: dest,
		Required:    true,
	}
}

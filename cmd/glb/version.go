package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/glb/internal/version"
)

func versionCmd() *cli.Command {
	var short bool

	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "short", Usage: "print only the version string", Destination: &short},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if short {
				fmt.Println(version.String())
				return nil
			}
			info := version.Resolve()
			fmt.Printf("version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			fmt.Printf("go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

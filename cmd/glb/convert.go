package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/glb/internal/logger"
	"github.com/samcharles93/glb/pkg/glb"
)

func convertCmd() *cli.Command {
	var (
		inputPath  string
		outputPath string
	)

	return &cli.Command{
		Name:  "convert",
		Usage: "Re-encode a container as version 2 with the migrated document",
		Flags: []cli.Flag{
			inputFlag(&inputPath),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "path of the .glb to write",
				Destination: &outputPath,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			c, err := openContainer(log, inputPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			n, err := writeContainer(outputPath, c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("convert %s: %v", inputPath, err), 1)
			}
			log.Info("wrote container", "path", outputPath, "bytes", n)
			return nil
		},
	}
}

// errVersion1Convert rejects glTF 1.0 documents: their id-keyed buffers and
// buffer views cannot be carried by a version 2 BIN chunk, which binds to
// buffers[0].
var errVersion1Convert = errors.New("version 1 containers hold glTF 1.0 documents and cannot be re-encoded as version 2")

func writeContainer(path string, c *glb.Container) (int64, error) {
	if c.Header.Version == 1 {
		return 0, errVersion1Convert
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(f)
	if err := glb.Encode(w, c.Document, c.Binary); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}
	return info.Size(), f.Close()
}

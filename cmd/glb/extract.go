package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/glb/internal/logger"
	"github.com/samcharles93/glb/pkg/glb"
	"github.com/samcharles93/glb/pkg/gltf"
)

func extractCmd() *cli.Command {
	var (
		inputPath string
		outDir    string
		compact   bool
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Write the migrated document as .gltf plus its binary payload as .bin",
		Flags: []cli.Flag{
			inputFlag(&inputPath),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output directory (default: next to the input)",
				Destination: &outDir,
			},
			&cli.BoolFlag{Name: "compact", Usage: "write JSON without indentation", Destination: &compact},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyExtractConfig(cmd, cfg, &outDir)
			if outDir == "" {
				outDir = filepath.Dir(inputPath)
			}

			c, err := openContainer(log, inputPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			gltfPath, binPath, err := extractContainer(c, outDir, name, !compact)
			if err != nil {
				return cli.Exit(fmt.Sprintf("extract %s: %v", inputPath, err), 1)
			}
			log.Info("extracted container", "gltf", gltfPath, "bin", binPath, "diagnostics", len(c.Diagnostics))
			return nil
		},
	}
}

// extractContainer writes <dir>/<name>.gltf and, when the container carries a
// binary payload, <dir>/<name>.bin. Buffers that referenced the embedded
// payload are pointed at the .bin file. binPath is empty when no payload exists.
func extractContainer(c *glb.Container, dir, name string, indent bool) (gltfPath, binPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	doc := gltf.CloneDocument(c.Document)
	if c.Binary != nil {
		binPath = filepath.Join(dir, name+".bin")
		for _, buf := range embeddedBuffers(doc) {
			buf["uri"] = name + ".bin"
		}
		if err := os.WriteFile(binPath, c.Binary, 0o644); err != nil {
			return "", "", err
		}
	}

	text, err := gltf.Marshal(doc, indent)
	if err != nil {
		return "", "", err
	}
	gltfPath = filepath.Join(dir, name+".gltf")
	if err := os.WriteFile(gltfPath, append(text, '\n'), 0o644); err != nil {
		return "", "", err
	}
	return gltfPath, binPath, nil
}

// embeddedBuffers returns buffer objects carrying the container's payload.
func embeddedBuffers(doc gltf.Document) []map[string]any {
	var out []map[string]any
	for _, buf := range gltf.Buffers(doc) {
		if _, ok := gltf.PipelineSource(buf); ok {
			out = append(out, buf)
		}
	}
	return out
}

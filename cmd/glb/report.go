package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/glb/internal/logger"
	"github.com/samcharles93/glb/pkg/glb"
	"github.com/samcharles93/glb/pkg/techniques"
)

// openContainer decodes path and logs every migration diagnostic.
// With --strict any diagnostic fails the command.
func openContainer(log logger.Logger, path string) (*glb.Container, error) {
	c, err := glb.Open(path)
	if err != nil {
		if code := glb.ErrorCode(err); code != "" {
			log.Debug("decode failed", "path", path, "code", code)
		}
		return nil, cli.Exit(fmt.Sprintf("open %s: %v", path, err), 1)
	}
	log.Debug("decoded container",
		"path", path,
		"version", c.Header.Version,
		"length", c.Header.Length,
		"chunks", len(c.Chunks),
		"binary_bytes", len(c.Binary),
	)
	logDiagnostics(log, c.Diagnostics)
	if strict && len(c.Diagnostics) > 0 {
		_ = c.Close()
		return nil, cli.Exit(fmt.Sprintf("%s: %d migration diagnostics (strict)", path, len(c.Diagnostics)), 1)
	}
	return c, nil
}

func logDiagnostics(log logger.Logger, diags []techniques.Diagnostic) {
	for _, d := range diags {
		args := []any{"kind", string(d.Kind), "path", d.Path}
		if d.Key != "" {
			args = append(args, "key", d.Key)
		}
		log.Warn(d.Message, args...)
	}
}

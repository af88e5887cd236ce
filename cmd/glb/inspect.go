package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/xlab/treeprint"

	"github.com/samcharles93/glb/internal/logger"
	"github.com/samcharles93/glb/pkg/glb"
	"github.com/samcharles93/glb/pkg/gltf"
	"github.com/samcharles93/glb/pkg/techniques"
)

type inspectSummary struct {
	File           string                  `json:"file"`
	Version        uint32                  `json:"version"`
	Length         uint32                  `json:"length"`
	BinaryLength   int                     `json:"binary_length"`
	Chunks         []chunkSummary          `json:"chunks,omitempty"`
	Members        map[string]int          `json:"members"`
	ExtensionsUsed []string                `json:"extensions_used,omitempty"`
	Diagnostics    []techniques.Diagnostic `json:"diagnostics"`
}

type chunkSummary struct {
	Type   string `json:"type"`
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
	Used   bool   `json:"used"`
}

func inspectCmd() *cli.Command {
	var (
		inputPath string
		showTree  bool
		asJSON    bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the header, chunks and migration diagnostics of a .glb container",
		Flags: []cli.Flag{
			inputFlag(&inputPath),
			&cli.BoolFlag{Name: "tree", Usage: "print techniques and material values as a tree", Destination: &showTree},
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			c, err := openContainer(log, inputPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			summary := summarize(inputPath, c)
			if asJSON {
				out, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return cli.Exit(fmt.Sprintf("encode summary: %v", err), 1)
				}
				_, err = fmt.Fprintln(os.Stdout, string(out))
				return err
			}
			writeSummary(os.Stdout, summary)
			if showTree {
				_, _ = fmt.Fprintln(os.Stdout)
				_, _ = fmt.Fprint(os.Stdout, techniqueTree(c.Document).String())
			}
			return nil
		},
	}
}

func summarize(path string, c *glb.Container) inspectSummary {
	s := inspectSummary{
		File:         path,
		Version:      c.Header.Version,
		Length:       c.Header.Length,
		BinaryLength: len(c.Binary),
		Members:      make(map[string]int),
		Diagnostics:  c.Diagnostics,
	}
	if s.Diagnostics == nil {
		s.Diagnostics = []techniques.Diagnostic{}
	}
	for _, ch := range c.Chunks {
		s.Chunks = append(s.Chunks, chunkSummary{
			Type:   ch.Type.String(),
			Offset: ch.Offset,
			Length: ch.Length,
			Used:   ch.Used,
		})
	}
	for key, v := range c.Document {
		switch x := v.(type) {
		case []any:
			s.Members[key] = len(x)
		case map[string]any:
			if key != "asset" && key != "extras" && key != "extensions" {
				s.Members[key] = len(x)
			}
		}
	}
	if used, ok := gltf.ExtensionsUsed(c.Document); ok {
		for _, name := range used {
			if n, ok := gltf.String(name); ok {
				s.ExtensionsUsed = append(s.ExtensionsUsed, n)
			}
		}
	}
	return s
}

func writeSummary(w io.Writer, s inspectSummary) {
	_, _ = fmt.Fprintf(w, "file:     %s\n", s.File)
	_, _ = fmt.Fprintf(w, "version:  %d\n", s.Version)
	_, _ = fmt.Fprintf(w, "length:   %d bytes\n", s.Length)
	_, _ = fmt.Fprintf(w, "binary:   %d bytes\n", s.BinaryLength)
	if len(s.ExtensionsUsed) > 0 {
		_, _ = fmt.Fprintf(w, "extensions: %s\n", strings.Join(s.ExtensionsUsed, ", "))
	}

	if len(s.Chunks) > 0 {
		rows := make([][]string, len(s.Chunks))
		for i, ch := range s.Chunks {
			used := "yes"
			if !ch.Used {
				used = "ignored"
			}
			rows[i] = []string{
				strconv.Itoa(i),
				ch.Type,
				strconv.FormatUint(uint64(ch.Offset), 10),
				strconv.FormatUint(uint64(ch.Length), 10),
				used,
			}
		}
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, renderTable(
			[]string{"#", "Type", "Offset", "Length", "Used"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	if len(s.Members) > 0 {
		rows := make([][]string, 0, len(s.Members))
		for _, key := range slices.Sorted(maps.Keys(s.Members)) {
			rows = append(rows, []string{key, strconv.Itoa(s.Members[key])})
		}
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, renderTable([]string{"Member", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	_, _ = fmt.Fprintf(w, "\ndiagnostics: %d\n", len(s.Diagnostics))
	for _, d := range s.Diagnostics {
		_, _ = fmt.Fprintf(w, "  %s\n", d)
	}
}

// techniqueTree lists migrated techniques with their attributes and uniforms,
// followed by each material's technique and value keys.
func techniqueTree(doc gltf.Document) treeprint.Tree {
	tree := treeprint.NewWithRoot(techniques.ExtTechniquesWebGL)

	var techs []any
	if exts, ok := gltf.Object(doc["extensions"]); ok {
		if ext, ok := gltf.Object(exts[techniques.ExtTechniquesWebGL]); ok {
			techs, _ = gltf.Array(ext["techniques"])
		}
	}
	techBranch := tree.AddBranch(fmt.Sprintf("techniques (%d)", len(techs)))
	for i, v := range techs {
		tech, ok := gltf.Object(v)
		if !ok {
			techBranch.AddNode(fmt.Sprintf("[%d] <invalid>", i))
			continue
		}
		label := fmt.Sprintf("[%d]", i)
		if program, ok := gltf.Index(tech["program"]); ok {
			label += fmt.Sprintf(" program %d", program)
		}
		branch := techBranch.AddBranch(label)
		for _, member := range []string{"attributes", "uniforms"} {
			entries, ok := gltf.Object(tech[member])
			if !ok || len(entries) == 0 {
				continue
			}
			sub := branch.AddBranch(member)
			for _, name := range slices.Sorted(maps.Keys(entries)) {
				sub.AddNode(name + describeEntry(entries[name]))
			}
		}
	}

	materials, _ := gltf.Array(doc["materials"])
	matBranch := tree.AddBranch(fmt.Sprintf("materials (%d)", len(materials)))
	for i, v := range materials {
		mat, _ := gltf.Object(v)
		matExts, _ := gltf.Object(mat["extensions"])
		ext, ok := gltf.Object(matExts[techniques.ExtTechniquesWebGL])
		if !ok {
			matBranch.AddNode(fmt.Sprintf("[%d]", i))
			continue
		}
		label := fmt.Sprintf("[%d]", i)
		if t, ok := gltf.Index(ext["technique"]); ok {
			label += fmt.Sprintf(" technique %d", t)
		}
		branch := matBranch.AddBranch(label)
		if values, ok := gltf.Object(ext["values"]); ok {
			for _, key := range slices.Sorted(maps.Keys(values)) {
				branch.AddNode(key)
			}
		}
	}
	return tree
}

func describeEntry(v any) string {
	switch x := v.(type) {
	case map[string]any:
		var parts []string
		if t, ok := gltf.Index(x["type"]); ok {
			parts = append(parts, "type "+strconv.Itoa(t))
		}
		if s, ok := gltf.String(x["semantic"]); ok {
			parts = append(parts, s)
		}
		if len(parts) == 0 {
			return ""
		}
		return ": " + strings.Join(parts, ", ")
	case string:
		return " -> " + x
	default:
		return ""
	}
}

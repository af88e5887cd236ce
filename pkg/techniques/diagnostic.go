package techniques

import (
	"fmt"
	"strconv"
	"strings"
)

// DiagnosticKind classifies a non-fatal migration problem.
type DiagnosticKind string

const (
	// DiagUnresolvedValue: a material value key matched no uniform and was left as-is.
	DiagUnresolvedValue DiagnosticKind = "unresolved_value"
	// DiagUnresolvedParameter: an attribute or uniform names a missing parameter.
	DiagUnresolvedParameter DiagnosticKind = "unresolved_parameter"
	// DiagMissingTechnique: a material had no technique and fell back to index 0.
	DiagMissingTechnique DiagnosticKind = "missing_technique"
	// DiagInvalidTechnique: a material technique index is not a valid index.
	DiagInvalidTechnique DiagnosticKind = "invalid_technique"
	// DiagMalformedMember: a member had an unexpected JSON type and was skipped or replaced.
	DiagMalformedMember DiagnosticKind = "malformed_member"
	// DiagRenameConflict: a rename target key was already taken.
	DiagRenameConflict DiagnosticKind = "rename_conflict"
)

// Diagnostic describes one unresolved or skipped rewrite. Path is a JSON
// pointer into the migrated document.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path"`
	Key     string         `json:"key,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Path, d.Message)
}

type diagnostics []Diagnostic

func (ds *diagnostics) add(kind DiagnosticKind, path, key, format string, args ...any) {
	*ds = append(*ds, Diagnostic{
		Kind:    kind,
		Path:    path,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	})
}

// pointer builds an RFC 6901 JSON pointer from string and int tokens.
func pointer(tokens ...any) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteByte('/')
		switch v := tok.(type) {
		case int:
			b.WriteString(strconv.Itoa(v))
		case string:
			v = strings.ReplaceAll(v, "~", "~0")
			b.WriteString(strings.ReplaceAll(v, "/", "~1"))
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

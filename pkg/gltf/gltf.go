// Package gltf holds the loosely-typed glTF document model shared by the
// container decoder and the technique migrator.
//
// A Document is the raw JSON tree: objects are map[string]any, arrays are []any
// and numbers are json.Number so indices and literals survive untouched.
package gltf

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Document is a parsed glTF JSON document.
type Document = map[string]any

const (
	// MagicLength is the size of the container magic tag.
	MagicLength = 4

	ExtBinaryGLTF = "KHR_binary_glTF"
)

// Magic returns the leading magic tag of data. Inputs shorter than the tag
// return whatever bytes exist.
func Magic(data []byte) string {
	n := min(len(data), MagicLength)
	return string(data[:n])
}

// Object returns v as a JSON object.
func Object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Array returns v as a JSON array.
func Array(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// String returns v as a JSON string.
func String(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Index converts a JSON number to a non-negative integer index.
func Index(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return 0, false
			}
			i = int64(f)
		}
		if i < 0 || i > int64(int(^uint(0)>>1)) {
			return 0, false
		}
		return int(i), true
	case float64:
		if n < 0 || n != float64(int64(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// EnsureObject returns parent[key] as an object, creating it when missing.
// A non-object value is replaced and replaced reports true.
func EnsureObject(parent map[string]any, key string) (obj map[string]any, replaced bool) {
	cur, exists := parent[key]
	if m, ok := cur.(map[string]any); ok {
		return m, false
	}
	m := make(map[string]any)
	parent[key] = m
	return m, exists
}

// Clone deep-copies objects and arrays. Byte slices and scalars are shared.
func Clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneDocument deep-copies a document.
func CloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	return Clone(doc).(map[string]any)
}

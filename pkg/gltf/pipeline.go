package gltf

import "sort"

const (
	keyExtras   = "extras"
	keyPipeline = "_pipeline"
	keySource   = "source"
)

// AddPipelineExtras attaches an empty extras._pipeline object to the root and
// to every object held in a top-level array or dictionary. Existing extras are
// kept.
func AddPipelineExtras(doc Document) {
	if doc == nil {
		return
	}
	addPipelineExtras(doc)
	for _, key := range sortedKeys(doc) {
		switch key {
		case keyExtras, "extensions", "asset":
			continue
		}
		switch v := doc[key].(type) {
		case []any:
			for _, e := range v {
				if obj, ok := e.(map[string]any); ok {
					addPipelineExtras(obj)
				}
			}
		case map[string]any:
			// glTF 1.0 keeps collections as id -> object dictionaries.
			for _, e := range v {
				if obj, ok := e.(map[string]any); ok {
					addPipelineExtras(obj)
				}
			}
		}
	}
}

func addPipelineExtras(obj map[string]any) {
	extras, _ := EnsureObject(obj, keyExtras)
	if _, ok := extras[keyPipeline].(map[string]any); !ok {
		extras[keyPipeline] = make(map[string]any)
	}
}

// SetPipelineSource stores the binary payload of a buffer object.
func SetPipelineSource(obj map[string]any, source []byte) {
	extras, _ := EnsureObject(obj, keyExtras)
	pipeline, _ := EnsureObject(extras, keyPipeline)
	pipeline[keySource] = source
}

// PipelineSource returns the binary payload attached to a buffer object.
func PipelineSource(obj map[string]any) ([]byte, bool) {
	extras, ok := Object(obj[keyExtras])
	if !ok {
		return nil, false
	}
	pipeline, ok := Object(extras[keyPipeline])
	if !ok {
		return nil, false
	}
	b, ok := pipeline[keySource].([]byte)
	return b, ok
}

// DetachPipelineSource removes the binary payload from a buffer object and
// reports whether one was attached.
func DetachPipelineSource(obj map[string]any) bool {
	extras, ok := Object(obj[keyExtras])
	if !ok {
		return false
	}
	pipeline, ok := Object(extras[keyPipeline])
	if !ok {
		return false
	}
	if _, ok := pipeline[keySource]; !ok {
		return false
	}
	delete(pipeline, keySource)
	return true
}

// RemovePipelineExtras deletes every extras._pipeline member in the tree and
// drops extras objects left empty.
func RemovePipelineExtras(v any) {
	switch x := v.(type) {
	case map[string]any:
		if extras, ok := Object(x[keyExtras]); ok {
			delete(extras, keyPipeline)
			if len(extras) == 0 {
				delete(x, keyExtras)
			}
		}
		for _, e := range x {
			RemovePipelineExtras(e)
		}
	case []any:
		for _, e := range x {
			RemovePipelineExtras(e)
		}
	}
}

// FirstBuffer returns buffers[0] when buffers is a non-empty array of objects.
func FirstBuffer(doc Document) (map[string]any, bool) {
	buffers, ok := Array(doc["buffers"])
	if !ok || len(buffers) == 0 {
		return nil, false
	}
	return Object(buffers[0])
}

// Buffers returns every buffer object of doc: the buffers array in order, or
// the glTF 1.0 buffers dictionary in key order.
func Buffers(doc Document) []map[string]any {
	var out []map[string]any
	switch x := doc["buffers"].(type) {
	case []any:
		for _, v := range x {
			if obj, ok := Object(v); ok {
				out = append(out, obj)
			}
		}
	case map[string]any:
		for _, key := range sortedKeys(x) {
			if obj, ok := Object(x[key]); ok {
				out = append(out, obj)
			}
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

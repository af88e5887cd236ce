package gltf

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-json"
)

var errNotObject = errors.New("document root is not a JSON object")

// ParseJSON decodes a single JSON object. Numbers are kept as json.Number and
// trailing data after the object is rejected.
func ParseJSON(text []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid JSON: trailing data")
		}
		return nil, err
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return doc, nil
}

// Marshal encodes a document with pipeline extras removed. The input is not
// modified.
func Marshal(doc Document, indent bool) ([]byte, error) {
	clean := CloneDocument(doc)
	RemovePipelineExtras(clean)
	if indent {
		return json.MarshalIndent(clean, "", "  ")
	}
	return json.Marshal(clean)
}

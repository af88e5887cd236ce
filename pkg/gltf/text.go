package gltf

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextFromBytes decodes b as UTF-8, dropping a leading byte order mark.
// Invalid sequences decode to U+FFFD.
func TextFromBytes(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

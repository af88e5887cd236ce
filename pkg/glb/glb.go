// Package glb decodes binary glTF containers.
//
// A container is a 12-byte header followed either by a single JSON document
// and trailing binary payload (version 1) or by a sequence of typed chunks
// (version 2). Decoding yields the parsed document with the binary payload
// attached to its embedded buffer, zero-copy over the input bytes.
package glb

import (
	"github.com/samcharles93/glb/pkg/gltf"
	"github.com/samcharles93/glb/pkg/techniques"
)

// Container layout constants must never change.
const (
	// Magic is the tag at the start of every container.
	Magic = "glTF"

	HeaderSize      = 12
	ChunkHeaderSize = 8

	// Version 1 carries a 20-byte header: the common header plus content
	// length and content format.
	v1HeaderSize    = 20
	v1FormatJSON    = 0
	sizeOfUint32    = 4
	jsonPaddingByte = ' '
)

type ChunkType uint32

const (
	ChunkJSON ChunkType = 0x4E4F534A
	ChunkBIN  ChunkType = 0x004E4942
)

func (t ChunkType) String() string {
	switch t {
	case ChunkJSON:
		return "JSON"
	case ChunkBIN:
		return "BIN"
	default:
		b := []byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)}
		for i, c := range b {
			if c < 0x20 || c > 0x7e {
				b[i] = '.'
			}
		}
		return string(b)
	}
}

type Header struct {
	Magic   [4]byte
	Version uint32
	Length  uint32
}

// Chunk locates one chunk payload inside the container.
type Chunk struct {
	Type   ChunkType
	Offset uint32
	Length uint32
	// Used is false for chunks that were read but ignored, such as a second
	// JSON chunk or an unknown type.
	Used bool
}

// End returns the offset just past the chunk payload.
func (c Chunk) End() uint64 {
	return uint64(c.Offset) + uint64(c.Length)
}

// Container is a decoded binary glTF.
type Container struct {
	Header   Header
	Document gltf.Document
	// Binary is the embedded payload. It aliases the decoded input.
	Binary []byte
	// Chunks lists every chunk of a version 2 container in file order.
	Chunks []Chunk
	// Diagnostics are the unresolved references left by technique migration.
	Diagnostics []techniques.Diagnostic

	// mapping is the read-only file mapping created by Open, released by Close.
	mapping []byte
}

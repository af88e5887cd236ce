package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/samcharles93/glb/pkg/gltf"
)

// Writer builds a version 2 container.
//
// Chunks are buffered until Finalise, which writes the header with the final
// length followed by every chunk in the order it was added.
type Writer struct {
	w      io.Writer
	chunks []pendingChunk
	size   uint64
	closed bool
}

type pendingChunk struct {
	typ     ChunkType
	payload []byte
	pad     byte
}

// NewWriter creates a writer targeting w.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, errors.New("glb: nil writer")
	}
	return &Writer{w: w, size: HeaderSize}, nil
}

// WriteChunk queues a chunk. Payloads are padded to a 4-byte boundary with
// spaces for JSON and zeros otherwise.
func (w *Writer) WriteChunk(typ ChunkType, payload []byte) error {
	if w.closed {
		return errors.New("glb: writer already finalised")
	}
	pad := byte(0)
	if typ == ChunkJSON {
		pad = jsonPaddingByte
	}
	n := uint64(ChunkHeaderSize) + align4(uint64(len(payload)))
	if w.size+n > math.MaxUint32 {
		return fmt.Errorf("glb: container exceeds %d bytes", uint64(math.MaxUint32))
	}
	w.size += n
	w.chunks = append(w.chunks, pendingChunk{typ: typ, payload: payload, pad: pad})
	return nil
}

// Finalise writes the container. The writer cannot be reused.
func (w *Writer) Finalise() error {
	if w.closed {
		return errors.New("glb: writer already finalised")
	}
	w.closed = true

	var hdr [HeaderSize]byte
	copy(hdr[:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], 2)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(w.size))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return err
	}

	var padding [3]byte
	for _, c := range w.chunks {
		padded := align4(uint64(len(c.payload)))
		var ch [ChunkHeaderSize]byte
		binary.LittleEndian.PutUint32(ch[0:4], uint32(padded))
		binary.LittleEndian.PutUint32(ch[4:8], uint32(c.typ))
		if _, err := w.w.Write(ch[:]); err != nil {
			return err
		}
		if _, err := w.w.Write(c.payload); err != nil {
			return err
		}
		extra := padding[:padded-uint64(len(c.payload))]
		for i := range extra {
			extra[i] = c.pad
		}
		if _, err := w.w.Write(extra); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes doc and bin as a version 2 container. Pipeline extras are
// not serialized. A nil bin omits the BIN chunk.
func Encode(w io.Writer, doc gltf.Document, bin []byte) error {
	text, err := gltf.Marshal(doc, false)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	gw, err := NewWriter(w)
	if err != nil {
		return err
	}
	if err := gw.WriteChunk(ChunkJSON, text); err != nil {
		return err
	}
	if bin != nil {
		if err := gw.WriteChunk(ChunkBIN, bin); err != nil {
			return err
		}
	}
	return gw.Finalise()
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

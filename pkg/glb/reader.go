package glb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/glb/pkg/gltf"
	"github.com/samcharles93/glb/pkg/techniques"
)

// maxContainerSize is the largest total length a header can declare.
const maxContainerSize = math.MaxUint32

// Open maps a container file read-only and decodes it. Files too small to map,
// or on filesystems without mmap support, are read into memory instead. Bytes
// past the largest length a header can declare are never loaded.
// The container must be closed to release the mapping.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := min(stat.Size(), maxContainerSize)
	if size < HeaderSize {
		return OpenReaderAt(f, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return OpenReaderAt(f, size)
	}
	c, err := Parse(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	c.mapping = data
	return c, nil
}

// OpenReaderAt copies the first size bytes of r into memory and decodes them.
// A reader shorter than size yields ErrTruncatedContainer.
func OpenReaderAt(r io.ReaderAt, size int64) (*Container, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrTruncatedContainer, size)
	}
	size = min(size, maxContainerSize)
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(r, 0, size), data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedContainer, err)
		}
		return nil, err
	}
	return Parse(data)
}

// Close drops the payload and releases the mapping of an opened container.
// The document stays usable: buffer sources that referenced the payload are
// detached from it.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	for _, buf := range gltf.Buffers(c.Document) {
		gltf.DetachPipelineSource(buf)
	}
	c.Binary = nil
	if c.mapping == nil {
		return nil
	}
	err := unix.Munmap(c.mapping)
	c.mapping = nil
	return err
}

// Parse decodes a complete container held in data. The returned Binary and
// the buffer source attached to the document alias data; nothing else of data
// is retained.
func Parse(data []byte) (*Container, error) {
	if gltf.Magic(data) != Magic {
		return nil, ErrInvalidMagic
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrTruncatedContainer, len(data))
	}

	var hdr Header
	copy(hdr.Magic[:], data[:4])
	hdr.Version = readU32(data, 4)
	hdr.Length = readU32(data, 8)

	if hdr.Version != 1 && hdr.Version != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	if hdr.Length < HeaderSize {
		return nil, fmt.Errorf("%w: declared length %d is shorter than the header", ErrTruncatedContainer, hdr.Length)
	}
	if uint64(hdr.Length) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d available bytes", ErrTruncatedContainer, hdr.Length, len(data))
	}

	c := &Container{Header: hdr}
	var err error
	if hdr.Version == 1 {
		err = c.parseVersion1(data)
	} else {
		err = c.parseVersion2(data)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) parseVersion1(data []byte) error {
	length := uint64(c.Header.Length)
	if length < v1HeaderSize {
		return fmt.Errorf("%w: version 1 header needs %d bytes, length is %d", ErrTruncatedContainer, v1HeaderSize, length)
	}
	contentLength := uint64(readU32(data, 12))
	contentFormat := readU32(data, 16)
	if contentFormat != v1FormatJSON {
		return fmt.Errorf("%w: %d", ErrUnsupportedContentFormat, contentFormat)
	}

	binaryStart := v1HeaderSize + contentLength
	if binaryStart > length {
		return fmt.Errorf("%w: content length %d exceeds container length %d", ErrTruncatedContainer, contentLength, length)
	}

	doc, err := parseDocument(data[v1HeaderSize:binaryStart])
	if err != nil {
		return err
	}
	gltf.AddPipelineExtras(doc)

	c.Binary = data[binaryStart:length:length]
	if buffers, ok := gltf.Object(doc["buffers"]); ok && len(buffers) > 0 {
		// Older exporters named the embedded buffer KHR_binary_glTF.
		buf, ok := gltf.Object(buffers["binary_glTF"])
		if !ok {
			buf, ok = gltf.Object(buffers[gltf.ExtBinaryGLTF])
		}
		if ok {
			gltf.SetPipelineSource(buf, c.Binary)
			delete(buf, "uri")
		}
	}
	gltf.RemoveExtensionsUsed(doc, gltf.ExtBinaryGLTF)

	c.Document = doc
	return nil
}

func (c *Container) parseVersion2(data []byte) error {
	length := uint64(c.Header.Length)
	offset := uint64(HeaderSize)

	var (
		doc gltf.Document
		bin []byte
	)
	for offset < length {
		if offset+ChunkHeaderSize > length {
			return fmt.Errorf("%w: chunk %d header at offset %d exceeds container length %d",
				ErrTruncatedContainer, len(c.Chunks), offset, length)
		}
		chunkLength := readU32(data, int(offset))
		chunkType := ChunkType(readU32(data, int(offset)+sizeOfUint32))
		start := offset + ChunkHeaderSize
		end := start + uint64(chunkLength)
		if end > length {
			return fmt.Errorf("%w: chunk %d (%s) of %d bytes at offset %d exceeds container length %d",
				ErrTruncatedContainer, len(c.Chunks), chunkType, chunkLength, start, length)
		}

		chunk := Chunk{
			Type:   chunkType,
			Offset: uint32(start),
			Length: chunkLength,
		}
		payload := data[start:end:end]

		switch chunkType {
		case ChunkJSON:
			if doc != nil {
				break
			}
			parsed, err := parseDocument(payload)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", len(c.Chunks), err)
			}
			c.Diagnostics = techniques.Migrate(parsed)
			gltf.AddPipelineExtras(parsed)
			doc = parsed
			chunk.Used = true
		case ChunkBIN:
			if bin != nil {
				break
			}
			bin = payload
			chunk.Used = true
		}

		c.Chunks = append(c.Chunks, chunk)
		offset = end
	}

	if doc == nil {
		return ErrMissingJSONChunk
	}
	if bin != nil {
		if buf, ok := gltf.FirstBuffer(doc); ok {
			gltf.SetPipelineSource(buf, bin)
		}
	}
	c.Document = doc
	c.Binary = bin
	return nil
}

// parseDocument decodes chunk text into a document. Trailing NUL padding is
// tolerated.
func parseDocument(payload []byte) (gltf.Document, error) {
	payload = bytes.TrimRight(payload, "\x00")
	text, err := gltf.TextFromBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	doc, err := gltf.ParseJSON([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return doc, nil
}

func readU32(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off : off+sizeOfUint32])
}

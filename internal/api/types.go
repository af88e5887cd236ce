package api

import (
	"github.com/goccy/go-json"

	"github.com/samcharles93/glb/pkg/glb"
	"github.com/samcharles93/glb/pkg/techniques"
)

type ChunkInfo struct {
	Type   string `json:"type"`
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
	Used   bool   `json:"used"`
}

type ContainerResponse struct {
	ID           string                  `json:"id"`
	Object       string                  `json:"object"`
	CreatedAt    int64                   `json:"created_at"`
	Version      uint32                  `json:"version"`
	Length       uint32                  `json:"length"`
	Chunks       []ChunkInfo             `json:"chunks,omitempty"`
	BinaryLength int                     `json:"binary_length"`
	Diagnostics  []techniques.Diagnostic `json:"diagnostics"`
	Document     json.RawMessage         `json:"document,omitempty"`
}

type DeleteContainerResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

func chunkInfos(chunks []glb.Chunk) []ChunkInfo {
	out := make([]ChunkInfo, len(chunks))
	for i, c := range chunks {
		out[i] = ChunkInfo{
			Type:   c.Type.String(),
			Offset: c.Offset,
			Length: c.Length,
			Used:   c.Used,
		}
	}
	return out
}

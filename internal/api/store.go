package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/glb/pkg/glb"
	"github.com/samcharles93/glb/pkg/gltf"
	"github.com/samcharles93/glb/pkg/techniques"
)

type containerRecord struct {
	ID          string
	CreatedAt   time.Time
	Header      glb.Header
	Chunks      []glb.Chunk
	Diagnostics []techniques.Diagnostic
	Document    gltf.Document
	Binary      []byte
}

// ContainerStore keeps decoded containers in memory, keyed by id.
type ContainerStore struct {
	mu         sync.Mutex
	containers map[string]*containerRecord
}

func NewContainerStore() *ContainerStore {
	return &ContainerStore{
		containers: make(map[string]*containerRecord),
	}
}

// Put stores c and returns its record. The buffer c was parsed from must not
// be reused by the caller since the stored binary aliases it.
func (s *ContainerStore) Put(c *glb.Container, now time.Time) *containerRecord {
	rec := &containerRecord{
		ID:          newContainerID(),
		CreatedAt:   now,
		Header:      c.Header,
		Chunks:      c.Chunks,
		Diagnostics: c.Diagnostics,
		Document:    c.Document,
		Binary:      c.Binary,
	}
	s.mu.Lock()
	s.containers[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

func (s *ContainerStore) Get(id string) (*containerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.containers[id]
	return rec, ok
}

func (s *ContainerStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[id]; !ok {
		return false
	}
	delete(s.containers, id)
	return true
}

func (s *ContainerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.containers)
}

func newContainerID() string {
	return "ctr_" + uuid.NewString()
}

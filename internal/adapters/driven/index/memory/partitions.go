package memory

import (
	"context"
	"sync"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// Ensure PartitionStore implements the interface.
var _ driven.PartitionStore = (*PartitionStore)(nil)

// partition bundles one partition's indexes and stored documents.
type partition struct {
	vector  *VectorIndex
	lexical *LexicalIndex
	docs    map[string]domain.Document
}

// PartitionStore holds per-partition indexes and documents in memory.
type PartitionStore struct {
	mu         sync.RWMutex
	order      []string
	partitions map[string]*partition
}

// NewPartitionStore creates an empty partition store.
func NewPartitionStore() *PartitionStore {
	return &PartitionStore{
		partitions: make(map[string]*partition),
	}
}

// AddDocument stores a document and indexes it lexically, plus densely
// when a vector is supplied. The partition is created on first use.
func (s *PartitionStore) AddDocument(partitionID, docID string, doc domain.Document, vector []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partitions[partitionID]
	if !ok {
		p = &partition{
			lexical: NewLexicalIndex(),
			docs:    make(map[string]domain.Document),
		}
		s.partitions[partitionID] = p
		s.order = append(s.order, partitionID)
	}

	p.docs[docID] = doc
	p.lexical.Add(docID, doc.Content)

	if vector != nil {
		if p.vector == nil {
			p.vector = NewVectorIndex()
		}
		p.vector.Add(docID, vector)
	}
}

// Partitions returns the ids of all partitions with indexes.
func (s *PartitionStore) Partitions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Vector returns the dense index for a partition, if any document in it
// carried a vector.
func (s *PartitionStore) Vector(partitionID string) (driven.VectorIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[partitionID]
	if !ok || p.vector == nil {
		return nil, false
	}
	return p.vector, true
}

// Lexical returns the lexical index for a partition.
func (s *PartitionStore) Lexical(partitionID string) (driven.LexicalIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[partitionID]
	if !ok {
		return nil, false
	}
	return p.lexical, true
}

// Document fetches a stored document by partition and id.
func (s *PartitionStore) Document(_ context.Context, partitionID, docID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[partitionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc, ok := p.docs[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// Close releases all index handles.
func (s *PartitionStore) Close() error {
	return nil
}

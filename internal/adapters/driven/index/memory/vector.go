// Package memory provides in-memory partition index implementations:
// a brute-force cosine vector index and a term-overlap lexical index.
// Suitable for small corpora and as test fixtures; larger deployments
// load the same structures from snapshots.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force cosine similarity index.
type VectorIndex struct {
	mu      sync.RWMutex
	ids     []string
	vectors map[string][]float32
}

// NewVectorIndex creates an empty vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		vectors: make(map[string][]float32),
	}
}

// Add stores a document vector. Re-adding an id replaces its vector.
func (idx *VectorIndex) Add(id string, vector []float32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.vectors[id]; !exists {
		idx.ids = append(idx.ids, id)
	}
	idx.vectors[id] = vector
}

// Len returns the number of indexed vectors.
func (idx *VectorIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Search finds the k nearest neighbours by cosine similarity, mapped
// from [-1,1] to [0,1]. Ties break on document id for determinism.
func (idx *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(idx.ids))
	for _, id := range idx.ids {
		sim := cosine(query, idx.vectors[id])
		hits = append(hits, driven.VectorHit{
			DocID:      id,
			Similarity: (sim + 1) / 2,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].DocID < hits[j].DocID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (idx *VectorIndex) Close() error {
	return nil
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

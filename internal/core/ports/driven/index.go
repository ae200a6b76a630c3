package driven

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// VectorIndex provides dense similarity search over one partition.
// Index building is out of scope: the index is consumed as a service.
type VectorIndex interface {
	// Search finds the k nearest neighbours to the query vector.
	// Similarity scores are normalised to [0,1].
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// DocID identifies the document within its partition.
	DocID string

	// Similarity is the normalised similarity score in [0,1].
	Similarity float64
}

// LexicalIndex provides term-overlap ranking over one partition's full
// document set. Results carry rank order only - no absolute score.
type LexicalIndex interface {
	// Rank returns up to k document ids ordered by lexical relevance,
	// best match first.
	Rank(ctx context.Context, query string, k int) ([]string, error)

	// Close releases resources.
	Close() error
}

// PartitionStore gives access to the per-partition index handles and the
// stored documents they refer to. A partition missing from the store is
// skipped with a logged warning, never treated as an error.
type PartitionStore interface {
	// Partitions returns the ids of all partitions with indexes.
	Partitions() []string

	// Vector returns the dense index for a partition, if indexed.
	Vector(partitionID string) (VectorIndex, bool)

	// Lexical returns the lexical index for a partition, if indexed.
	Lexical(partitionID string) (LexicalIndex, bool)

	// Document fetches a stored document by partition and id.
	// Content is raw as stored; the retriever cleans it before returning.
	Document(ctx context.Context, partitionID, docID string) (*domain.Document, error)

	// Close releases all index handles.
	Close() error
}

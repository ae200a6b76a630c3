package driven

import "context"

// Reranker reorders a small candidate set with a second-pass pairwise
// relevance model. This is an optional service - when nil or failing,
// the retriever keeps the fusion ordering.
//
// Reranking is compute-bound: callers route invocations through a
// bounded worker pool so one session cannot starve the others.
type Reranker interface {
	// ScoreBatch scores candidates against the literal query text and
	// returns the top-n candidate ids best first, n <= topN.
	ScoreBatch(ctx context.Context, query string, candidates []RerankCandidate, topN int) ([]RerankResult, error)

	// ModelName returns the model identifier for logging.
	ModelName() string

	// Close releases resources.
	Close() error
}

// RerankCandidate is one document offered for reranking.
type RerankCandidate struct {
	// ID maps the result back to the candidate.
	ID string

	// Content is the text scored against the query.
	Content string
}

// RerankResult is one reranked candidate.
type RerankResult struct {
	// ID matches the candidate ID.
	ID string

	// Score is the pairwise relevance score, higher is better.
	Score float64
}

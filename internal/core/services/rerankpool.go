package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// DefaultRerankWorkers bounds concurrent rerank calls across all sessions.
const DefaultRerankWorkers = 4

// RerankPool routes rerank invocations through a bounded semaphore so the
// compute-bound rerank step cannot starve unrelated sessions. Calls remain
// synchronous for the caller: ScoreBatch blocks until a slot is free and
// the model has answered.
type RerankPool struct {
	reranker driven.Reranker
	sem      *semaphore.Weighted
}

// NewRerankPool creates a pool around the reranker with the given number
// of worker slots. A nil reranker yields a nil pool; callers treat that
// as "reranking unavailable".
func NewRerankPool(reranker driven.Reranker, workers int) *RerankPool {
	if reranker == nil {
		return nil
	}
	if workers <= 0 {
		workers = DefaultRerankWorkers
	}
	return &RerankPool{
		reranker: reranker,
		sem:      semaphore.NewWeighted(int64(workers)),
	}
}

// ScoreBatch acquires a worker slot and scores the candidates.
func (p *RerankPool) ScoreBatch(
	ctx context.Context, query string, candidates []driven.RerankCandidate, topN int,
) ([]driven.RerankResult, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire rerank worker: %w", err)
	}
	defer p.sem.Release(1)

	return p.reranker.ScoreBatch(ctx, query, candidates, topN)
}

// ModelName returns the underlying reranker's model identifier.
func (p *RerankPool) ModelName() string {
	return p.reranker.ModelName()
}

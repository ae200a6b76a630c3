package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driving"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrievalService = (*RetrieverService)(nil)

// fusedCandidate holds intermediate per-partition results before hydration.
type fusedCandidate struct {
	docID string
	score float64
}

// RetrieverService performs dense+lexical hybrid retrieval with rerank
// over one partition at a time.
type RetrieverService struct {
	partitions driven.PartitionStore
	embedder   driven.EmbeddingService
	rerankPool *RerankPool
}

// NewRetrieverService creates a retriever. The embedder and rerankPool
// parameters are optional (can be nil): retrieval degrades to
// lexical-only ranking and fusion ordering respectively.
func NewRetrieverService(
	partitions driven.PartitionStore,
	embedder driven.EmbeddingService,
	rerankPool *RerankPool,
) *RetrieverService {
	return &RetrieverService{
		partitions: partitions,
		embedder:   embedder,
		rerankPool: rerankPool,
	}
}

// Retrieve runs the full pipeline for one partition: widen both sources,
// fuse, narrow, rerank, clean. Returns at most opts.TopK documents.
func (s *RetrieverService) Retrieve(
	ctx context.Context, partitionID, query string, opts domain.RetrieveOptions,
) ([]domain.Document, error) {
	logger.Section("Hybrid Retrieval: " + partitionID)
	opts = opts.Normalised()
	logger.Debug("Query: %q, k=%d, alpha=%.2f", query, opts.TopK, opts.Alpha)

	vectorIdx, hasVector := s.partitions.Vector(partitionID)
	lexicalIdx, hasLexical := s.partitions.Lexical(partitionID)

	if !hasVector && !hasLexical {
		// Unindexed partition: skip with a warning, never an error.
		logger.Warn("Partition %q has no indexes, skipping", partitionID)
		return []domain.Document{}, nil
	}

	candidateLimit := domain.CandidateMultiplier * opts.TopK

	denseHits, alpha := s.denseSearch(ctx, vectorIdx, hasVector, query, candidateLimit, opts)
	lexicalIDs := s.lexicalSearch(ctx, lexicalIdx, hasLexical, partitionID, query, candidateLimit)

	if len(denseHits) == 0 && len(lexicalIDs) == 0 {
		logger.Info("Partition %q: both sources empty", partitionID)
		return []domain.Document{}, nil
	}

	fused := fuseScores(denseHits, lexicalIDs, alpha)
	logger.Debug("Fusion: %d candidates (dense=%d, lexical=%d)",
		len(fused), len(denseHits), len(lexicalIDs))

	// Cost control: only the top slice of fused candidates reaches the
	// reranker.
	narrowLimit := domain.RerankMultiplier * opts.TopK
	if len(fused) > narrowLimit {
		fused = fused[:narrowLimit]
	}

	docs, err := s.hydrate(ctx, partitionID, fused)
	if err != nil {
		return nil, fmt.Errorf("hydrate candidates: %w", err)
	}

	docs = s.rerank(ctx, query, docs, opts.TopK)

	if len(docs) > opts.TopK {
		docs = docs[:opts.TopK]
	}

	logger.Info("Partition %q: returning %d documents", partitionID, len(docs))
	return docs, nil
}

// denseSearch embeds the query and searches the vector index. Any failure
// degrades to lexical-only by returning no hits and an alpha of zero.
func (s *RetrieverService) denseSearch(
	ctx context.Context,
	idx driven.VectorIndex,
	hasVector bool,
	query string,
	limit int,
	opts domain.RetrieveOptions,
) ([]driven.VectorHit, float64) {
	if opts.ForceLexical || !hasVector || s.embedder == nil {
		logger.Debug("Dense step disabled (forced=%t, indexed=%t, embedder=%t)",
			opts.ForceLexical, hasVector, s.embedder != nil)
		return nil, 0
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, degrading to lexical-only: %v", err)
		return nil, 0
	}

	hits, err := idx.Search(ctx, embedding, limit)
	if err != nil {
		logger.Warn("Vector search failed, degrading to lexical-only: %v", err)
		return nil, 0
	}

	logger.Debug("Dense search: %d hits", len(hits))
	return hits, opts.Alpha
}

// lexicalSearch ranks the partition's documents by term overlap.
func (s *RetrieverService) lexicalSearch(
	ctx context.Context, idx driven.LexicalIndex, hasLexical bool, partitionID, query string, limit int,
) []string {
	if !hasLexical {
		logger.Debug("Partition %q has no lexical index", partitionID)
		return nil
	}

	ids, err := idx.Rank(ctx, query, limit)
	if err != nil {
		logger.Warn("Lexical search failed on %q: %v", partitionID, err)
		return nil
	}

	logger.Debug("Lexical search: %d hits", len(ids))
	return ids
}

// fuseScores combines the dense similarity scores with the lexical rank
// signal:
//
//	combined = alpha*dense + (1-alpha)*(1 - rank/N)
//
// Documents present only in the lexical list score (1-alpha)*(1 - rank/N);
// documents absent from both sources are excluded. The result is sorted
// by combined score descending with the document id as a deterministic
// tie-break.
func fuseScores(denseHits []driven.VectorHit, lexicalIDs []string, alpha float64) []fusedCandidate {
	nSparse := float64(len(lexicalIDs))

	sparseRank := make(map[string]int, len(lexicalIDs))
	for i, id := range lexicalIDs {
		if _, seen := sparseRank[id]; !seen {
			sparseRank[id] = i
		}
	}

	scores := make(map[string]float64, len(denseHits)+len(lexicalIDs))

	for _, hit := range denseHits {
		lexSignal := 0.0
		if rank, ok := sparseRank[hit.DocID]; ok {
			lexSignal = 1 - float64(rank)/nSparse
		}
		scores[hit.DocID] = alpha*hit.Similarity + (1-alpha)*lexSignal
	}

	for id, rank := range sparseRank {
		if _, ok := scores[id]; ok {
			continue
		}
		scores[id] = (1 - alpha) * (1 - float64(rank)/nSparse)
	}

	fused := make([]fusedCandidate, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, fusedCandidate{docID: id, score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].docID < fused[j].docID
	})

	return fused
}

// hydrate resolves candidate ids to stored documents, cleaning content
// and attaching the bounded fusion score. Deleted documents are skipped.
func (s *RetrieverService) hydrate(
	ctx context.Context, partitionID string, candidates []fusedCandidate,
) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(candidates))

	for _, c := range candidates {
		doc, err := s.partitions.Document(ctx, partitionID, c.docID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.Debug("Skipping candidate %s: %v", c.docID, err)
			continue
		}

		d := *doc
		d.Content = domain.CleanContent(d.Content)
		d.Score = c.score
		docs = append(docs, d)
	}

	return docs, nil
}

// rerank reorders the narrowed candidates with the pairwise model. Any
// failure keeps the fusion ordering.
func (s *RetrieverService) rerank(
	ctx context.Context, query string, docs []domain.Document, topN int,
) []domain.Document {
	if s.rerankPool == nil || len(docs) == 0 {
		return docs
	}

	byID := make(map[string]domain.Document, len(docs))
	candidates := make([]driven.RerankCandidate, len(docs))
	for i, d := range docs {
		key := d.Key()
		byID[key] = d
		candidates[i] = driven.RerankCandidate{ID: key, Content: d.Content}
	}

	results, err := s.rerankPool.ScoreBatch(ctx, query, candidates, topN)
	if err != nil {
		logger.Warn("Rerank failed, keeping fusion order: %v", err)
		return docs
	}

	reranked := make([]domain.Document, 0, len(results))
	for _, r := range results {
		if d, ok := byID[r.ID]; ok {
			reranked = append(reranked, d)
		}
	}

	if len(reranked) == 0 {
		logger.Warn("Rerank returned no known candidates, keeping fusion order")
		return docs
	}

	return reranked
}

// roundResult carries one partition's retrieval outcome across the
// round barrier.
type roundResult struct {
	partitionID string
	docs        []domain.Document
}

// RetrieveRound retrieves from every partition in the plan concurrently,
// merges in plan order after all calls complete, and queries the fallback
// partition when the merged count is below the threshold. Per-partition
// failures are logged and skipped, never failing sibling partitions.
func RetrieveRound(
	ctx context.Context,
	retriever driving.RetrievalService,
	plan domain.PartitionPlan,
	query string,
	opts domain.RetrieveOptions,
	fallbackThreshold int,
) []domain.Document {
	if fallbackThreshold <= 0 {
		fallbackThreshold = domain.DefaultFallbackThreshold
	}

	results := make([]roundResult, len(plan.Partitions))

	// Synchronisation barrier: the accumulator is only combined after
	// every partition call has returned.
	var wg sync.WaitGroup
	for i, pid := range plan.Partitions {
		wg.Add(1)
		go func(slot int, partitionID string) {
			defer wg.Done()
			docs, err := retriever.Retrieve(ctx, partitionID, query, opts)
			if err != nil {
				logger.Warn("Partition %q retrieval failed, skipping: %v", partitionID, err)
				return
			}
			results[slot] = roundResult{partitionID: partitionID, docs: docs}
		}(i, pid)
	}
	wg.Wait()

	var merged []domain.Document
	for _, r := range results {
		merged = append(merged, r.docs...)
	}
	merged = domain.DedupDocuments(merged)

	if plan.Fallback && plan.FallbackPartition != "" && len(merged) < fallbackThreshold {
		logger.Info("Round returned %d (< %d), querying fallback partition %q",
			len(merged), fallbackThreshold, plan.FallbackPartition)

		docs, err := retriever.Retrieve(ctx, plan.FallbackPartition, query, opts)
		if err != nil {
			logger.Warn("Fallback partition %q failed, skipping: %v", plan.FallbackPartition, err)
		} else {
			merged = domain.DedupDocuments(append(merged, docs...))
		}
	}

	return merged
}

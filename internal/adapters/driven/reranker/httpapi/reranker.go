// Package httpapi provides a reranker adapter for HTTP rerank servers
// speaking the text-embeddings-inference /rerank protocol.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultModel   = "bge-reranker-base"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the HTTP reranker.
type Config struct {
	// BaseURL is the rerank server base URL (default: http://localhost:8080).
	BaseURL string

	// Model is the model identifier, used for logging only: the server
	// decides what it actually serves.
	Model string

	// APIKey is an optional bearer token.
	APIKey string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Reranker scores candidates against a query through a rerank server.
type Reranker struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// rerankRequest is the /rerank request format.
type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// rerankResult is one entry of the /rerank response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewReranker creates a new HTTP reranker.
func NewReranker(cfg Config) *Reranker {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// ScoreBatch scores the candidates against the literal query text and
// returns the top-n candidate ids best first.
func (r *Reranker) ScoreBatch(
	ctx context.Context, query string, candidates []driven.RerankCandidate, topN int,
) ([]driven.RerankResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Query: query,
		Texts: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("rerank error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("rerank error (status %d): %s", resp.StatusCode, string(body))
	}

	var scored []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&scored); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	results := make([]driven.RerankResult, 0, topN)
	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(candidates) {
			continue
		}
		results = append(results, driven.RerankResult{
			ID:    candidates[s.Index].ID,
			Score: s.Score,
		})
		if len(results) >= topN {
			break
		}
	}

	return results, nil
}

// ModelName returns the model identifier for logging.
func (r *Reranker) ModelName() string {
	return r.model
}

// Close releases resources.
func (r *Reranker) Close() error {
	return nil
}

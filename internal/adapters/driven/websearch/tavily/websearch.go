// Package tavily provides web augmentation through the Tavily search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Tavily API endpoint.
	DefaultBaseURL = "https://api.tavily.com"
	// DefaultTimeout for search requests.
	DefaultTimeout = 30 * time.Second
	// DefaultSearchDepth trades latency for result quality.
	DefaultSearchDepth = "advanced"
	// DefaultQuerySuffix narrows open-web results toward regulations and
	// safety standards rather than news coverage of incidents.
	DefaultQuerySuffix = " relevant regulations and safety standards"
	// requestsPerSecond keeps usage comfortably inside the API quota.
	requestsPerSecond = 1.0
)

// Config holds Tavily search configuration.
type Config struct {
	// APIKey is the Tavily API key (required).
	APIKey string
	// BaseURL is the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string
	// SearchDepth is "basic" or "advanced". Defaults to DefaultSearchDepth.
	SearchDepth string
	// QuerySuffix is appended to every query. Defaults to DefaultQuerySuffix;
	// set to a single space to disable.
	QuerySuffix string
	// Timeout for API requests. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// WebSearchService implements driven.WebSearchService using Tavily.
type WebSearchService struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

var _ driven.WebSearchService = (*WebSearchService)(nil)

// NewWebSearchService creates a Tavily-backed web search service.
func NewWebSearchService(config Config) (*WebSearchService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("tavily: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.SearchDepth == "" {
		config.SearchDepth = DefaultSearchDepth
	}
	if config.QuerySuffix == "" {
		config.QuerySuffix = DefaultQuerySuffix
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &WebSearchService{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 2),
	}, nil
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search returns up to k documents for the query.
func (s *WebSearchService) Search(ctx context.Context, query string, k int) ([]domain.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := searchRequest{
		APIKey:      s.config.APIKey,
		Query:       query + s.config.QuerySuffix,
		SearchDepth: s.config.SearchDepth,
		MaxResults:  k,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/search", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tavily API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tavily API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	docs := make([]domain.Document, 0, len(result.Results))
	for _, r := range result.Results {
		if r.Content == "" {
			continue
		}
		docs = append(docs, domain.Document{
			PartitionID: domain.WebPartitionID,
			Source:      r.URL,
			Section:     r.Title,
			Content:     domain.CleanContent(r.Content),
			Score:       r.Score,
		})
	}

	return docs, nil
}

// Close releases resources.
func (s *WebSearchService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

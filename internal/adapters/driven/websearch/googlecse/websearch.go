// Package googlecse provides web augmentation through the Google Custom
// Search JSON API, as an alternative to the Tavily backend.
package googlecse

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

const (
	// DefaultQuerySuffix narrows open-web results toward regulations and
	// safety standards rather than news coverage of incidents.
	DefaultQuerySuffix = " relevant regulations and safety standards"
	// maxPageSize is the API's hard cap on results per request.
	maxPageSize = 10
	// requestsPerSecond stays well inside the free-tier daily quota.
	requestsPerSecond = 1.0
)

// Config holds Google Custom Search configuration.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string
	// EngineID is the programmable search engine id (required).
	EngineID string
	// QuerySuffix is appended to every query. Defaults to DefaultQuerySuffix;
	// set to a single space to disable.
	QuerySuffix string
}

// WebSearchService implements driven.WebSearchService using Google CSE.
type WebSearchService struct {
	config  Config
	service *customsearch.Service
	limiter *rate.Limiter
}

var _ driven.WebSearchService = (*WebSearchService)(nil)

// NewWebSearchService creates a Google CSE-backed web search service.
func NewWebSearchService(ctx context.Context, config Config) (*WebSearchService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("googlecse: API key is required")
	}
	if config.EngineID == "" {
		return nil, fmt.Errorf("googlecse: search engine id is required")
	}
	if config.QuerySuffix == "" {
		config.QuerySuffix = DefaultQuerySuffix
	}

	service, err := customsearch.NewService(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating customsearch service: %w", err)
	}

	return &WebSearchService{
		config:  config,
		service: service,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 2),
	}, nil
}

// Search returns up to k documents for the query.
func (s *WebSearchService) Search(ctx context.Context, query string, k int) ([]domain.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if k <= 0 || k > maxPageSize {
		k = maxPageSize
	}

	resp, err := s.service.Cse.List().
		Context(ctx).
		Cx(s.config.EngineID).
		Q(query + s.config.QuerySuffix).
		Num(int64(k)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calling customsearch API: %w", err)
	}

	docs := make([]domain.Document, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == "" {
			continue
		}
		docs = append(docs, domain.Document{
			PartitionID: domain.WebPartitionID,
			Source:      item.Link,
			Section:     item.Title,
			Content:     domain.CleanContent(item.Snippet),
		})
	}

	return docs, nil
}

// Close releases resources.
func (s *WebSearchService) Close() error {
	return nil
}

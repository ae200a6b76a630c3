package driving

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// RetrievalService performs hybrid retrieval over one partition.
type RetrievalService interface {
	// Retrieve returns up to opts.TopK documents from the partition,
	// ranked best first, content cleaned. An unindexed partition yields
	// an empty list, not an error.
	Retrieve(ctx context.Context, partitionID, query string, opts domain.RetrieveOptions) ([]domain.Document, error)
}

// RouterService selects partitions for a query.
type RouterService interface {
	// Route matches query attributes against the catalog and returns a
	// plan of 1-3 partitions plus an optional fallback.
	Route(ctx context.Context, query string, attrs domain.QueryAttributes) (domain.PartitionPlan, error)

	// ExtractAttributes derives structured facets from free query text.
	ExtractAttributes(ctx context.Context, query string) domain.QueryAttributes
}

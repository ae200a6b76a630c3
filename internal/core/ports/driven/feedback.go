package driven

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// FeedbackChannel obtains human decisions during the refinement loop.
// This is an optional port - when nil, the loop controller suspends the
// session instead of blocking, and Resume is the sole re-entry point.
type FeedbackChannel interface {
	// Present shows the current document set to the analyst.
	// Commentary entries align with docs by index and may be empty.
	Present(ctx context.Context, docs []domain.Document, commentary []string) error

	// Decision blocks until the analyst supplies one decision.
	// The core imposes no timeout; a surrounding system may.
	Decision(ctx context.Context) (domain.FeedbackDecision, error)
}

// WebSearchService retrieves guidance documents from the open web.
// Invoked only when the analyst escalates, never as part of a normal
// retrieval round.
type WebSearchService interface {
	// Search returns up to k documents for the query.
	Search(ctx context.Context, query string, k int) ([]domain.Document, error)

	// Close releases resources.
	Close() error
}

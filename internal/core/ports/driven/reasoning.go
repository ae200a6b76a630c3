package driven

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// ReasoningService provides language-model assistance for decisions that
// have a deterministic fallback. Every structured answer is validated
// against its closed enum before use: the rule-based fallback is the
// source of correctness and the heuristic call is purely an optimisation.
//
// This is an optional service - when nil, callers go straight to their
// fallback logic.
type ReasoningService interface {
	// DecideStage proposes the next processing stage for a session
	// summary. Out-of-enum answers are rejected by the caller.
	DecideStage(ctx context.Context, summary StateSummary) (domain.Stage, error)

	// ExtractAttributes pulls structured query facets from free text.
	ExtractAttributes(ctx context.Context, query string) (domain.QueryAttributes, error)

	// ParseFeedback maps a free-text analyst reply onto a feedback
	// action. Callers validate and fall back to keyword matching.
	ParseFeedback(ctx context.Context, input string) (domain.FeedbackAction, error)

	// Summarise produces a short relevance commentary for one document
	// against the query. Failures are tolerated; presentation proceeds
	// without commentary.
	Summarise(ctx context.Context, query, content string) (string, error)

	// Compose drafts the findings text from the accepted document set.
	Compose(ctx context.Context, query string, docs []domain.Document) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// StateSummary is the strongly-typed session digest handed to the
// reasoning service for a stage decision. It carries facts, not prose:
// the adapter renders the prompt.
type StateSummary struct {
	// Intent is what the analyst asked for.
	Intent domain.Intent

	// HasPlan reports whether routing has produced a partition plan.
	HasPlan bool

	// DocumentCount is the size of the working document set.
	DocumentCount int

	// FeedbackPending reports whether a refinement decision is awaited.
	FeedbackPending bool

	// WebEscalated reports whether web augmentation was requested.
	WebEscalated bool

	// HasReport reports whether findings text has been composed.
	HasReport bool
}

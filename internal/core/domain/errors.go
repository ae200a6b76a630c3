package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCatalogInvalid indicates the partition catalog is missing or
	// malformed. Fatal at startup: nothing can be routed without it.
	ErrCatalogInvalid = errors.New("partition catalog invalid")

	// ErrDecisionInvalid indicates a heuristic decision fell outside the
	// allowed enum. Always resolved via the deterministic fallback table,
	// never surfaced to callers.
	ErrDecisionInvalid = errors.New("decision outside allowed actions")

	// ErrLoopBudget indicates the refinement loop reached its iteration
	// budget without a terminal decision. Non-fatal: the loop force-
	// terminates with the currently merged document set.
	ErrLoopBudget = errors.New("refinement loop budget exceeded")

	// ErrCancelled indicates the session was cancelled cooperatively.
	// In-flight requery work is discarded; no partial state is committed.
	ErrCancelled = errors.New("session cancelled")

	// ErrNoResults indicates the final document set is empty. Surfaced
	// explicitly so callers never silently compose an empty findings
	// section.
	ErrNoResults = errors.New("no relevant documents found")

	// ErrSessionSuspended indicates the session is waiting on a human
	// decision and can only advance through Resume.
	ErrSessionSuspended = errors.New("session suspended awaiting feedback")

	// ErrSessionActive indicates another flow is already processing the
	// session. State transitions are strictly sequential per session.
	ErrSessionActive = errors.New("session already being processed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval degrades to lexical-only ranking.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRerankerUnavailable indicates the reranker is not configured.
	// Retrieval keeps the fusion ordering.
	ErrRerankerUnavailable = errors.New("reranker unavailable")

	// ErrFeedbackUnavailable indicates no feedback channel is attached.
	// The loop controller suspends instead of blocking.
	ErrFeedbackUnavailable = errors.New("feedback channel unavailable")
)

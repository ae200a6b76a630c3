package driving

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// SessionService drives a full analyst session through the orchestrator.
type SessionService interface {
	// Start creates a session for the query and runs it until it
	// completes, suspends awaiting feedback, or fails. The returned
	// state reflects the stopping point.
	Start(ctx context.Context, query string, intent domain.Intent) (*domain.SessionState, error)

	// Resume applies one feedback decision to a suspended session and
	// continues processing. It is the sole re-entry point after
	// suspension.
	Resume(ctx context.Context, sessionID string, decision domain.FeedbackDecision) (*domain.SessionState, error)

	// Cancel cancels a session, discarding any in-flight work. The last
	// committed document set is retained on the returned state.
	Cancel(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Get loads a session without advancing it.
	Get(ctx context.Context, sessionID string) (*domain.SessionState, error)
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driving"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// LoopController runs the bounded human-feedback refinement loop. Each
// iteration presents the working set, obtains one decision and either
// terminates, narrows, or re-queries and continues. The loop never runs
// more than domain.MaxLoops requery iterations.
type LoopController struct {
	retriever driving.RetrievalService
	catalog   *domain.Catalog
	feedback  driven.FeedbackChannel
	reasoning driven.ReasoningService

	mergeCap          int
	fallbackThreshold int
	opts              domain.RetrieveOptions
}

// NewLoopController creates a loop controller. The feedback channel and
// reasoning service are optional (can be nil): without a channel the
// controller suspends instead of blocking; without reasoning, documents
// are presented without relevance commentary.
func NewLoopController(
	retriever driving.RetrievalService,
	catalog *domain.Catalog,
	feedback driven.FeedbackChannel,
	reasoning driven.ReasoningService,
	opts domain.RetrieveOptions,
) *LoopController {
	return &LoopController{
		retriever:         retriever,
		catalog:           catalog,
		feedback:          feedback,
		reasoning:         reasoning,
		mergeCap:          domain.DefaultMergeCap,
		fallbackThreshold: domain.DefaultFallbackThreshold,
		opts:              opts,
	}
}

// SetMergeCap overrides the working-set cap applied after requery unions.
func (l *LoopController) SetMergeCap(limit int) {
	if limit > 0 {
		l.mergeCap = limit
	}
}

// Run drives the loop until a terminal decision, the iteration budget,
// or a suspension point. When no feedback channel is attached the
// session is marked suspended and the caller persists it; Resume then
// re-enters through Apply.
func (l *LoopController) Run(ctx context.Context, state *domain.SessionState) error {
	logger.Section("Refinement Loop")

	for {
		if err := l.present(ctx, state); err != nil {
			return err
		}

		if l.feedback == nil {
			logger.Info("No feedback channel, suspending session %s", state.ID)
			state.Suspended = true
			state.Stage = domain.StageSuspended
			state.PendingFeedback = append([]domain.Document(nil), state.Documents...)
			return nil
		}

		decision, err := l.feedback.Decision(ctx)
		if err != nil {
			return fmt.Errorf("obtain feedback decision: %w", err)
		}

		done, err := l.Apply(ctx, state, decision)
		if err != nil || done {
			return err
		}
	}
}

// present shows the working set through the feedback channel, attaching
// relevance commentary when the reasoning service can provide it.
func (l *LoopController) present(ctx context.Context, state *domain.SessionState) error {
	if l.feedback == nil {
		return nil
	}

	commentary := l.commentary(ctx, state)
	if err := l.feedback.Present(ctx, state.Documents, commentary); err != nil {
		return fmt.Errorf("present documents: %w", err)
	}
	return nil
}

// commentary asks the reasoning service for a short relevance note per
// document. Failures are tolerated: presentation proceeds without.
func (l *LoopController) commentary(ctx context.Context, state *domain.SessionState) []string {
	if l.reasoning == nil {
		return nil
	}

	notes := make([]string, len(state.Documents))
	for i, d := range state.Documents {
		note, err := l.reasoning.Summarise(ctx, state.Query, d.Content)
		if err != nil {
			logger.Debug("Commentary for document %d unavailable: %v", i+1, err)
			continue
		}
		notes[i] = note
	}
	return notes
}

// Apply executes one feedback decision against the session state.
// It returns true when the loop is over. Requery branches are strictly
// additive before dedup: previously accepted documents are never
// dropped; only select_partial shrinks the set.
func (l *LoopController) Apply(
	ctx context.Context, state *domain.SessionState, decision domain.FeedbackDecision,
) (bool, error) {
	if !decision.Action.Valid() {
		logger.Warn("Unknown feedback action %q, treating as accept_all", decision.Action)
		decision = domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}
	}

	logger.Info("Feedback decision: %s (iteration %d)", decision.Action, state.LoopCount)

	switch decision.Action {
	case domain.FeedbackAcceptAll:
		state.FeedbackDone = true
		return true, nil

	case domain.FeedbackSelectPartial:
		state.SelectIndices(decision.Indices)
		state.FeedbackDone = true
		return true, nil

	case domain.FeedbackRequeryKeyword:
		return l.requery(ctx, state, l.keywordPlan(state), withKeywords(state.Query, decision.Keywords))

	case domain.FeedbackRequeryPartition:
		plan := RestrictPlan(l.catalog, decision.Partitions)
		state.Plan = &plan
		return l.requery(ctx, state, plan, state.Query)

	case domain.FeedbackEscalateWeb:
		state.WebEscalated = true
		state.FeedbackDone = true
		return true, nil

	case domain.FeedbackCancel:
		state.Cancelled = true
		state.FeedbackDone = true
		return true, nil
	}

	// Unreachable: Valid() filtered the action set above.
	state.FeedbackDone = true
	return true, nil
}

// keywordPlan returns the unchanged partition plan for keyword requeries.
func (l *LoopController) keywordPlan(state *domain.SessionState) domain.PartitionPlan {
	if state.Plan != nil {
		return *state.Plan
	}
	return domain.PartitionPlan{Partitions: []string{domain.DefaultPartitionID}}
}

// requery runs another retrieval round and unions the results into the
// working set. Cancellation discards the in-flight round: nothing past
// the last committed step is kept.
func (l *LoopController) requery(
	ctx context.Context, state *domain.SessionState, plan domain.PartitionPlan, query string,
) (bool, error) {
	state.Query = query

	docs := RetrieveRound(ctx, l.retriever, plan, query, l.opts, l.fallbackThreshold)

	if err := ctx.Err(); err != nil {
		logger.Warn("Requery cancelled, keeping last committed set")
		state.Cancelled = true
		state.FeedbackDone = true
		return true, domain.ErrCancelled
	}

	state.MergeDocuments(docs, l.mergeCap)
	state.LoopCount++

	if state.LoopCount >= domain.MaxLoops {
		logger.Warn("Loop budget (%d) reached, terminating with %d merged documents",
			domain.MaxLoops, len(state.Documents))
		state.FeedbackDone = true
		return true, nil
	}

	return false, nil
}

// withKeywords appends feedback keywords to the query text.
func withKeywords(query string, keywords []string) string {
	var extra []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			extra = append(extra, kw)
		}
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driving"
	"github.com/hardhat-labs/girder-cli/internal/logger"
)

// Ensure OrchestratorService implements the interface.
var _ driving.SessionService = (*OrchestratorService)(nil)

// decideTimeout bounds the heuristic stage decision. Past it, the
// deterministic rule table decides.
const decideTimeout = 10 * time.Second

// OrchestratorService is the top-level decision engine. It sequences
// routing, retrieval, the refinement loop, web augmentation and
// composition for one session at a time, persisting state across
// suspension points.
type OrchestratorService struct {
	router    driving.RouterService
	retriever driving.RetrievalService
	loop      *LoopController
	reasoning driven.ReasoningService
	web       driven.WebSearchService
	sessions  driven.SessionStore

	opts              domain.RetrieveOptions
	mergeCap          int
	fallbackThreshold int

	locks sync.Map // session id -> *sync.Mutex
}

// NewOrchestratorService wires the orchestrator. The reasoning and web
// services are optional (can be nil): stage decisions then come from
// the rule table alone, and escalate_web is refused with a warning.
func NewOrchestratorService(
	router driving.RouterService,
	retriever driving.RetrievalService,
	loop *LoopController,
	reasoning driven.ReasoningService,
	web driven.WebSearchService,
	sessions driven.SessionStore,
	opts domain.RetrieveOptions,
) *OrchestratorService {
	return &OrchestratorService{
		router:            router,
		retriever:         retriever,
		loop:              loop,
		reasoning:         reasoning,
		web:               web,
		sessions:          sessions,
		opts:              opts.Normalised(),
		mergeCap:          domain.DefaultMergeCap,
		fallbackThreshold: domain.DefaultFallbackThreshold,
	}
}

// Start creates a session and runs it until completion or suspension.
func (o *OrchestratorService) Start(
	ctx context.Context, query string, intent domain.Intent,
) (*domain.SessionState, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if !intent.Valid() {
		intent = domain.IntentReport
	}

	now := time.Now().UTC()
	state := &domain.SessionState{
		ID:        uuid.NewString(),
		Intent:    intent,
		Query:     query,
		Stage:     domain.StageNeedRouting,
		Documents: []domain.Document{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	state.Attributes = o.router.ExtractAttributes(ctx, query)

	unlock, err := o.acquire(state.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return o.run(ctx, state)
}

// Resume applies one feedback decision to a suspended session and
// continues processing. It is the sole re-entry point after suspension.
func (o *OrchestratorService) Resume(
	ctx context.Context, sessionID string, decision domain.FeedbackDecision,
) (*domain.SessionState, error) {
	unlock, err := o.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !state.Suspended {
		return state, fmt.Errorf("%w: session %s is not suspended", domain.ErrInvalidInput, sessionID)
	}

	logger.Section("Session Resume")
	logger.Info("Resuming session %s with %s", sessionID, decision.Action)

	state.Suspended = false
	state.PendingFeedback = nil

	done, err := o.loop.Apply(ctx, state, decision)
	if err != nil && err != domain.ErrCancelled {
		return state, err
	}
	if !done {
		// The loop wants another round of feedback.
		state.Suspended = true
		state.Stage = domain.StageSuspended
		state.PendingFeedback = append([]domain.Document(nil), state.Documents...)
		return state, o.persist(ctx, state)
	}

	return o.run(ctx, state)
}

// Cancel cancels a session cooperatively. The last committed document
// set is retained on the returned state; stored state is destroyed.
func (o *OrchestratorService) Cancel(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	unlock, err := o.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	state.Cancelled = true
	state.Suspended = false
	state.Stage = domain.StageDone
	state.UpdatedAt = time.Now().UTC()

	if err := o.sessions.Delete(ctx, sessionID); err != nil {
		logger.Warn("Deleting cancelled session %s: %v", sessionID, err)
	}

	return state, nil
}

// Get loads a session without advancing it.
func (o *OrchestratorService) Get(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return o.sessions.Get(ctx, sessionID)
}

// run advances the session stage by stage until DONE or SUSPENDED.
func (o *OrchestratorService) run(ctx context.Context, state *domain.SessionState) (*domain.SessionState, error) {
	for {
		stage := o.Decide(ctx, state)
		state.Stage = stage
		state.UpdatedAt = time.Now().UTC()
		logger.Info("Stage: %s", stage)

		switch stage {
		case domain.StageNeedRouting:
			plan, err := o.router.Route(ctx, state.Query, state.Attributes)
			if err != nil {
				return state, fmt.Errorf("route: %w", err)
			}
			state.Plan = &plan

		case domain.StageNeedRetrieval:
			docs := RetrieveRound(ctx, o.retriever, *state.Plan, state.Query, o.opts, o.fallbackThreshold)
			if err := ctx.Err(); err != nil {
				return state, fmt.Errorf("retrieval round: %w", err)
			}
			state.MergeDocuments(docs, o.mergeCap)
			state.Retrieved = true

		case domain.StageNeedFeedback:
			if err := o.loop.Run(ctx, state); err != nil {
				if err == domain.ErrCancelled {
					break
				}
				return state, fmt.Errorf("refinement loop: %w", err)
			}
			if state.Suspended {
				return state, o.persist(ctx, state)
			}

		case domain.StageNeedAugment:
			o.augment(ctx, state)

		case domain.StageNeedCompose:
			o.compose(ctx, state)

		case domain.StageSuspended:
			return state, o.persist(ctx, state)

		case domain.StageDone:
			return o.finish(ctx, state)
		}
	}
}

// finish completes the session, destroying stored state. An empty final
// document set surfaces an explicit no-results signal instead of
// silently handing an empty set to composition.
func (o *OrchestratorService) finish(ctx context.Context, state *domain.SessionState) (*domain.SessionState, error) {
	state.Completed = true

	if err := o.sessions.Delete(ctx, state.ID); err != nil {
		logger.Warn("Deleting finished session %s: %v", state.ID, err)
	}

	if state.Cancelled {
		logger.Info("Session %s cancelled with %d documents retained", state.ID, len(state.Documents))
		return state, domain.ErrCancelled
	}
	if len(state.Documents) == 0 {
		logger.Warn("Session %s finished with no documents", state.ID)
		return state, domain.ErrNoResults
	}

	logger.Info("Session %s done: %d documents", state.ID, len(state.Documents))
	return state, nil
}

// Decide determines the next stage. The heuristic decision is attempted
// first, constrained to the closed stage enum and the stages plausible
// for the current state; any error, timeout or out-of-enum answer falls
// back to the deterministic rule table. Decision failures never
// propagate past this boundary.
func (o *OrchestratorService) Decide(ctx context.Context, state *domain.SessionState) domain.Stage {
	fallback := o.fallbackStage(state)

	if o.reasoning == nil {
		return fallback
	}

	decideCtx, cancel := context.WithTimeout(ctx, decideTimeout)
	defer cancel()

	proposed, err := o.reasoning.DecideStage(decideCtx, summarise(state))
	if err != nil {
		logger.Warn("Heuristic stage decision failed, using rule table: %v", err)
		return fallback
	}
	if !proposed.Valid() || !o.stageAllowed(state, proposed) {
		logger.Warn("Heuristic proposed %q (%v), using rule table", proposed, domain.ErrDecisionInvalid)
		return fallback
	}

	logger.Debug("Heuristic stage decision: %s", proposed)
	return proposed
}

// fallbackStage is the deterministic rule table, evaluated in fixed
// priority order. It is the source of correctness; the heuristic call
// is purely an optimisation.
func (o *OrchestratorService) fallbackStage(state *domain.SessionState) domain.Stage {
	switch {
	case state.Cancelled:
		return domain.StageDone
	case state.Suspended:
		return domain.StageSuspended
	case state.Plan == nil:
		return domain.StageNeedRouting
	case !state.Retrieved:
		return domain.StageNeedRetrieval
	case !state.FeedbackDone:
		return domain.StageNeedFeedback
	case state.WebEscalated && !state.WebDone:
		return domain.StageNeedAugment
	case state.Intent == domain.IntentReport && state.ReportText == "" && len(state.Documents) > 0:
		return domain.StageNeedCompose
	default:
		return domain.StageDone
	}
}

// stageAllowed guards heuristic answers against skipping required work
// and against repeating work already done. Every accepted stage must
// have outstanding work: executing it flips a flag that disallows
// proposing it again, so run always terminates even when the heuristic
// keeps answering the same stage.
func (o *OrchestratorService) stageAllowed(state *domain.SessionState, stage domain.Stage) bool {
	switch stage {
	case domain.StageNeedRouting:
		return state.Plan == nil
	case domain.StageNeedRetrieval:
		return state.Plan != nil && !state.Retrieved
	case domain.StageNeedFeedback:
		return state.Retrieved && !state.FeedbackDone
	case domain.StageNeedAugment:
		return state.WebEscalated && !state.WebDone
	case domain.StageNeedCompose:
		return state.FeedbackDone && state.ReportText == "" && len(state.Documents) > 0
	case domain.StageDone:
		return state.Cancelled || state.FeedbackDone || (state.Retrieved && state.Intent == domain.IntentSearchOnly)
	case domain.StageSuspended:
		return state.Suspended
	}
	return false
}

// summarise digests session state for the reasoning service.
func summarise(state *domain.SessionState) driven.StateSummary {
	return driven.StateSummary{
		Intent:          state.Intent,
		HasPlan:         state.Plan != nil,
		DocumentCount:   len(state.Documents),
		FeedbackPending: state.Retrieved && !state.FeedbackDone,
		WebEscalated:    state.WebEscalated && !state.WebDone,
		HasReport:       state.ReportText != "",
	}
}

// augment runs the separate web-augmentation stage after escalate_web.
// Failures are logged and skipped: the session proceeds with the corpus
// documents it already has.
func (o *OrchestratorService) augment(ctx context.Context, state *domain.SessionState) {
	state.WebDone = true

	if o.web == nil {
		logger.Warn("Web escalation requested but no web search service is configured")
		return
	}

	logger.Section("Web Augmentation")
	docs, err := o.web.Search(ctx, state.Query, o.opts.TopK)
	if err != nil {
		logger.Warn("Web search failed, continuing without augmentation: %v", err)
		return
	}

	state.MergeDocuments(docs, o.mergeCap)
	logger.Info("Web augmentation added %d results (set now %d)", len(docs), len(state.Documents))
}

// compose drafts the findings text. The reasoning service writes it
// when available; otherwise a deterministic digest of the accepted set
// stands in so the hand-off to rendering always has content.
func (o *OrchestratorService) compose(ctx context.Context, state *domain.SessionState) {
	logger.Section("Composition")

	if o.reasoning != nil {
		text, err := o.reasoning.Compose(ctx, state.Query, state.Documents)
		if err == nil && strings.TrimSpace(text) != "" {
			state.ReportText = text
			return
		}
		if err != nil {
			logger.Warn("Composition via %s failed, using digest: %v", o.reasoning.ModelName(), err)
		}
	}

	state.ReportText = digest(state.Documents)
}

// digest renders a plain findings summary from the document set.
func digest(docs []domain.Document) string {
	var b strings.Builder
	b.WriteString("Relevant safety guidance:\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "\n[%d] %s - %s\n%s\n", i+1, d.Source, d.Section, d.Content)
	}
	return b.String()
}

// persist saves the session across a suspension point.
func (o *OrchestratorService) persist(ctx context.Context, state *domain.SessionState) error {
	state.UpdatedAt = time.Now().UTC()
	if err := o.sessions.Save(ctx, state); err != nil {
		return fmt.Errorf("persist suspended session %s: %w", state.ID, err)
	}
	logger.Info("Session %s suspended, awaiting feedback", state.ID)
	return nil
}

// acquire takes the per-session lock. Session state transitions are
// strictly sequential: a second concurrent flow is refused, not queued.
func (o *OrchestratorService) acquire(sessionID string) (func(), error) {
	v, _ := o.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)

	if !mu.TryLock() {
		return nil, domain.ErrSessionActive
	}
	return mu.Unlock, nil
}

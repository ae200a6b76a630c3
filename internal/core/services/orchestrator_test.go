package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// testOrchestrator wires an orchestrator around mocks, returning the
// pieces a test may want to inspect.
func testOrchestrator(
	t *testing.T,
	feedback *mockFeedbackChannel,
	reasoning *mockReasoningService,
	web *mockWebSearchService,
) (*OrchestratorService, *mockRetriever, *mockSessionStore) {
	t.Helper()

	catalog := testCatalog()
	retriever := newMockRetriever()
	retriever.add("crane", testDoc("crane", "c1"), testDoc("crane", "c2"))
	retriever.add("bridge", testDoc("bridge", "b1"))
	retriever.add("general", testDoc("general", "g1"))

	// Typed nil mocks must not become non-nil interfaces.
	var fc driven.FeedbackChannel
	if feedback != nil {
		fc = feedback
	}
	var rs driven.ReasoningService
	if reasoning != nil {
		rs = reasoning
	}
	var ws driven.WebSearchService
	if web != nil {
		ws = web
	}

	opts := domain.RetrieveOptions{TopK: 8}
	router := NewRouterService(catalog, rs)
	loop := NewLoopController(retriever, catalog, fc, rs, opts)
	sessions := newMockSessionStore()

	orch := NewOrchestratorService(router, retriever, loop, rs, ws, sessions, opts)
	return orch, retriever, sessions
}

func TestOrchestratorService_Start_EmptyQuery(t *testing.T) {
	orch, _, _ := testOrchestrator(t, nil, nil, nil)

	_, err := orch.Start(context.Background(), "   ", domain.IntentReport)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrchestratorService_Start_AcceptAllCompletes(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	orch, _, sessions := testOrchestrator(t, feedback, nil, nil)

	state, err := orch.Start(context.Background(), "crane boom failure during lift", domain.IntentReport)

	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Equal(t, domain.StageDone, state.Stage)
	assert.NotEmpty(t, state.Documents)
	assert.NotEmpty(t, state.ReportText)

	// Finished sessions leave no stored state behind.
	ids, err := sessions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOrchestratorService_Start_SearchOnlySkipsCompose(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	orch, _, _ := testOrchestrator(t, feedback, nil, nil)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentSearchOnly)

	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Empty(t, state.ReportText)
}

func TestOrchestratorService_Start_SelectPartialNarrows(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackSelectPartial, Indices: []int{2}},
	}}
	orch, _, _ := testOrchestrator(t, feedback, nil, nil)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentSearchOnly)

	require.NoError(t, err)
	require.Len(t, state.Documents, 1)
	assert.Equal(t, "guide-c2", state.Documents[0].Source)
}

func TestOrchestratorService_Start_SuspendsWithoutFeedbackChannel(t *testing.T) {
	orch, _, sessions := testOrchestrator(t, nil, nil, nil)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)

	require.NoError(t, err)
	assert.True(t, state.Suspended)
	assert.Equal(t, domain.StageSuspended, state.Stage)
	assert.NotEmpty(t, state.PendingFeedback)

	stored, err := sessions.Get(context.Background(), state.ID)
	require.NoError(t, err)
	assert.True(t, stored.Suspended)
	assert.Equal(t, state.Query, stored.Query)
}

func TestOrchestratorService_Resume_AcceptCompletes(t *testing.T) {
	orch, _, sessions := testOrchestrator(t, nil, nil, nil)

	started, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)
	require.NoError(t, err)
	require.True(t, started.Suspended)

	resumed, err := orch.Resume(context.Background(), started.ID, domain.FeedbackDecision{
		Action: domain.FeedbackAcceptAll,
	})

	require.NoError(t, err)
	assert.True(t, resumed.Completed)
	assert.NotEmpty(t, resumed.ReportText)

	ids, err := sessions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOrchestratorService_Resume_RequerySuspendsAgain(t *testing.T) {
	orch, _, _ := testOrchestrator(t, nil, nil, nil)

	started, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)
	require.NoError(t, err)

	resumed, err := orch.Resume(context.Background(), started.ID, domain.FeedbackDecision{
		Action:   domain.FeedbackRequeryKeyword,
		Keywords: []string{"wire rope"},
	})

	require.NoError(t, err)
	assert.True(t, resumed.Suspended)
	assert.Equal(t, 1, resumed.LoopCount)
}

func TestOrchestratorService_Resume_UnknownSession(t *testing.T) {
	orch, _, _ := testOrchestrator(t, nil, nil, nil)

	_, err := orch.Resume(context.Background(), "missing", domain.FeedbackDecision{
		Action: domain.FeedbackAcceptAll,
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrchestratorService_Resume_NotSuspended(t *testing.T) {
	orch, _, sessions := testOrchestrator(t, nil, nil, nil)

	active := &domain.SessionState{ID: "active-1", Suspended: false}
	require.NoError(t, sessions.Save(context.Background(), active))

	_, err := orch.Resume(context.Background(), "active-1", domain.FeedbackDecision{
		Action: domain.FeedbackAcceptAll,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrchestratorService_Cancel_RetainsCommittedDocuments(t *testing.T) {
	orch, _, sessions := testOrchestrator(t, nil, nil, nil)

	started, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)
	require.NoError(t, err)

	cancelled, err := orch.Cancel(context.Background(), started.ID)

	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.NotEmpty(t, cancelled.Documents)

	_, err = sessions.Get(context.Background(), started.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrchestratorService_Start_EscalateWebAugments(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackEscalateWeb},
	}}
	web := &mockWebSearchService{docs: []domain.Document{
		{PartitionID: "web", Source: "osha.gov", Section: "1926.1408", Content: "power line clearance for cranes"},
	}}
	orch, _, _ := testOrchestrator(t, feedback, nil, web)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentSearchOnly)

	require.NoError(t, err)
	assert.True(t, state.WebDone)
	assert.Equal(t, 1, web.calls)

	var webDocs int
	for _, d := range state.Documents {
		if d.PartitionID == "web" {
			webDocs++
		}
	}
	assert.Equal(t, 1, webDocs)
}

func TestOrchestratorService_Start_EscalateWithoutServiceProceeds(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackEscalateWeb},
	}}
	orch, _, _ := testOrchestrator(t, feedback, nil, nil)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentSearchOnly)

	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.True(t, state.WebDone)
}

func TestOrchestratorService_Start_WebFailureProceeds(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackEscalateWeb},
	}}
	web := &mockWebSearchService{searchErr: errors.New("api quota exceeded")}
	orch, _, _ := testOrchestrator(t, feedback, nil, web)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentSearchOnly)

	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.True(t, state.WebDone)
	assert.NotEmpty(t, state.Documents)
}

func TestOrchestratorService_Start_NoResults(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	catalog := testCatalog()
	retriever := newMockRetriever()
	router := NewRouterService(catalog, nil)
	opts := domain.RetrieveOptions{TopK: 8}
	loop := NewLoopController(retriever, catalog, feedback, nil, opts)
	orch := NewOrchestratorService(router, retriever, loop, nil, nil, newMockSessionStore(), opts)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)

	assert.ErrorIs(t, err, domain.ErrNoResults)
	require.NotNil(t, state)
	assert.True(t, state.Completed)
	assert.Empty(t, state.Documents)
}

func TestOrchestratorService_Start_ComposeUsesReasoning(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	reasoning := &mockReasoningService{
		stageErr: errors.New("model offline"),
		composed: "Findings: inspect the wire rope before lifting.",
	}
	orch, _, _ := testOrchestrator(t, feedback, reasoning, nil)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)

	require.NoError(t, err)
	assert.Equal(t, "Findings: inspect the wire rope before lifting.", state.ReportText)
}

func TestOrchestratorService_Start_ComposeFailureFallsBackToDigest(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	reasoning := &mockReasoningService{
		stageErr:   errors.New("model offline"),
		composeErr: errors.New("model offline"),
	}
	orch, _, _ := testOrchestrator(t, feedback, reasoning, nil)

	state, err := orch.Start(context.Background(), "crane boom failure", domain.IntentReport)

	require.NoError(t, err)
	assert.Contains(t, state.ReportText, "Relevant safety guidance")
	assert.Contains(t, state.ReportText, "guide-c1")
}

func TestOrchestratorService_Decide_FallbackRuleTable(t *testing.T) {
	orch, _, _ := testOrchestrator(t, nil, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		state domain.SessionState
		want  domain.Stage
	}{
		{
			name:  "new session needs routing",
			state: domain.SessionState{Intent: domain.IntentReport},
			want:  domain.StageNeedRouting,
		},
		{
			name: "planned session needs retrieval",
			state: domain.SessionState{
				Intent: domain.IntentReport,
				Plan:   &domain.PartitionPlan{Partitions: []string{"crane"}},
			},
			want: domain.StageNeedRetrieval,
		},
		{
			name: "retrieved session needs feedback",
			state: domain.SessionState{
				Intent:    domain.IntentReport,
				Plan:      &domain.PartitionPlan{Partitions: []string{"crane"}},
				Retrieved: true,
			},
			want: domain.StageNeedFeedback,
		},
		{
			name: "escalated session needs augmentation",
			state: domain.SessionState{
				Intent:       domain.IntentReport,
				Plan:         &domain.PartitionPlan{Partitions: []string{"crane"}},
				Retrieved:    true,
				FeedbackDone: true,
				WebEscalated: true,
			},
			want: domain.StageNeedAugment,
		},
		{
			name: "report intent needs composition",
			state: domain.SessionState{
				Intent:       domain.IntentReport,
				Plan:         &domain.PartitionPlan{Partitions: []string{"crane"}},
				Retrieved:    true,
				FeedbackDone: true,
				Documents:    []domain.Document{testDoc("crane", "c1")},
			},
			want: domain.StageNeedCompose,
		},
		{
			name: "search intent is done after feedback",
			state: domain.SessionState{
				Intent:       domain.IntentSearchOnly,
				Plan:         &domain.PartitionPlan{Partitions: []string{"crane"}},
				Retrieved:    true,
				FeedbackDone: true,
			},
			want: domain.StageDone,
		},
		{
			name: "cancelled session is done regardless",
			state: domain.SessionState{
				Intent:    domain.IntentReport,
				Cancelled: true,
			},
			want: domain.StageDone,
		},
		{
			name: "suspended session stays suspended",
			state: domain.SessionState{
				Intent:    domain.IntentReport,
				Plan:      &domain.PartitionPlan{Partitions: []string{"crane"}},
				Retrieved: true,
				Suspended: true,
			},
			want: domain.StageSuspended,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := tc.state
			assert.Equal(t, tc.want, orch.Decide(ctx, &state))
		})
	}
}

func TestOrchestratorService_Decide_RejectsOutOfEnumAnswer(t *testing.T) {
	reasoning := &mockReasoningService{stage: domain.Stage("NEED_COFFEE")}
	orch, _, _ := testOrchestrator(t, nil, reasoning, nil)

	stage := orch.Decide(context.Background(), &domain.SessionState{Intent: domain.IntentReport})

	assert.Equal(t, domain.StageNeedRouting, stage)
	assert.Equal(t, 1, reasoning.decideCalls)
}

func TestOrchestratorService_Decide_RejectsSkippingStage(t *testing.T) {
	// The heuristic proposes composing before anything was retrieved;
	// the guard sends the session back to the rule table.
	reasoning := &mockReasoningService{stage: domain.StageNeedCompose}
	orch, _, _ := testOrchestrator(t, nil, reasoning, nil)

	stage := orch.Decide(context.Background(), &domain.SessionState{Intent: domain.IntentReport})

	assert.Equal(t, domain.StageNeedRouting, stage)
}

func TestOrchestratorService_Decide_AcceptsValidHeuristicAnswer(t *testing.T) {
	reasoning := &mockReasoningService{stage: domain.StageNeedRetrieval}
	orch, _, _ := testOrchestrator(t, nil, reasoning, nil)

	stage := orch.Decide(context.Background(), &domain.SessionState{
		Intent: domain.IntentReport,
		Plan:   &domain.PartitionPlan{Partitions: []string{"crane"}},
	})

	assert.Equal(t, domain.StageNeedRetrieval, stage)
}

func TestOrchestratorService_Decide_RejectsRepeatingCompletedStage(t *testing.T) {
	// Routing already ran; re-proposing it would spin the session in
	// place, so the rule table decides instead.
	reasoning := &mockReasoningService{stage: domain.StageNeedRouting}
	orch, _, _ := testOrchestrator(t, nil, reasoning, nil)

	stage := orch.Decide(context.Background(), &domain.SessionState{
		Intent: domain.IntentReport,
		Plan:   &domain.PartitionPlan{Partitions: []string{"crane"}},
	})

	assert.Equal(t, domain.StageNeedRetrieval, stage)
}

func TestOrchestratorService_Start_StubbornHeuristicStillTerminates(t *testing.T) {
	// A model that answers the same in-enum stage on every call must
	// not stall the session: each stage runs at most once and the rule
	// table drives the rest.
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	reasoning := &mockReasoningService{stage: domain.StageNeedRouting, composed: "Findings."}
	orch, retriever, _ := testOrchestrator(t, feedback, reasoning, nil)

	state, err := orch.Start(context.Background(), "crane boom failure during lift", domain.IntentReport)

	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.NotEmpty(t, state.Documents)
	// One decision per stage: routing, retrieval, feedback, compose, done.
	assert.LessOrEqual(t, reasoning.decideCalls, 5)
	assert.LessOrEqual(t, len(retriever.requested()), domain.MaxPlanPartitions+1)
}

func TestOrchestratorService_Start_RoutesByQueryAttributes(t *testing.T) {
	feedback := &mockFeedbackChannel{decisions: []domain.FeedbackDecision{
		{Action: domain.FeedbackAcceptAll},
	}}
	reasoning := &mockReasoningService{
		stageErr: errors.New("model offline"),
		attrs:    domain.QueryAttributes{Object: "girder", Process: "bridge erection"},
		composed: "Findings.",
	}
	orch, retriever, _ := testOrchestrator(t, feedback, reasoning, nil)

	state, err := orch.Start(context.Background(), "a span section dropped", domain.IntentReport)

	require.NoError(t, err)
	require.NotNil(t, state.Plan)
	assert.Contains(t, state.Plan.Partitions, "bridge")
	assert.Contains(t, retriever.requested(), "bridge")
}

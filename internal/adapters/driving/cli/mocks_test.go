package cli

import (
	"context"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

// mockSessionService returns canned states for each operation.
type mockSessionService struct {
	startState  *domain.SessionState
	startErr    error
	resumeState *domain.SessionState
	resumeErr   error
	cancelState *domain.SessionState
	cancelErr   error
	getState    *domain.SessionState
	getErr      error

	lastQuery    string
	lastIntent   domain.Intent
	lastDecision domain.FeedbackDecision
}

func (m *mockSessionService) Start(_ context.Context, query string, intent domain.Intent) (*domain.SessionState, error) {
	m.lastQuery = query
	m.lastIntent = intent
	return m.startState, m.startErr
}

func (m *mockSessionService) Resume(_ context.Context, _ string, decision domain.FeedbackDecision) (*domain.SessionState, error) {
	m.lastDecision = decision
	return m.resumeState, m.resumeErr
}

func (m *mockSessionService) Cancel(_ context.Context, _ string) (*domain.SessionState, error) {
	return m.cancelState, m.cancelErr
}

func (m *mockSessionService) Get(_ context.Context, _ string) (*domain.SessionState, error) {
	return m.getState, m.getErr
}

type mockRetrievalService struct {
	docs []domain.Document
	err  error
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, _ string, opts domain.RetrieveOptions) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.docs) > opts.TopK {
		return m.docs[:opts.TopK], nil
	}
	return m.docs, nil
}

type mockRouterService struct {
	plan  domain.PartitionPlan
	attrs domain.QueryAttributes
	err   error
}

func (m *mockRouterService) Route(_ context.Context, _ string, _ domain.QueryAttributes) (domain.PartitionPlan, error) {
	return m.plan, m.err
}

func (m *mockRouterService) ExtractAttributes(_ context.Context, _ string) domain.QueryAttributes {
	return m.attrs
}

type mockStore struct {
	ids     []string
	listErr error
}

func (m *mockStore) Save(_ context.Context, _ *domain.SessionState) error { return nil }

func (m *mockStore) Get(_ context.Context, _ string) (*domain.SessionState, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) Delete(_ context.Context, _ string) error { return nil }

func (m *mockStore) List(_ context.Context) ([]string, error) { return m.ids, m.listErr }

func (m *mockStore) Close() error { return nil }

func testStateDocs() []domain.Document {
	return []domain.Document{
		{PartitionID: "crane", Source: "guide-c1", Section: "outriggers", Content: "Verify outrigger pads on soft ground.", Score: 0.91},
		{PartitionID: "general", Source: "guide-g1", Section: "excavation", Content: "Shore trenches deeper than 1.5 metres.", Score: 0.58},
	}
}

// setupTestServices injects mock services and returns a cleanup that
// restores the unconfigured state.
func setupTestServices() (*mockSessionService, func()) {
	session := &mockSessionService{
		startState: &domain.SessionState{
			ID:        "sess-test",
			Completed: true,
			Documents: testStateDocs(),
		},
	}

	cat, _ := domain.NewCatalog([]domain.Partition{
		{ID: "crane", Domain: "Crane and lifting operations", Keywords: []string{"crane", "hoist"}},
		{ID: "general", Domain: "General construction safety"},
	})

	SetServices(Services{
		Session:   session,
		Retrieval: &mockRetrievalService{docs: testStateDocs()},
		Router:    &mockRouterService{plan: domain.PartitionPlan{Partitions: []string{"crane"}}},
		Store:     &mockStore{ids: []string{"sess-a"}},
		Catalog:   cat,
	})

	return session, func() {
		SetServices(Services{})
	}
}

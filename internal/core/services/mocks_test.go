package services

import (
	"context"
	"sync"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
	"github.com/hardhat-labs/girder-cli/internal/core/ports/driven"
)

// --- Mock implementations shared across the service tests ---

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// mockLexicalIndex implements driven.LexicalIndex for testing.
type mockLexicalIndex struct {
	ids     []string
	rankErr error
}

func (m *mockLexicalIndex) Rank(_ context.Context, _ string, k int) ([]string, error) {
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	if k > len(m.ids) {
		return m.ids, nil
	}
	return m.ids[:k], nil
}

func (m *mockLexicalIndex) Close() error {
	return nil
}

// mockPartitionStore implements driven.PartitionStore for testing.
type mockPartitionStore struct {
	vectors  map[string]*mockVectorIndex
	lexicals map[string]*mockLexicalIndex
	docs     map[string]map[string]domain.Document
	docErr   error
}

func newMockPartitionStore() *mockPartitionStore {
	return &mockPartitionStore{
		vectors:  make(map[string]*mockVectorIndex),
		lexicals: make(map[string]*mockLexicalIndex),
		docs:     make(map[string]map[string]domain.Document),
	}
}

func (m *mockPartitionStore) addDoc(partitionID, docID, content string) {
	if m.docs[partitionID] == nil {
		m.docs[partitionID] = make(map[string]domain.Document)
	}
	m.docs[partitionID][docID] = domain.Document{
		PartitionID: partitionID,
		Source:      "guide-" + docID,
		Section:     "section-" + docID,
		Content:     content,
	}
}

func (m *mockPartitionStore) Partitions() []string {
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	return ids
}

func (m *mockPartitionStore) Vector(partitionID string) (driven.VectorIndex, bool) {
	idx, ok := m.vectors[partitionID]
	if !ok {
		return nil, false
	}
	return idx, true
}

func (m *mockPartitionStore) Lexical(partitionID string) (driven.LexicalIndex, bool) {
	idx, ok := m.lexicals[partitionID]
	if !ok {
		return nil, false
	}
	return idx, true
}

func (m *mockPartitionStore) Document(_ context.Context, partitionID, docID string) (*domain.Document, error) {
	if m.docErr != nil {
		return nil, m.docErr
	}
	if d, ok := m.docs[partitionID][docID]; ok {
		return &d, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockPartitionStore) Close() error {
	return nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedding != nil {
		return m.embedding, nil
	}
	return make([]float32, 8), nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 8
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockReranker implements driven.Reranker for testing.
type mockReranker struct {
	// order holds candidate ids in the order the reranker should return
	// them; unknown ids are appended in offered order.
	order    []string
	scoreErr error
	calls    int
}

func (m *mockReranker) ScoreBatch(
	_ context.Context, _ string, candidates []driven.RerankCandidate, topN int,
) ([]driven.RerankResult, error) {
	m.calls++
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}

	offered := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		offered[c.ID] = true
	}

	var results []driven.RerankResult
	score := float64(len(candidates))
	for _, id := range m.order {
		if offered[id] {
			results = append(results, driven.RerankResult{ID: id, Score: score})
			delete(offered, id)
			score--
		}
	}
	for _, c := range candidates {
		if offered[c.ID] {
			results = append(results, driven.RerankResult{ID: c.ID, Score: score})
			score--
		}
	}

	if topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

func (m *mockReranker) ModelName() string {
	return "mock-rerank"
}

func (m *mockReranker) Close() error {
	return nil
}

// mockRetriever implements driving.RetrievalService for testing the
// round, loop and orchestrator layers. It is safe for concurrent calls.
type mockRetriever struct {
	mu       sync.Mutex
	byPart   map[string][]domain.Document
	errs     map[string]error
	requests []string
}

func newMockRetriever() *mockRetriever {
	return &mockRetriever{
		byPart: make(map[string][]domain.Document),
		errs:   make(map[string]error),
	}
}

func (m *mockRetriever) add(partitionID string, docs ...domain.Document) {
	m.byPart[partitionID] = append(m.byPart[partitionID], docs...)
}

func (m *mockRetriever) Retrieve(
	_ context.Context, partitionID, _ string, opts domain.RetrieveOptions,
) ([]domain.Document, error) {
	m.mu.Lock()
	m.requests = append(m.requests, partitionID)
	m.mu.Unlock()

	if err := m.errs[partitionID]; err != nil {
		return nil, err
	}

	docs := m.byPart[partitionID]
	opts = opts.Normalised()
	if len(docs) > opts.TopK {
		docs = docs[:opts.TopK]
	}
	return docs, nil
}

func (m *mockRetriever) requested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// mockReasoningService implements driven.ReasoningService for testing.
type mockReasoningService struct {
	stage        domain.Stage
	stageErr     error
	attrs        domain.QueryAttributes
	attrsErr     error
	feedbackAct  domain.FeedbackAction
	feedbackErr  error
	summary      string
	summaryErr   error
	composed     string
	composeErr   error
	decideCalls  int
	composeCalls int
}

func (m *mockReasoningService) DecideStage(_ context.Context, _ driven.StateSummary) (domain.Stage, error) {
	m.decideCalls++
	if m.stageErr != nil {
		return "", m.stageErr
	}
	return m.stage, nil
}

func (m *mockReasoningService) ExtractAttributes(_ context.Context, _ string) (domain.QueryAttributes, error) {
	if m.attrsErr != nil {
		return domain.QueryAttributes{}, m.attrsErr
	}
	return m.attrs, nil
}

func (m *mockReasoningService) ParseFeedback(_ context.Context, _ string) (domain.FeedbackAction, error) {
	if m.feedbackErr != nil {
		return "", m.feedbackErr
	}
	return m.feedbackAct, nil
}

func (m *mockReasoningService) Summarise(_ context.Context, _, _ string) (string, error) {
	if m.summaryErr != nil {
		return "", m.summaryErr
	}
	return m.summary, nil
}

func (m *mockReasoningService) Compose(_ context.Context, _ string, _ []domain.Document) (string, error) {
	m.composeCalls++
	if m.composeErr != nil {
		return "", m.composeErr
	}
	return m.composed, nil
}

func (m *mockReasoningService) ModelName() string {
	return "mock-reason"
}

func (m *mockReasoningService) Ping(_ context.Context) error {
	return nil
}

func (m *mockReasoningService) Close() error {
	return nil
}

// mockFeedbackChannel implements driven.FeedbackChannel, replaying a
// scripted sequence of decisions.
type mockFeedbackChannel struct {
	decisions   []domain.FeedbackDecision
	presentErr  error
	decisionErr error
	presented   [][]domain.Document
	next        int
}

func (m *mockFeedbackChannel) Present(_ context.Context, docs []domain.Document, _ []string) error {
	if m.presentErr != nil {
		return m.presentErr
	}
	m.presented = append(m.presented, append([]domain.Document(nil), docs...))
	return nil
}

func (m *mockFeedbackChannel) Decision(_ context.Context) (domain.FeedbackDecision, error) {
	if m.decisionErr != nil {
		return domain.FeedbackDecision{}, m.decisionErr
	}
	if m.next >= len(m.decisions) {
		return domain.FeedbackDecision{Action: domain.FeedbackAcceptAll}, nil
	}
	d := m.decisions[m.next]
	m.next++
	return d, nil
}

// mockWebSearchService implements driven.WebSearchService for testing.
type mockWebSearchService struct {
	docs      []domain.Document
	searchErr error
	calls     int
}

func (m *mockWebSearchService) Search(_ context.Context, _ string, k int) ([]domain.Document, error) {
	m.calls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.docs) {
		return m.docs, nil
	}
	return m.docs[:k], nil
}

func (m *mockWebSearchService) Close() error {
	return nil
}

// mockSessionStore implements driven.SessionStore in memory.
type mockSessionStore struct {
	mu      sync.Mutex
	states  map[string]*domain.SessionState
	saveErr error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{states: make(map[string]*domain.SessionState)}
}

func (m *mockSessionStore) Save(_ context.Context, state *domain.SessionState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	m.states[state.ID] = &copied
	return nil
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

func (m *mockSessionStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockSessionStore) Close() error {
	return nil
}

// --- Test helpers ---

func testCatalog() *domain.Catalog {
	catalog, err := domain.NewCatalog([]domain.Partition{
		{
			ID:               "crane",
			Domain:           "crane and lifting equipment safety",
			Keywords:         []string{"crane", "hoist", "lifting", "wire rope", "boom"},
			ExampleIncidents: []string{"crane boom collapse during lift"},
		},
		{
			ID:               "bridge",
			Domain:           "bridge construction and structural work",
			Keywords:         []string{"bridge", "girder", "span", "falsework"},
			ExampleIncidents: []string{"girder fall during bridge erection"},
		},
		{
			ID:               "scaffold",
			Domain:           "scaffolding and temporary work platforms",
			Keywords:         []string{"scaffold", "platform", "guardrail"},
			ExampleIncidents: []string{"scaffold collapse from overloading"},
		},
		{
			ID:       "general",
			Domain:   "general construction safety guidance",
			Keywords: []string{"ppe", "training", "safety plan"},
		},
	})
	if err != nil {
		panic(err)
	}
	return catalog
}

func testDoc(partitionID, id string) domain.Document {
	return domain.Document{
		PartitionID: partitionID,
		Source:      "guide-" + id,
		Section:     "section-" + id,
		Content:     "guidance text for " + partitionID + " " + id,
	}
}

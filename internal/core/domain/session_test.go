package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionDoc(partitionID, content string) Document {
	return Document{PartitionID: partitionID, Source: "src", Content: content}
}

func TestStage_Valid(t *testing.T) {
	for _, s := range []Stage{
		StageNeedRouting, StageNeedRetrieval, StageNeedFeedback,
		StageNeedAugment, StageNeedCompose, StageDone, StageSuspended,
	} {
		assert.True(t, s.Valid(), string(s))
	}

	assert.False(t, Stage("NEED_COFFEE").Valid())
	assert.False(t, Stage("").Valid())
	assert.False(t, Stage("done").Valid())
}

func TestStage_Terminal(t *testing.T) {
	assert.True(t, StageDone.Terminal())
	assert.False(t, StageSuspended.Terminal())
	assert.False(t, StageNeedCompose.Terminal())
}

func TestFeedbackAction_Valid(t *testing.T) {
	for _, a := range []FeedbackAction{
		FeedbackAcceptAll, FeedbackSelectPartial, FeedbackRequeryKeyword,
		FeedbackRequeryPartition, FeedbackEscalateWeb, FeedbackCancel,
	} {
		assert.True(t, a.Valid(), string(a))
	}

	assert.False(t, FeedbackAction("retry").Valid())
	assert.False(t, FeedbackAction("").Valid())
}

func TestIntent_Valid(t *testing.T) {
	assert.True(t, IntentSearchOnly.Valid())
	assert.True(t, IntentReport.Valid())
	assert.False(t, Intent("summary").Valid())
}

func TestSessionState_MergeDocuments_Union(t *testing.T) {
	s := &SessionState{Documents: []Document{
		sessionDoc("crane", "alpha"),
		sessionDoc("crane", "beta"),
	}}

	s.MergeDocuments([]Document{
		sessionDoc("crane", "beta"),
		sessionDoc("crane", "gamma"),
	}, 0)

	require.Len(t, s.Documents, 3)
	assert.Equal(t, "alpha", s.Documents[0].Content)
	assert.Equal(t, "beta", s.Documents[1].Content)
	assert.Equal(t, "gamma", s.Documents[2].Content)
}

func TestSessionState_MergeDocuments_NeverDropsExisting(t *testing.T) {
	s := &SessionState{Documents: []Document{
		sessionDoc("crane", "alpha"),
	}}

	s.MergeDocuments(nil, 0)

	require.Len(t, s.Documents, 1)
}

func TestSessionState_MergeDocuments_Cap(t *testing.T) {
	s := &SessionState{Documents: []Document{
		sessionDoc("crane", "alpha"),
		sessionDoc("crane", "beta"),
	}}

	s.MergeDocuments([]Document{
		sessionDoc("crane", "gamma"),
		sessionDoc("crane", "delta"),
	}, 3)

	require.Len(t, s.Documents, 3)
	// Existing documents keep their position at the head.
	assert.Equal(t, "alpha", s.Documents[0].Content)
	assert.Equal(t, "beta", s.Documents[1].Content)
	assert.Equal(t, "gamma", s.Documents[2].Content)
}

func TestSessionState_SelectIndices(t *testing.T) {
	s := &SessionState{Documents: []Document{
		sessionDoc("crane", "alpha"),
		sessionDoc("crane", "beta"),
		sessionDoc("crane", "gamma"),
	}}

	s.SelectIndices([]int{1, 3})

	require.Len(t, s.Documents, 2)
	assert.Equal(t, "alpha", s.Documents[0].Content)
	assert.Equal(t, "gamma", s.Documents[1].Content)
}

func TestSessionState_SelectIndices_IgnoresOutOfRange(t *testing.T) {
	s := &SessionState{Documents: []Document{
		sessionDoc("crane", "alpha"),
		sessionDoc("crane", "beta"),
	}}

	s.SelectIndices([]int{0, 2, 7, -1})

	require.Len(t, s.Documents, 1)
	assert.Equal(t, "beta", s.Documents[0].Content)
}

func TestSessionState_SelectIndices_EmptyIsNoOp(t *testing.T) {
	s := &SessionState{Documents: []Document{
		sessionDoc("crane", "alpha"),
	}}

	s.SelectIndices(nil)
	require.Len(t, s.Documents, 1)

	s.SelectIndices([]int{99})
	require.Len(t, s.Documents, 1)
}

func TestSessionState_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	original := SessionState{
		ID:     "s-1",
		Intent: IntentReport,
		Query:  "girder fell during lift",
		Attributes: QueryAttributes{
			Object:  "girder",
			Process: "lifting",
		},
		Stage:     StageSuspended,
		Plan:      &PartitionPlan{Partitions: []string{"bridge"}, Fallback: true, FallbackPartition: "general"},
		LoopCount: 2,
		Documents: []Document{sessionDoc("bridge", "alpha")},
		Retrieved: true,
		Suspended: true,
		PendingFeedback: []Document{
			sessionDoc("bridge", "alpha"),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored SessionState
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original, restored)
}

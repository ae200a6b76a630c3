package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardhat-labs/girder-cli/internal/core/domain"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	state := &domain.SessionState{
		ID:        "sess-1",
		Intent:    domain.IntentSearchOnly,
		Query:     "scaffold tie spacing",
		Stage:     domain.StageSuspended,
		Suspended: true,
	}
	require.NoError(t, store.Save(ctx, state))

	restored, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, state, restored)
}

func TestSessionStore_GetUnknownReturnsNotFound(t *testing.T) {
	store := NewSessionStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_SaveRejectsMissingID(t *testing.T) {
	store := NewSessionStore()

	err := store.Save(context.Background(), &domain.SessionState{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.SessionState{ID: "sess-1"}))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_List(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.SessionState{ID: "sess-a"}))
	require.NoError(t, store.Save(ctx, &domain.SessionState{ID: "sess-b"}))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sess-a", "sess-b"}, ids)
}

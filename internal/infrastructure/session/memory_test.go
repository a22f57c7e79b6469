package session

import (
	"context"
	"testing"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DefaultsToIdle(t *testing.T) {
	store := NewMemoryStore()

	s, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.UserID)
	assert.Equal(t, domain.StateIdle, s.State)
	assert.Empty(t, s.CurrentRoom)
}

func TestMemoryStore_SaveIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := domain.NewSession(7)
	s.State = domain.StateAwaitingJoinCode
	s.CurrentRoom = "4821"
	s.Listing = []uint64{1, 2, 3}
	require.NoError(t, store.Save(ctx, s))

	s.Listing[0] = 99
	s.State = domain.StateIdle

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingJoinCode, got.State)
	assert.Equal(t, "4821", got.CurrentRoom)
	assert.Equal(t, []uint64{1, 2, 3}, got.Listing)

	other, err := store.Get(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, other.CurrentRoom)
}

func TestMemoryStore_SaveRejectsMissingUser(t *testing.T) {
	err := NewMemoryStore().Save(context.Background(), &domain.Session{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

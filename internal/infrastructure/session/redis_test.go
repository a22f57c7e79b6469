package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilthontt/todoroom/internal/domain"
)

func unreachableStore(t *testing.T) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStoreWithClient(client, "test:", time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStore_Key(t *testing.T) {
	store := unreachableStore(t)
	assert.Equal(t, "test:session:42", store.key(42))
}

func TestRedisStore_Unavailable(t *testing.T) {
	store := unreachableStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	err = store.Save(ctx, domain.NewSession(42))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	assert.Error(t, store.Ping(ctx))
}

func TestRedisStore_SaveRejectsAnonymous(t *testing.T) {
	store := unreachableStore(t)
	require.ErrorIs(t, store.Save(context.Background(), &domain.Session{}), domain.ErrInvalidInput)
}

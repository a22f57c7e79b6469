package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func TestStoreError(t *testing.T) {
	assert.NoError(t, storeError("op", nil))
	assert.Equal(t, domain.ErrRoomFull, storeError("op", domain.ErrRoomFull))

	err := storeError("list todos", errors.New("connection reset"))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "list todos")
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isDuplicate(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicate(errors.New("boom")))
}

func TestTodoModelRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	todo := domain.Todo{
		ID:        7,
		RoomCode:  "4821",
		Category:  domain.CategoryMedia,
		Text:      "Dune",
		Done:      true,
		CreatedBy: 42,
		CreatedAt: created,
	}
	assert.Equal(t, todo, toTodoModel(&todo).toDomain())
}

func TestUserModel_FitsLongestTelegramName(t *testing.T) {
	parsed, err := schema.Parse(&userModel{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	field := parsed.LookUpField("DisplayName")
	require.NotNil(t, field)
	// first name and last name are up to 64 characters each, joined by a space
	assert.GreaterOrEqual(t, field.Size, 64+1+64)
}

// openTestStore connects to the database named by TODOROOM_TEST_DATABASE_URL.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TODOROOM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TODOROOM_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, Options{DSN: dsn, MaxOpenConns: 8, AutoMigrate: true}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.db.Exec("TRUNCATE todos, room_members, rooms, users RESTART IDENTITY").Error)
	return store
}

func TestStore_JoinRace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	room, err := domain.NewRoom("4821", "Weekend", "digest")
	require.NoError(t, err)
	require.NoError(t, store.Rooms.CreateWithOwner(ctx, room, 1))
	assert.ErrorIs(t, store.Rooms.CreateWithOwner(ctx, room, 2), domain.ErrRoomCodeTaken)

	for id := int64(2); id <= 9; id++ {
		_, err := store.Rooms.AddMember(ctx, room.Code, id, domain.DefaultMemberLimit)
		require.NoError(t, err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Rooms.AddMember(ctx, room.Code, int64(100+i), domain.DefaultMemberLimit)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRoomFull)
	}
	assert.Equal(t, 1, ok)

	members, err := store.Rooms.Members(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, members, domain.DefaultMemberLimit)

	_, err = store.Rooms.AddMember(ctx, room.Code, 1, domain.DefaultMemberLimit)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)
}

func TestStore_Todos(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, code := range []string{"4821", "1234"} {
		room, err := domain.NewRoom(code, "Room "+code, "digest")
		require.NoError(t, err)
		require.NoError(t, store.Rooms.CreateWithOwner(ctx, room, 1))
	}

	chess, err := domain.NewTodo("4821", domain.CategoryGame, "Chess", 1)
	require.NoError(t, err)
	require.NoError(t, store.Todos.Create(ctx, chess))
	dune, err := domain.NewTodo("4821", domain.CategoryMedia, "Dune", 1)
	require.NoError(t, err)
	require.NoError(t, store.Todos.Create(ctx, dune))

	games := domain.CategoryGame
	listed, err := store.Todos.List(ctx, "4821", domain.TodoFilter{Category: &games})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Chess", listed[0].Text)

	done, err := store.Todos.MarkDone(ctx, "4821", chess.ID)
	require.NoError(t, err)
	assert.True(t, done.Done)

	_, err = store.Todos.MarkDone(ctx, "1234", chess.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	_, err = store.Todos.Delete(ctx, "4821", dune.ID)
	require.NoError(t, err)
	_, err = store.Todos.Delete(ctx, "4821", dune.ID)
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	all, err := store.Todos.List(ctx, "4821", domain.TodoFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Done)

	require.NoError(t, store.Users.Upsert(ctx, domain.NewUser(1, "Ann")))
	require.NoError(t, store.Users.Upsert(ctx, domain.NewUser(1, "Annie")))
	user, err := store.Users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Annie", user.DisplayName)
}

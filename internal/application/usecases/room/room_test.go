package room

import (
	"context"
	"sync"
	"testing"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/credential"
	"github.com/hilthontt/todoroom/internal/infrastructure/repository"
	"github.com/hilthontt/todoroom/internal/infrastructure/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type broadcastCall struct {
	Event   domain.Event
	Exclude int64
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, event domain.Event, exclude int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{Event: event, Exclude: exclude})
}

func (b *recordingBroadcaster) Calls() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastCall(nil), b.calls...)
}

type fixture struct {
	uc          *roomUseCase
	rooms       domain.RoomRepository
	sessions    domain.SessionStore
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rooms := repository.NewRoomRepository()
	sessions := session.NewMemoryStore()
	broadcaster := &recordingBroadcaster{}

	uc := NewRoomUseCase(
		rooms,
		sessions,
		credential.NewHasher(bcrypt.MinCost),
		broadcaster,
		zap.NewNop(),
		nil,
		DefaultOptions(),
	).(*roomUseCase)

	return &fixture{uc: uc, rooms: rooms, sessions: sessions, broadcaster: broadcaster}
}

func (f *fixture) session(t *testing.T, userID int64) *domain.Session {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return s
}

func (f *fixture) create(t *testing.T, ownerID int64, name, password string) *domain.Room {
	t.Helper()
	room, err := f.uc.Create(context.Background(), f.session(t, ownerID), name, password, *domain.NewUser(ownerID, "owner"))
	require.NoError(t, err)
	return room
}

func (f *fixture) memberCount(t *testing.T, code string) int {
	t.Helper()
	members, err := f.rooms.Members(context.Background(), code)
	require.NoError(t, err)
	return len(members)
}

func TestRoomUseCase_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.create(t, 1, "Weekend", "abcd")

	assert.Regexp(t, `^[0-9]{4}$`, room.Code)
	assert.Equal(t, "Weekend", room.Name)
	assert.NotEqual(t, "abcd", room.PasswordHash)

	ok, err := f.rooms.IsMember(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	current, err := f.uc.CurrentRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, room.Code, current)
}

func TestRoomUseCase_Create_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, f.session(t, 1), "  ", "abcd", *domain.NewUser(1, "a"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, f.session(t, 1), "Weekend", "", *domain.NewUser(1, "a"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	count, err := f.rooms.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRoomUseCase_Create_CodesAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		room := f.create(t, int64(i+1), "Room", "pw")
		assert.False(t, seen[room.Code], "duplicate code %s", room.Code)
		seen[room.Code] = true
	}
}

func TestRoomUseCase_Create_CollisionFallsBackToScan(t *testing.T) {
	f := newFixture(t)
	f.uc.nextCode = func() (int, error) { return 7, nil }

	first := f.create(t, 1, "First", "pw")
	second := f.create(t, 2, "Second", "pw")
	third := f.create(t, 3, "Third", "pw")

	assert.Equal(t, "0007", first.Code)
	assert.Equal(t, "0008", second.Code)
	assert.Equal(t, "0009", third.Code)
}

func TestRoomUseCase_Create_ScanWrapsAround(t *testing.T) {
	f := newFixture(t)
	f.uc.nextCode = func() (int, error) { return 9999, nil }

	assert.Equal(t, "9999", f.create(t, 1, "A", "pw").Code)
	assert.Equal(t, "0000", f.create(t, 2, "B", "pw").Code)
}

type fullRooms struct {
	domain.RoomRepository
	count int64
}

func (r fullRooms) Count(context.Context) (int64, error)             { return r.count, nil }
func (r fullRooms) CodeExists(context.Context, string) (bool, error) { return true, nil }

func TestRoomUseCase_Create_RegistryExhausted(t *testing.T) {
	for _, count := range []int64{domain.RoomCodeSpace, domain.RoomCodeSpace - 1} {
		f := newFixture(t)
		f.uc.rooms = fullRooms{RoomRepository: f.rooms, count: count}

		_, err := f.uc.Create(context.Background(), f.session(t, 1), "Weekend", "abcd", *domain.NewUser(1, "a"))
		assert.ErrorIs(t, err, domain.ErrRegistryExhausted)
	}
}

func TestRoomUseCase_Join_Example(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.create(t, 1, "Weekend", "abcd")
	bob := *domain.NewUser(2, "Bob")

	_, err := f.uc.Join(ctx, f.session(t, 2), room.Code, "wrong", bob)
	assert.ErrorIs(t, err, domain.ErrBadPassword)
	assert.Equal(t, 1, f.memberCount(t, room.Code))
	assert.Empty(t, f.broadcaster.Calls())

	current, err := f.uc.CurrentRoom(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, current)

	result, err := f.uc.Join(ctx, f.session(t, 2), room.Code, "abcd", bob)
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
	assert.Equal(t, room.Code, result.Room.Code)
	assert.Equal(t, 2, f.memberCount(t, room.Code))

	calls := f.broadcaster.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.EventMemberJoined, calls[0].Event.Kind)
	assert.Equal(t, "Bob", calls[0].Event.ActorName)
	assert.Equal(t, int64(2), calls[0].Exclude)

	current, err = f.uc.CurrentRoom(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, room.Code, current)
}

func TestRoomUseCase_Join_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.create(t, 1, "Weekend", "abcd")

	result, err := f.uc.Join(ctx, f.session(t, 1), room.Code, "abcd", *domain.NewUser(1, "owner"))
	require.NoError(t, err)
	assert.True(t, result.AlreadyMember)
	assert.Equal(t, 1, f.memberCount(t, room.Code))
	assert.Empty(t, f.broadcaster.Calls())
}

func TestRoomUseCase_Join_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.create(t, 1, "Weekend", "abcd")

	_, err := f.uc.Join(ctx, f.session(t, 2), "12a4", "abcd", *domain.NewUser(2, "b"))
	assert.ErrorIs(t, err, domain.ErrInvalidRoomCode)

	missing := "0000"
	if room.Code == missing {
		missing = "0001"
	}
	_, err = f.uc.Join(ctx, f.session(t, 2), missing, "abcd", *domain.NewUser(2, "b"))
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomUseCase_Join_RoomFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.create(t, 1, "Weekend", "abcd")

	for id := int64(2); id <= domain.DefaultMemberLimit; id++ {
		_, err := f.uc.Join(ctx, f.session(t, id), room.Code, "abcd", *domain.NewUser(id, "m"))
		require.NoError(t, err)
	}
	assert.Equal(t, domain.DefaultMemberLimit, f.memberCount(t, room.Code))

	_, err := f.uc.Join(ctx, f.session(t, 99), room.Code, "abcd", *domain.NewUser(99, "late"))
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	assert.Equal(t, domain.DefaultMemberLimit, f.memberCount(t, room.Code))
}

func TestRoomUseCase_Join_ConcurrentLastSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.create(t, 1, "Weekend", "abcd")
	for id := int64(2); id <= 9; id++ {
		_, err := f.uc.Join(ctx, f.session(t, id), room.Code, "abcd", *domain.NewUser(id, "m"))
		require.NoError(t, err)
	}
	require.Equal(t, 9, f.memberCount(t, room.Code))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := int64(100 + i)
			_, errs[i] = f.uc.Join(ctx, domain.NewSession(id), room.Code, "abcd", *domain.NewUser(id, "racer"))
		}(i)
	}
	wg.Wait()

	succeeded, full := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if assert.ErrorIs(t, err, domain.ErrRoomFull) {
			full++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, full)
	assert.Equal(t, domain.DefaultMemberLimit, f.memberCount(t, room.Code))
}

func TestRoomUseCase_SwitchAndRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, 1, "First", "pw")
	second := f.create(t, 2, "Second", "pw")

	s := f.session(t, 1)
	_, err := f.uc.Switch(ctx, s, second.Code)
	assert.ErrorIs(t, err, domain.ErrNotAMember)

	_, err = f.uc.Join(ctx, f.session(t, 1), second.Code, "pw", *domain.NewUser(1, "a"))
	require.NoError(t, err)

	s = f.session(t, 1)
	switched, err := f.uc.Switch(ctx, s, first.Code)
	require.NoError(t, err)
	assert.Equal(t, first.Code, switched.Code)

	infos, err := f.uc.RoomsOf(ctx, 1)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, info.Room.Code == first.Code, info.IsCurrent)
	}

	info, err := f.uc.Describe(ctx, second.Code, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, info.MemberCount)
	assert.False(t, info.IsCurrent)

	_, err = f.uc.Describe(ctx, first.Code, 2)
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}

type unsavableSessions struct{ domain.SessionStore }

func (unsavableSessions) Save(context.Context, *domain.Session) error {
	return domain.ErrStoreUnavailable
}

func TestRoomUseCase_SessionSaveFailureKeepsCommittedWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uc.sessions = unsavableSessions{SessionStore: f.sessions}

	ownerSession := f.session(t, 1)
	room, err := f.uc.Create(ctx, ownerSession, "Weekend", "abcd", *domain.NewUser(1, "Ann"))
	require.NoError(t, err)
	assert.Equal(t, room.Code, ownerSession.CurrentRoom)
	assert.Equal(t, 1, f.memberCount(t, room.Code))

	bobSession := f.session(t, 2)
	result, err := f.uc.Join(ctx, bobSession, room.Code, "abcd", *domain.NewUser(2, "Bob"))
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
	assert.Equal(t, room.Code, bobSession.CurrentRoom)
	assert.Equal(t, 2, f.memberCount(t, room.Code))

	calls := f.broadcaster.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.EventMemberJoined, calls[0].Event.Kind)
	assert.Equal(t, int64(2), calls[0].Exclude)
}

func TestNewRoomUseCase_MemberLimitCapped(t *testing.T) {
	uc := NewRoomUseCase(
		repository.NewRoomRepository(),
		session.NewMemoryStore(),
		credential.NewHasher(bcrypt.MinCost),
		&recordingBroadcaster{},
		zap.NewNop(),
		nil,
		Options{MemberLimit: 50},
	).(*roomUseCase)

	assert.Equal(t, domain.DefaultMemberLimit, uc.opts.MemberLimit)
}

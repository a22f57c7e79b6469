package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

type Options struct {
	MemberLimit int
	// RandomAttempts is the number of random codes tried before the
	// registry falls back to probing the whole code space.
	RandomAttempts int
}

func DefaultOptions() Options {
	return Options{
		MemberLimit:    domain.DefaultMemberLimit,
		RandomAttempts: 32,
	}
}

type JoinResult struct {
	Room *domain.Room
	// AlreadyMember reports an idempotent join: no membership was added
	// and nobody was notified.
	AlreadyMember bool
}

type Info struct {
	Room        domain.Room
	MemberCount int
	IsCurrent   bool
}

type RoomUseCase interface {
	// Create allocates a code, stores the room with the creator as first
	// member and makes it the creator's current room.
	Create(ctx context.Context, session *domain.Session, name, password string, creator domain.User) (*domain.Room, error)
	// Join verifies the password and adds the user as a member. The room
	// becomes the user's current room.
	Join(ctx context.Context, session *domain.Session, code, password string, user domain.User) (*JoinResult, error)
	// CurrentRoom returns the user's current room code, or "" when none is
	// selected.
	CurrentRoom(ctx context.Context, userID int64) (string, error)
	Switch(ctx context.Context, session *domain.Session, code string) (*domain.Room, error)
	RoomsOf(ctx context.Context, userID int64) ([]Info, error)
	Describe(ctx context.Context, code string, userID int64) (*Info, error)
}

type roomUseCase struct {
	rooms       domain.RoomRepository
	sessions    domain.SessionStore
	hasher      PasswordHasher
	broadcaster domain.Broadcaster
	logger      *zap.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	opts        Options
	nextCode    func() (int, error)
}

func NewRoomUseCase(
	rooms domain.RoomRepository,
	sessions domain.SessionStore,
	hasher PasswordHasher,
	broadcaster domain.Broadcaster,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts Options,
) RoomUseCase {
	if opts.MemberLimit <= 0 || opts.MemberLimit > domain.DefaultMemberLimit {
		opts.MemberLimit = domain.DefaultMemberLimit
	}
	if opts.RandomAttempts <= 0 {
		opts.RandomAttempts = DefaultOptions().RandomAttempts
	}
	return &roomUseCase{
		rooms:       rooms,
		sessions:    sessions,
		hasher:      hasher,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     m,
		tracer:      otel.Tracer("todoroom/usecases/room"),
		opts:        opts,
		nextCode:    randomCode,
	}
}

func (uc *roomUseCase) Create(ctx context.Context, session *domain.Session, name, password string, creator domain.User) (*domain.Room, error) {
	ctx, span := uc.tracer.Start(ctx, "roomUseCase.Create")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", creator.ID))

	if err := domain.ValidateRoomInput(name, password); err != nil {
		return nil, err
	}

	count, err := uc.rooms.Count(ctx)
	if err != nil {
		uc.logger.Error("failed to count rooms", zap.Error(err))
		return nil, recordError(span, err)
	}
	if count >= domain.RoomCodeSpace {
		uc.logger.Error("room code space exhausted", zap.Int64("rooms", count))
		return nil, recordError(span, domain.ErrRegistryExhausted)
	}

	digest, err := uc.hasher.Hash(password)
	if err != nil {
		uc.logger.Error("failed to hash room password", zap.Error(err))
		return nil, recordError(span, fmt.Errorf("hash password: %w", err))
	}

	room, err := uc.allocate(ctx, name, digest, creator.ID)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.String("room.code", room.Code))

	uc.selectCommitted(ctx, session, room.Code)

	uc.metrics.RoomCreated()
	uc.logger.Info("room created", zap.String("room", room.Code), zap.Int64("creator", creator.ID))
	span.SetStatus(codes.Ok, "room created")
	return room, nil
}

// allocate tries random codes first, then walks the code space from a
// random offset so the search always terminates.
func (uc *roomUseCase) allocate(ctx context.Context, name, digest string, ownerID int64) (*domain.Room, error) {
	for attempt := 0; attempt < uc.opts.RandomAttempts; attempt++ {
		n, err := uc.nextCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}

		room, err := uc.tryCreate(ctx, domain.FormatRoomCode(n), name, digest, ownerID)
		if err != nil || room != nil {
			return room, err
		}
		uc.logger.Debug("room code collision, retrying", zap.Int("attempt", attempt+1))
	}

	start, err := uc.nextCode()
	if err != nil {
		return nil, fmt.Errorf("generate room code: %w", err)
	}
	for i := 0; i < domain.RoomCodeSpace; i++ {
		code := domain.FormatRoomCode((start + i) % domain.RoomCodeSpace)
		room, err := uc.tryCreate(ctx, code, name, digest, ownerID)
		if err != nil || room != nil {
			return room, err
		}
	}

	return nil, domain.ErrRegistryExhausted
}

// tryCreate returns a nil room and nil error when the code is taken.
func (uc *roomUseCase) tryCreate(ctx context.Context, code, name, digest string, ownerID int64) (*domain.Room, error) {
	exists, err := uc.rooms.CodeExists(ctx, code)
	if err != nil {
		uc.logger.Error("failed to check room code", zap.Error(err), zap.String("room", code))
		return nil, err
	}
	if exists {
		return nil, nil
	}

	room, err := domain.NewRoom(code, name, digest)
	if err != nil {
		return nil, err
	}

	if err := uc.rooms.CreateWithOwner(ctx, room, ownerID); err != nil {
		if errors.Is(err, domain.ErrRoomCodeTaken) {
			return nil, nil
		}
		uc.logger.Error("failed to create room", zap.Error(err), zap.String("room", code))
		return nil, err
	}
	return room, nil
}

func (uc *roomUseCase) Join(ctx context.Context, session *domain.Session, code, password string, user domain.User) (*JoinResult, error) {
	ctx, span := uc.tracer.Start(ctx, "roomUseCase.Join")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	code, err := domain.ParseRoomCode(code)
	if err != nil {
		return nil, recordError(span, err)
	}
	span.SetAttributes(attribute.String("room.code", code))

	room, err := uc.rooms.GetByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			uc.logger.Error("failed to load room", zap.Error(err), zap.String("room", code))
		}
		return nil, recordError(span, err)
	}

	if !uc.hasher.Verify(password, room.PasswordHash) {
		uc.logger.Info("join rejected: bad password", zap.String("room", code), zap.Int64("user", user.ID))
		return nil, recordError(span, domain.ErrBadPassword)
	}

	result := &JoinResult{Room: room}
	if _, err := uc.rooms.AddMember(ctx, code, user.ID, uc.opts.MemberLimit); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyMember):
			uc.logger.Debug("user already in room", zap.String("room", code), zap.Int64("user", user.ID))
			result.AlreadyMember = true
		case errors.Is(err, domain.ErrRoomFull), errors.Is(err, domain.ErrRoomNotFound):
			return nil, recordError(span, err)
		default:
			uc.logger.Error("failed to add member", zap.Error(err), zap.String("room", code), zap.Int64("user", user.ID))
			return nil, recordError(span, err)
		}
	}

	if !result.AlreadyMember {
		uc.metrics.MemberJoined()
		uc.logger.Info("user joined room", zap.String("room", code), zap.Int64("user", user.ID))
		uc.broadcaster.Broadcast(ctx, domain.Event{
			Kind:      domain.EventMemberJoined,
			RoomCode:  room.Code,
			RoomName:  room.Name,
			ActorID:   user.ID,
			ActorName: user.DisplayName,
		}, user.ID)
	}

	uc.selectCommitted(ctx, session, code)

	span.SetStatus(codes.Ok, "joined")
	return result, nil
}

func (uc *roomUseCase) CurrentRoom(ctx context.Context, userID int64) (string, error) {
	session, err := uc.sessions.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return session.CurrentRoom, nil
}

func (uc *roomUseCase) Switch(ctx context.Context, session *domain.Session, code string) (*domain.Room, error) {
	code, err := domain.ParseRoomCode(code)
	if err != nil {
		return nil, err
	}

	room, err := uc.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	member, err := uc.rooms.IsMember(ctx, code, session.UserID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrNotAMember
	}

	if err := uc.setCurrentRoom(ctx, session, code); err != nil {
		return nil, err
	}
	return room, nil
}

func (uc *roomUseCase) RoomsOf(ctx context.Context, userID int64) ([]Info, error) {
	rooms, err := uc.rooms.RoomsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, err := uc.CurrentRoom(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		members, err := uc.rooms.Members(ctx, r.Code)
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{Room: r, MemberCount: len(members), IsCurrent: r.Code == current})
	}
	return infos, nil
}

func (uc *roomUseCase) Describe(ctx context.Context, code string, userID int64) (*Info, error) {
	room, err := uc.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	members, err := uc.rooms.Members(ctx, code)
	if err != nil {
		return nil, err
	}

	isMember := false
	for _, m := range members {
		if m.UserID == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, domain.ErrNotAMember
	}

	current, err := uc.CurrentRoom(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Info{Room: *room, MemberCount: len(members), IsCurrent: current == code}, nil
}

// selectCommitted makes code the current room after the room or membership
// is already stored. A failed save is logged only; the caller persists the
// session again when it finishes the request.
func (uc *roomUseCase) selectCommitted(ctx context.Context, session *domain.Session, code string) {
	if err := uc.setCurrentRoom(ctx, session, code); err != nil {
		uc.logger.Warn("failed to store current room", zap.Error(err), zap.String("room", code), zap.Int64("user", session.UserID))
	}
}

func (uc *roomUseCase) setCurrentRoom(ctx context.Context, session *domain.Session, code string) error {
	session.CurrentRoom = code
	return uc.sessions.Save(ctx, session)
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

package domain

import "context"

type UserRepository interface {
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
}

type RoomRepository interface {
	// CreateWithOwner inserts the room and the owner's membership atomically.
	// It returns ErrRoomCodeTaken when the code is already used.
	CreateWithOwner(ctx context.Context, room *Room, ownerID int64) error
	GetByCode(ctx context.Context, code string) (*Room, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Count(ctx context.Context) (int64, error)

	// AddMember inserts a membership if the user is not a member yet and the
	// room holds fewer than limit members. The check and the insert are atomic.
	AddMember(ctx context.Context, code string, userID int64, limit int) (*Membership, error)
	IsMember(ctx context.Context, code string, userID int64) (bool, error)
	Members(ctx context.Context, code string) ([]Membership, error)
	RoomsOf(ctx context.Context, userID int64) ([]Room, error)
}

type TodoRepository interface {
	Create(ctx context.Context, todo *Todo) error
	// List returns the room's todos ordered by creation time, oldest first.
	List(ctx context.Context, roomCode string, filter TodoFilter) ([]Todo, error)
	// MarkDone and Delete only act on a todo that belongs to roomCode and
	// return ErrTodoNotFound otherwise.
	MarkDone(ctx context.Context, roomCode string, id uint64) (*Todo, error)
	Delete(ctx context.Context, roomCode string, id uint64) (*Todo, error)
}

type SessionStore interface {
	// Get returns a fresh Idle session when none is stored.
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

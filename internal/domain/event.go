package domain

import "context"

type EventKind string

const (
	EventMemberJoined EventKind = "member.joined"
	EventTodoAdded    EventKind = "todo.added"
	EventTodoDone     EventKind = "todo.done"
	EventTodoDeleted  EventKind = "todo.deleted"
)

// Event describes a committed change to a room.
type Event struct {
	Kind      EventKind
	RoomCode  string
	RoomName  string
	ActorID   int64
	ActorName string
	Todo      *Todo
}

// Delivery is the outcome of notifying one member.
type Delivery struct {
	UserID int64
	Err    error
}

// Broadcaster notifies every member of a room except exclude. Zero means
// nobody is excluded. Broadcast does not wait for delivery; failures are
// logged per recipient and never reach the caller.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event, exclude int64)
}

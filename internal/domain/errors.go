package domain

import "errors"

var (
	ErrRegistryExhausted = errors.New("no free room codes left")
	ErrRoomNotFound      = errors.New("room not found")
	ErrBadPassword       = errors.New("wrong room password")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyMember     = errors.New("already a member of the room")
	ErrNotAMember        = errors.New("not a member of the room")
	ErrTodoNotFound      = errors.New("todo not found")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRoomCode = errors.New("room code must be 4 digits")
	ErrNoCurrentRoom   = errors.New("no current room selected")
	ErrRoomCodeTaken   = errors.New("room code already in use")
	ErrUserNotFound    = errors.New("user not found")
)

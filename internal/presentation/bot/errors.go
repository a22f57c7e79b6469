package bot

import (
	"errors"

	"github.com/hilthontt/todoroom/internal/domain"
)

var errNotANumber = errors.New("not a listing number")

// describeError is the only place a failure becomes user-facing text.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrRegistryExhausted):
		return "No room codes are free right now. Please try again later."
	case errors.Is(err, domain.ErrRoomNotFound):
		return "There is no room with that code."
	case errors.Is(err, domain.ErrBadPassword):
		return "Wrong password."
	case errors.Is(err, domain.ErrRoomFull):
		return "That room is full."
	case errors.Is(err, domain.ErrAlreadyMember):
		return "You are already a member of that room."
	case errors.Is(err, domain.ErrNotAMember):
		return "You are not a member of that room."
	case errors.Is(err, domain.ErrTodoNotFound):
		return "That item does not exist anymore. Send /list to refresh the numbers."
	case errors.Is(err, errNotANumber):
		return "Please send the item number from the last list, e.g. /done 2."
	case errors.Is(err, domain.ErrInvalidCategory):
		return "Unknown category. Choose one of: game, media, action."
	case errors.Is(err, domain.ErrInvalidRoomCode):
		return "Room codes are 4 digits, e.g. 4821."
	case errors.Is(err, domain.ErrNoCurrentRoom):
		return "You are not in a room yet. Use /create or /join first."
	case errors.Is(err, domain.ErrInvalidInput):
		return "That input is empty or too long. Please start again."
	}
	return "Something went wrong on our side. Please try again later."
}

// errorKind is the metrics label for err.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrRegistryExhausted):
		return "registry_exhausted"
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrBadPassword):
		return "bad_password"
	case errors.Is(err, domain.ErrRoomFull):
		return "room_full"
	case errors.Is(err, domain.ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, domain.ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, domain.ErrTodoNotFound):
		return "todo_not_found"
	case errors.Is(err, errNotANumber),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidRoomCode),
		errors.Is(err, domain.ErrNoCurrentRoom),
		errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	}
	return "store_unavailable"
}

package fanout

import (
	"errors"
	"fmt"

	"github.com/hilthontt/todoroom/internal/domain"
)

var errSenderPanic = errors.New("sender panicked")

// Render turns an event into the notification text members receive.
func Render(event domain.Event) domain.Message {
	room := event.RoomName
	if room == "" {
		room = event.RoomCode
	}
	actor := event.ActorName
	if actor == "" {
		actor = "Someone"
	}

	var text string
	switch event.Kind {
	case domain.EventMemberJoined:
		text = fmt.Sprintf("👋 %s joined room \"%s\".", actor, room)
	case domain.EventTodoAdded:
		text = fmt.Sprintf("➕ %s added to %s in \"%s\": %s", actor, categoryLabel(event.Todo), room, todoText(event.Todo))
	case domain.EventTodoDone:
		text = fmt.Sprintf("✅ %s completed in \"%s\": %s", actor, room, todoText(event.Todo))
	case domain.EventTodoDeleted:
		text = fmt.Sprintf("🗑 %s deleted from \"%s\": %s", actor, room, todoText(event.Todo))
	default:
		text = fmt.Sprintf("Room \"%s\" was updated by %s.", room, actor)
	}

	return domain.Message{Text: text}
}

func todoText(t *domain.Todo) string {
	if t == nil {
		return ""
	}
	return t.Text
}

func categoryLabel(t *domain.Todo) string {
	if t == nil {
		return "the list"
	}
	return t.Category.Label()
}

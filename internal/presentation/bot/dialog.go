package bot

import (
	"context"
	"fmt"

	"github.com/hilthontt/todoroom/internal/domain"
)

func (c *Controller) onIdleText(ctx context.Context, r *request) (domain.Message, error) {
	return domain.Message{Text: "I did not understand that.\n\n" + helpText, Keyboard: mainMenu()}, nil
}

func (c *Controller) onRoomName(ctx context.Context, r *request) (domain.Message, error) {
	if err := domain.ValidateRoomName(r.text); err != nil {
		return domain.Message{}, err
	}
	r.session.PendingRoomName = r.text
	r.session.State = domain.StateAwaitingRoomPassword
	return domain.Message{Text: fmt.Sprintf("Now send a password for %q.", r.text)}, nil
}

func (c *Controller) onRoomPassword(ctx context.Context, r *request) (domain.Message, error) {
	created, err := c.rooms.Create(ctx, r.session, r.session.PendingRoomName, r.text, r.user)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.Reset()
	return domain.Message{
		Text: fmt.Sprintf("🏠 Room %q created. Code: %s\nShare the code and the password to invite others.",
			created.Name, created.Code),
		Keyboard: mainMenu(),
	}, nil
}

func (c *Controller) onJoinCode(ctx context.Context, r *request) (domain.Message, error) {
	code, err := domain.ParseRoomCode(r.text)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.PendingJoinCode = code
	r.session.State = domain.StateAwaitingJoinPassword
	return domain.Message{Text: fmt.Sprintf("Send the password for room %s.", code)}, nil
}

func (c *Controller) onJoinPassword(ctx context.Context, r *request) (domain.Message, error) {
	result, err := c.rooms.Join(ctx, r.session, r.session.PendingJoinCode, r.text, r.user)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.Reset()

	text := fmt.Sprintf("🔑 You joined %q (%s).", result.Room.Name, result.Room.Code)
	if result.AlreadyMember {
		text = fmt.Sprintf("You are already in %q (%s). It is now your current room.", result.Room.Name, result.Room.Code)
	}
	return domain.Message{Text: text, Keyboard: mainMenu()}, nil
}

func (c *Controller) onCategory(ctx context.Context, r *request) (domain.Message, error) {
	category, err := domain.ParseCategory(r.text)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.PendingCategory = category
	r.session.State = domain.StateAwaitingTodoText
	return domain.Message{Text: fmt.Sprintf("Send the text for the new %s item.", category.Label())}, nil
}

func (c *Controller) onTodoText(ctx context.Context, r *request) (domain.Message, error) {
	t, err := c.todos.Add(ctx, r.session.CurrentRoom, r.session.PendingCategory, r.text, r.user)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.Reset()
	return domain.Message{Text: fmt.Sprintf("➕ Added to %s: %s", t.Category.Label(), t.Text), Keyboard: mainMenu()}, nil
}

func (c *Controller) onDeleteChoice(ctx context.Context, r *request) (domain.Message, error) {
	code := r.session.CurrentRoom
	id, err := resolveNumber(r.session, code, r.text)
	if err != nil {
		return domain.Message{}, err
	}

	t, err := c.todos.Delete(ctx, code, id, r.user)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.Reset()
	return domain.Message{Text: fmt.Sprintf("🗑 Deleted: %s", t.Text)}, nil
}

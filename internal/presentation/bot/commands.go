package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hilthontt/todoroom/internal/domain"
)

func (c *Controller) cmdStart(ctx context.Context, r *request) (domain.Message, error) {
	return domain.Message{
		Text:     fmt.Sprintf("Hello, %s! I keep shared todo lists for small rooms.\n\n%s", r.user.DisplayName, helpText),
		Keyboard: mainMenu(),
	}, nil
}

func (c *Controller) cmdHelp(ctx context.Context, r *request) (domain.Message, error) {
	return domain.Message{Text: helpText, Keyboard: mainMenu()}, nil
}

// cmdCancel runs after dispatch has already reset any pending dialog.
func (c *Controller) cmdCancel(ctx context.Context, r *request) (domain.Message, error) {
	return domain.Message{Text: "Cancelled.", Keyboard: mainMenu()}, nil
}

func (c *Controller) cmdCreate(ctx context.Context, r *request) (domain.Message, error) {
	if r.args != "" {
		r.text = r.args
		return c.onRoomName(ctx, r)
	}
	r.session.State = domain.StateAwaitingRoomName
	return domain.Message{Text: "Send a name for the new room."}, nil
}

func (c *Controller) cmdJoin(ctx context.Context, r *request) (domain.Message, error) {
	if r.args != "" {
		r.text = r.args
		return c.onJoinCode(ctx, r)
	}
	r.session.State = domain.StateAwaitingJoinCode
	return domain.Message{Text: "Send the 4-digit room code."}, nil
}

// cmdAdd accepts "/add", "/add CATEGORY" and "/add CATEGORY TEXT".
func (c *Controller) cmdAdd(ctx context.Context, r *request) (domain.Message, error) {
	if r.session.CurrentRoom == "" {
		return domain.Message{}, domain.ErrNoCurrentRoom
	}

	if r.args == "" {
		r.session.State = domain.StateAwaitingCategory
		return domain.Message{Text: "Pick a category.", Keyboard: categoryKeyboard()}, nil
	}

	first, rest, _ := strings.Cut(r.args, " ")
	category, err := domain.ParseCategory(first)
	if err != nil {
		return domain.Message{}, err
	}
	if rest = strings.TrimSpace(rest); rest == "" {
		r.session.PendingCategory = category
		r.session.State = domain.StateAwaitingTodoText
		return domain.Message{Text: fmt.Sprintf("Send the text for the new %s item.", category.Label())}, nil
	}

	r.session.PendingCategory = category
	r.text = rest
	return c.onTodoText(ctx, r)
}

func (c *Controller) cmdList(ctx context.Context, r *request) (domain.Message, error) {
	code := r.session.CurrentRoom
	if code == "" {
		return domain.Message{}, domain.ErrNoCurrentRoom
	}

	var filter domain.TodoFilter
	if r.args != "" {
		category, err := domain.ParseCategory(r.args)
		if err != nil {
			return domain.Message{}, err
		}
		filter.Category = &category
	}

	info, err := c.rooms.Describe(ctx, code, r.user.ID)
	if err != nil {
		return domain.Message{}, err
	}
	todos, err := c.todos.List(ctx, code, filter, r.user.ID)
	if err != nil {
		return domain.Message{}, err
	}

	r.session.Remember(code, todos)
	return domain.Message{Text: renderListing(info.Room, filter, todos)}, nil
}

func (c *Controller) cmdDone(ctx context.Context, r *request) (domain.Message, error) {
	code := r.session.CurrentRoom
	if code == "" {
		return domain.Message{}, domain.ErrNoCurrentRoom
	}

	id, err := resolveNumber(r.session, code, r.args)
	if err != nil {
		return domain.Message{}, err
	}

	t, err := c.todos.MarkDone(ctx, code, id, r.user)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{Text: fmt.Sprintf("✅ Done: %s", t.Text)}, nil
}

// cmdDelete deletes "/delete N" directly. Without a number it shows the
// listing and waits for the choice.
func (c *Controller) cmdDelete(ctx context.Context, r *request) (domain.Message, error) {
	code := r.session.CurrentRoom
	if code == "" {
		return domain.Message{}, domain.ErrNoCurrentRoom
	}

	if r.args != "" {
		r.text = r.args
		return c.onDeleteChoice(ctx, r)
	}

	info, err := c.rooms.Describe(ctx, code, r.user.ID)
	if err != nil {
		return domain.Message{}, err
	}
	todos, err := c.todos.List(ctx, code, domain.TodoFilter{}, r.user.ID)
	if err != nil {
		return domain.Message{}, err
	}
	r.session.Remember(code, todos)

	if len(todos) == 0 {
		return domain.Message{Text: renderListing(info.Room, domain.TodoFilter{}, todos)}, nil
	}

	r.session.State = domain.StateAwaitingDeleteChoice
	return domain.Message{
		Text:     renderListing(info.Room, domain.TodoFilter{}, todos) + "\n\nSend the number of the item to delete.",
		Keyboard: numberKeyboard(len(todos)),
	}, nil
}

func (c *Controller) cmdRooms(ctx context.Context, r *request) (domain.Message, error) {
	infos, err := c.rooms.RoomsOf(ctx, r.user.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{Text: renderRooms(infos)}, nil
}

func (c *Controller) cmdSwitch(ctx context.Context, r *request) (domain.Message, error) {
	if r.args == "" {
		return domain.Message{Text: "Usage: /switch CODE"}, nil
	}
	rm, err := c.rooms.Switch(ctx, r.session, r.args)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{Text: fmt.Sprintf("Switched to %q (%s).", rm.Name, rm.Code)}, nil
}

func (c *Controller) cmdRoom(ctx context.Context, r *request) (domain.Message, error) {
	code := r.session.CurrentRoom
	if code == "" {
		return domain.Message{}, domain.ErrNoCurrentRoom
	}
	info, err := c.rooms.Describe(ctx, code, r.user.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{Text: renderRoomInfo(*info)}, nil
}

// resolveNumber maps a 1-based number from the user's last listing of the
// room to a todo id.
func resolveNumber(session *domain.Session, code, arg string) (uint64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, errNotANumber
	}
	if n < 1 {
		return 0, domain.ErrTodoNotFound
	}
	id, ok := session.TodoIDAt(code, n)
	if !ok {
		return 0, domain.ErrTodoNotFound
	}
	return id, nil
}

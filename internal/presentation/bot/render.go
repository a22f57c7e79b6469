package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hilthontt/todoroom/internal/application/usecases/room"
	"github.com/hilthontt/todoroom/internal/domain"
)

const helpText = `Commands:
/create - create a room
/join - join a room with its code and password
/add [category] [text] - add an item to the current room
/list [category] - show the current room's items
/done N - mark item N of the last list as done
/delete [N] - delete an item
/rooms - rooms you belong to
/switch CODE - change the current room
/room - details of the current room
/cancel - abort the current step`

const unknownCommandText = "Unknown command. Send /help to see what I can do."

// sessionNotSavedNote is appended when the change went through but the
// dialog state could not be stored.
const sessionNotSavedNote = "\n\n⚠️ Done, but I could not remember where you are. Use /switch if your current room looks wrong."

func mainMenu() [][]domain.Button {
	return [][]domain.Button{
		{{Label: "➕ Add", Data: "/add"}, {Label: "📋 List", Data: "/list"}},
		{{Label: "🏠 Create room", Data: "/create"}, {Label: "🔑 Join room", Data: "/join"}},
		{{Label: "🗂 My rooms", Data: "/rooms"}},
	}
}

func categoryKeyboard() [][]domain.Button {
	row := make([]domain.Button, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		row = append(row, domain.Button{Label: c.Label(), Data: string(c)})
	}
	return [][]domain.Button{row, {{Label: "Cancel", Data: "/cancel"}}}
}

// numberKeyboard lays out buttons 1..n five per row.
func numberKeyboard(n int) [][]domain.Button {
	const perRow = 5
	var rows [][]domain.Button
	for i := 1; i <= n; i++ {
		if (i-1)%perRow == 0 {
			rows = append(rows, make([]domain.Button, 0, perRow))
		}
		label := strconv.Itoa(i)
		rows[len(rows)-1] = append(rows[len(rows)-1], domain.Button{Label: label, Data: label})
	}
	return append(rows, []domain.Button{{Label: "Cancel", Data: "/cancel"}})
}

func renderListing(rm domain.Room, filter domain.TodoFilter, todos []domain.Todo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s (%s)", rm.Name, rm.Code)
	if filter.Category != nil {
		fmt.Fprintf(&b, " - %s", filter.Category.Label())
	}

	if len(todos) == 0 {
		b.WriteString("\nNo items yet. Add one with /add.")
		return b.String()
	}

	for i, t := range todos {
		mark := "⬜"
		if t.Done {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%d. %s [%s] %s", i+1, mark, t.Category.Label(), t.Text)
	}
	return b.String()
}

func renderRooms(infos []room.Info) string {
	if len(infos) == 0 {
		return "You are not in any room yet. Use /create or /join."
	}

	var b strings.Builder
	b.WriteString("Your rooms:")
	for _, info := range infos {
		current := ""
		if info.IsCurrent {
			current = " ← current"
		}
		fmt.Fprintf(&b, "\n%s %s (%d members)%s", info.Room.Code, info.Room.Name, info.MemberCount, current)
	}
	return b.String()
}

func renderRoomInfo(info room.Info) string {
	return fmt.Sprintf("🏠 %s\nCode: %s\nMembers: %d", info.Room.Name, info.Room.Code, info.MemberCount)
}

func rateLimitedMessage(wait time.Duration) domain.Message {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return domain.Message{Text: fmt.Sprintf("You are sending messages too fast. Try again in %ds.", seconds)}
}

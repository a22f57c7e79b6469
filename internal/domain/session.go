package domain

// State is a step of the per-user dialog.
type State int

const (
	StateIdle State = iota
	StateAwaitingRoomName
	StateAwaitingRoomPassword
	StateAwaitingJoinCode
	StateAwaitingJoinPassword
	StateAwaitingCategory
	StateAwaitingTodoText
	StateAwaitingDeleteChoice
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRoomName:
		return "awaiting_room_name"
	case StateAwaitingRoomPassword:
		return "awaiting_room_password"
	case StateAwaitingJoinCode:
		return "awaiting_join_code"
	case StateAwaitingJoinPassword:
		return "awaiting_join_password"
	case StateAwaitingCategory:
		return "awaiting_category"
	case StateAwaitingTodoText:
		return "awaiting_todo_text"
	case StateAwaitingDeleteChoice:
		return "awaiting_delete_choice"
	}
	return "unknown"
}

// Session is the per-user dialog record. It is stored by user id and never
// shared between users.
type Session struct {
	UserID      int64  `json:"userId"`
	State       State  `json:"state"`
	CurrentRoom string `json:"currentRoom,omitempty"`

	PendingRoomName string   `json:"pendingRoomName,omitempty"`
	PendingJoinCode string   `json:"pendingJoinCode,omitempty"`
	PendingCategory Category `json:"pendingCategory,omitempty"`

	// Listing maps the 1-based numbers of the last listing to todo ids.
	Listing     []uint64 `json:"listing,omitempty"`
	ListingRoom string   `json:"listingRoom,omitempty"`
}

func NewSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Reset returns the session to Idle and drops any pending dialog input.
// The current room and the last listing are kept.
func (s *Session) Reset() {
	s.State = StateIdle
	s.PendingRoomName = ""
	s.PendingJoinCode = ""
	s.PendingCategory = ""
}

// TodoIDAt resolves a 1-based listing number for the given room.
func (s *Session) TodoIDAt(roomCode string, number int) (uint64, bool) {
	if s.ListingRoom != roomCode || number < 1 || number > len(s.Listing) {
		return 0, false
	}
	return s.Listing[number-1], true
}

func (s *Session) Remember(roomCode string, todos []Todo) {
	s.ListingRoom = roomCode
	s.Listing = make([]uint64, len(todos))
	for i, t := range todos {
		s.Listing[i] = t.ID
	}
}

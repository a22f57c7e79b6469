package domain

import "context"

type Button struct {
	Label string
	Data  string
}

// Message is an outbound reply or notification. Keyboard rows are rendered
// as buttons by the transport.
type Message struct {
	Text     string
	Keyboard [][]Button
}

// Inbound is a text or button event from the messaging transport.
type Inbound struct {
	UserID      int64
	DisplayName string
	Text        string
	// Callback is set when the event came from a button press.
	Callback bool
}

type Sender interface {
	Send(ctx context.Context, userID int64, msg Message) error
}

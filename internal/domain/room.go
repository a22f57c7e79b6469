package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// RoomCodeLength is the number of decimal digits in a room code.
	RoomCodeLength = 4
	// RoomCodeSpace is the number of distinct room codes.
	RoomCodeSpace = 10000
	// DefaultMemberLimit caps the number of members per room.
	DefaultMemberLimit = 10
)

var roomCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

type Room struct {
	Code         string    `json:"code" validate:"len=4,numeric"`
	Name         string    `json:"name" validate:"required,max=64"`
	PasswordHash string    `json:"-" validate:"required"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Membership struct {
	RoomCode string    `json:"roomCode"`
	UserID   int64     `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

func NewRoom(code, name, passwordHash string) (*Room, error) {
	room := &Room{
		Code:         code,
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := validateStruct(room); err != nil {
		return nil, err
	}
	return room, nil
}

// ValidateRoomInput checks a room name and password before any hashing or
// code allocation happens.
func ValidateRoomInput(name, password string) error {
	if err := ValidateRoomName(name); err != nil {
		return err
	}
	if err := validatorInstance().Var(password, "required,max=128"); err != nil {
		return fmt.Errorf("%w: password: %v", ErrInvalidInput, err)
	}
	return nil
}

func ValidateRoomName(name string) error {
	if err := validatorInstance().Var(strings.TrimSpace(name), "required,max=64"); err != nil {
		return fmt.Errorf("%w: room name: %v", ErrInvalidInput, err)
	}
	return nil
}

// FormatRoomCode renders n as a zero padded room code.
func FormatRoomCode(n int) string {
	const digits = "0123456789"
	b := make([]byte, RoomCodeLength)
	for i := RoomCodeLength - 1; i >= 0; i-- {
		b[i] = digits[n%10]
		n /= 10
	}
	return string(b)
}

func ParseRoomCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !roomCodePattern.MatchString(s) {
		return "", ErrInvalidRoomCode
	}
	return s, nil
}

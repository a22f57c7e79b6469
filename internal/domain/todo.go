package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryGame   Category = "game"
	CategoryMedia  Category = "media"
	CategoryAction Category = "action"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryGame, CategoryMedia, CategoryAction}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Label() string {
	switch c {
	case CategoryGame:
		return "Games"
	case CategoryMedia:
		return "Media"
	case CategoryAction:
		return "Actions"
	}
	return string(c)
}

type Todo struct {
	ID        uint64    `json:"id"`
	RoomCode  string    `json:"roomCode" validate:"len=4,numeric"`
	Category  Category  `json:"category" validate:"oneof=game media action"`
	Text      string    `json:"text" validate:"required,max=512"`
	Done      bool      `json:"done"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewTodo(roomCode string, category Category, text string, createdBy int64) (*Todo, error) {
	todo := &Todo{
		RoomCode:  roomCode,
		Category:  category,
		Text:      strings.TrimSpace(text),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := validateStruct(todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// TodoFilter narrows a listing. A nil Category means every category.
type TodoFilter struct {
	Category *Category
}

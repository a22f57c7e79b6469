package persistence

import (
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
)

type userModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	DisplayName string `gorm:"size:255"`
	CreatedAt   time.Time
}

func (userModel) TableName() string { return "users" }

type roomModel struct {
	Code         string `gorm:"primaryKey;size:4"`
	Name         string `gorm:"size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

func (roomModel) TableName() string { return "rooms" }

type memberModel struct {
	RoomCode string `gorm:"primaryKey;size:4"`
	UserID   int64  `gorm:"primaryKey;autoIncrement:false;index"`
	JoinedAt time.Time
}

func (memberModel) TableName() string { return "room_members" }

type todoModel struct {
	ID        uint64    `gorm:"primaryKey"`
	RoomCode  string    `gorm:"size:4;not null;index:idx_todos_room_created,priority:1"`
	Category  string    `gorm:"size:16;not null"`
	Text      string    `gorm:"size:512;not null"`
	Done      bool      `gorm:"not null;default:false"`
	CreatedBy int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_todos_room_created,priority:2"`
}

func (todoModel) TableName() string { return "todos" }

func toUserModel(u *domain.User) userModel {
	return userModel{ID: u.ID, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

func (m userModel) toDomain() *domain.User {
	return &domain.User{ID: m.ID, DisplayName: m.DisplayName, CreatedAt: m.CreatedAt}
}

func toRoomModel(r *domain.Room) roomModel {
	return roomModel{Code: r.Code, Name: r.Name, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

func (m roomModel) toDomain() domain.Room {
	return domain.Room{Code: m.Code, Name: m.Name, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}
}

func (m memberModel) toDomain() domain.Membership {
	return domain.Membership{RoomCode: m.RoomCode, UserID: m.UserID, JoinedAt: m.JoinedAt}
}

func toTodoModel(t *domain.Todo) todoModel {
	return todoModel{
		ID:        t.ID,
		RoomCode:  t.RoomCode,
		Category:  string(t.Category),
		Text:      t.Text,
		Done:      t.Done,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
	}
}

func (m todoModel) toDomain() domain.Todo {
	return domain.Todo{
		ID:        m.ID,
		RoomCode:  m.RoomCode,
		Category:  domain.Category(m.Category),
		Text:      m.Text,
		Done:      m.Done,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

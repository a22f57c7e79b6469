package domain

import "time"

type User struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewUser(id int64, displayName string) *User {
	if displayName == "" {
		displayName = "anonymous"
	}
	return &User{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
}

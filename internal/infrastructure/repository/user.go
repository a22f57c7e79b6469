package repository

import (
	"context"
	"sync"

	"github.com/hilthontt/todoroom/internal/domain"
)

type userRepository struct {
	users map[int64]domain.User
	mu    *sync.RWMutex
}

func NewUserRepository() domain.UserRepository {
	return &userRepository{
		users: make(map[int64]domain.User),
		mu:    &sync.RWMutex{},
	}
}

// Upsert creates the user or refreshes the display name. CreatedAt of an
// existing user is kept.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == 0 {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

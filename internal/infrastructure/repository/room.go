package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
)

// roomRepository keeps rooms and memberships in memory. A single lock
// serialises every check-then-insert, which gives the same guarantees as a
// row lock in the relational store.
type roomRepository struct {
	rooms   map[string]*domain.Room        // code -> room
	members map[string][]domain.Membership // code -> memberships in join order
	mu      *sync.RWMutex
}

func NewRoomRepository() domain.RoomRepository {
	return &roomRepository{
		rooms:   make(map[string]*domain.Room),
		members: make(map[string][]domain.Membership),
		mu:      &sync.RWMutex{},
	}
}

func (r *roomRepository) CreateWithOwner(ctx context.Context, room *domain.Room, ownerID int64) error {
	if room == nil || room.Code == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[room.Code]; exists {
		return domain.ErrRoomCodeTaken
	}

	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	stored := *room
	r.rooms[room.Code] = &stored
	r.members[room.Code] = []domain.Membership{{
		RoomCode: room.Code,
		UserID:   ownerID,
		JoinedAt: room.CreatedAt,
	}}

	return nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[code]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}
	cpy := *room
	return &cpy, nil
}

func (r *roomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.rooms[code]
	return exists, nil
}

func (r *roomRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.rooms)), nil
}

func (r *roomRepository) AddMember(ctx context.Context, code string, userID int64, limit int) (*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[code]; !exists {
		return nil, domain.ErrRoomNotFound
	}

	current := r.members[code]
	for _, m := range current {
		if m.UserID == userID {
			return nil, domain.ErrAlreadyMember
		}
	}
	if len(current) >= limit {
		return nil, domain.ErrRoomFull
	}

	membership := domain.Membership{
		RoomCode: code,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	r.members[code] = append(current, membership)

	return &membership, nil
}

func (r *roomRepository) IsMember(ctx context.Context, code string, userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members[code] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *roomRepository) Members(ctx context.Context, code string) ([]domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.rooms[code]; !exists {
		return nil, domain.ErrRoomNotFound
	}

	// Return a copy to prevent external mutation
	cpy := make([]domain.Membership, len(r.members[code]))
	copy(cpy, r.members[code])
	return cpy, nil
}

func (r *roomRepository) RoomsOf(ctx context.Context, userID int64) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []domain.Room
	for code, members := range r.members {
		for _, m := range members {
			if m.UserID == userID {
				rooms = append(rooms, *r.rooms[code])
				break
			}
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].Code < rooms[j].Code
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

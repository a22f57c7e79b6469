package session

import (
	"context"
	"sync"

	"github.com/hilthontt/todoroom/internal/domain"
)

type memoryStore struct {
	sessions map[int64]domain.Session
	mu       sync.RWMutex
}

func NewMemoryStore() domain.SessionStore {
	return &memoryStore{sessions: make(map[int64]domain.Session)}
}

func (s *memoryStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[userID]
	if !ok {
		return domain.NewSession(userID), nil
	}
	stored.Listing = append([]uint64(nil), stored.Listing...)
	return &stored, nil
}

func (s *memoryStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.UserID == 0 {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cpy := *session
	cpy.Listing = append([]uint64(nil), session.Listing...)
	s.sessions[session.UserID] = cpy
	return nil
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
)

type todoRepository struct {
	todos  map[string][]domain.Todo // roomCode -> todos in creation order
	nextID uint64
	mu     *sync.RWMutex
}

func NewTodoRepository() domain.TodoRepository {
	return &todoRepository{
		todos: make(map[string][]domain.Todo),
		mu:    &sync.RWMutex{},
	}
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo == nil || todo.RoomCode == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	todo.ID = r.nextID
	todo.Done = false
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}

	r.todos[todo.RoomCode] = append(r.todos[todo.RoomCode], *todo)
	return nil
}

func (r *todoRepository) List(ctx context.Context, roomCode string, filter domain.TodoFilter) ([]domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Todo, 0, len(r.todos[roomCode]))
	for _, t := range r.todos[roomCode] {
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *todoRepository) MarkDone(ctx context.Context, roomCode string, id uint64) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomTodos := r.todos[roomCode]
	for i := range roomTodos {
		if roomTodos[i].ID == id {
			roomTodos[i].Done = true
			updated := roomTodos[i]
			return &updated, nil
		}
	}
	return nil, domain.ErrTodoNotFound
}

func (r *todoRepository) Delete(ctx context.Context, roomCode string, id uint64) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomTodos := r.todos[roomCode]
	for i, t := range roomTodos {
		if t.ID == id {
			// Keep creation order; listings depend on it.
			r.todos[roomCode] = append(roomTodos[:i:i], roomTodos[i+1:]...)
			return &t, nil
		}
	}
	return nil, domain.ErrTodoNotFound
}

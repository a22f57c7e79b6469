package persistence

import (
	"context"
	"errors"

	"github.com/hilthontt/todoroom/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type todoRepository struct {
	db *gorm.DB
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo == nil || todo.RoomCode == "" {
		return domain.ErrInvalidInput
	}
	todo.Done = false
	m := toTodoModel(todo)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return storeError("create todo", err)
	}
	todo.ID = m.ID
	todo.CreatedAt = m.CreatedAt
	return nil
}

func (r *todoRepository) List(ctx context.Context, roomCode string, filter domain.TodoFilter) ([]domain.Todo, error) {
	q := r.db.WithContext(ctx).Where("room_code = ?", roomCode)
	if filter.Category != nil {
		q = q.Where("category = ?", string(*filter.Category))
	}

	var rows []todoModel
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, storeError("list todos", err)
	}

	todos := make([]domain.Todo, 0, len(rows))
	for _, m := range rows {
		todos = append(todos, m.toDomain())
	}
	return todos, nil
}

func (r *todoRepository) MarkDone(ctx context.Context, roomCode string, id uint64) (*domain.Todo, error) {
	var m todoModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTodo(tx, roomCode, id, &m); err != nil {
			return err
		}
		if m.Done {
			return nil
		}
		m.Done = true
		return tx.Model(&todoModel{}).Where("id = ?", id).Update("done", true).Error
	})
	if err != nil {
		return nil, storeError("mark todo done", err)
	}
	todo := m.toDomain()
	return &todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, roomCode string, id uint64) (*domain.Todo, error) {
	var m todoModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTodo(tx, roomCode, id, &m); err != nil {
			return err
		}
		res := tx.Where("id = ? AND room_code = ?", id, roomCode).Delete(&todoModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrTodoNotFound
		}
		return nil
	})
	if err != nil {
		return nil, storeError("delete todo", err)
	}
	todo := m.toDomain()
	return &todo, nil
}

// lockTodo loads the todo only if it still belongs to roomCode.
func lockTodo(tx *gorm.DB, roomCode string, id uint64, dst *todoModel) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND room_code = ?", id, roomCode).
		First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrTodoNotFound
	}
	return err
}

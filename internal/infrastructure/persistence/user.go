package persistence

import (
	"context"
	"errors"

	"github.com/hilthontt/todoroom/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// Upsert keeps the first created_at and refreshes the display name.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidInput
	}
	m := toUserModel(user)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name"}),
	}).Create(&m).Error
	return storeError("upsert user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeError("get user", err)
	}
	return m.toDomain(), nil
}

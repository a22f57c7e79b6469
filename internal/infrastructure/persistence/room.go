package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roomRepository struct {
	db *gorm.DB
}

func (r *roomRepository) CreateWithOwner(ctx context.Context, room *domain.Room, ownerID int64) error {
	if room == nil {
		return domain.ErrInvalidInput
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toRoomModel(room)
		if err := tx.Create(&m).Error; err != nil {
			if isDuplicate(err) {
				return domain.ErrRoomCodeTaken
			}
			return err
		}
		owner := memberModel{RoomCode: room.Code, UserID: ownerID, JoinedAt: time.Now().UTC()}
		return tx.Create(&owner).Error
	})
	return storeError("create room", err)
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	var m roomModel
	err := r.db.WithContext(ctx).First(&m, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, storeError("get room", err)
	}
	room := m.toDomain()
	return &room, nil
}

func (r *roomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&roomModel{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, storeError("check room code", err)
	}
	return count > 0, nil
}

func (r *roomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&roomModel{}).Count(&count).Error; err != nil {
		return 0, storeError("count rooms", err)
	}
	return count, nil
}

// AddMember locks the room row so concurrent joiners are serialized on the
// membership count check.
func (r *roomRepository) AddMember(ctx context.Context, code string, userID int64, limit int) (*domain.Membership, error) {
	var added memberModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room roomModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, "code = ?", code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRoomNotFound
		}
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&memberModel{}).
			Where("room_code = ? AND user_id = ?", code, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return domain.ErrAlreadyMember
		}

		var members int64
		if err := tx.Model(&memberModel{}).Where("room_code = ?", code).Count(&members).Error; err != nil {
			return err
		}
		if members >= int64(limit) {
			return domain.ErrRoomFull
		}

		added = memberModel{RoomCode: code, UserID: userID, JoinedAt: time.Now().UTC()}
		if err := tx.Create(&added).Error; err != nil {
			if isDuplicate(err) {
				return domain.ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeError("add member", err)
	}
	membership := added.toDomain()
	return &membership, nil
}

func (r *roomRepository) IsMember(ctx context.Context, code string, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&memberModel{}).
		Where("room_code = ? AND user_id = ?", code, userID).
		Count(&count).Error
	if err != nil {
		return false, storeError("check membership", err)
	}
	return count > 0, nil
}

func (r *roomRepository) Members(ctx context.Context, code string) ([]domain.Membership, error) {
	var rows []memberModel
	err := r.db.WithContext(ctx).
		Where("room_code = ?", code).
		Order("joined_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list members", err)
	}

	members := make([]domain.Membership, 0, len(rows))
	for _, m := range rows {
		members = append(members, m.toDomain())
	}
	return members, nil
}

func (r *roomRepository) RoomsOf(ctx context.Context, userID int64) ([]domain.Room, error) {
	var rows []roomModel
	err := r.db.WithContext(ctx).
		Joins("JOIN room_members ON room_members.room_code = rooms.code").
		Where("room_members.user_id = ?", userID).
		Order("room_members.joined_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("list rooms of user", err)
	}

	rooms := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		rooms = append(rooms, m.toDomain())
	}
	return rooms, nil
}

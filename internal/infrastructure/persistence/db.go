package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// Store bundles the gorm connection and the repositories built on it.
type Store struct {
	db *gorm.DB

	Users domain.UserRepository
	Rooms domain.RoomRepository
	Todos domain.TodoRepository
}

func Open(ctx context.Context, opts Options, log *zap.Logger) (*Store, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("%w: empty database dsn", domain.ErrInvalidInput)
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStoreUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	store := NewStore(db)
	if err := store.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if opts.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		log.Info("database schema migrated")
	}

	log.Info("database connection established", zap.Int("maxOpenConns", opts.MaxOpenConns))
	return store, nil
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		Users: &userRepository{db: db},
		Rooms: &roomRepository{db: db},
		Todos: &todoRepository{db: db},
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(&userModel{}, &roomModel{}, &memberModel{}, &todoModel{})
	if err != nil {
		return fmt.Errorf("%w: migrate: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

const uniqueViolation = "23505"

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// storeError keeps domain errors intact and wraps everything else as
// ErrStoreUnavailable.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		domain.ErrRoomNotFound,
		domain.ErrRoomFull,
		domain.ErrAlreadyMember,
		domain.ErrTodoNotFound,
		domain.ErrRoomCodeTaken,
		domain.ErrUserNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

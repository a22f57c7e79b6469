package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisStore keeps one JSON encoded session per user under
// <prefix>session:<userID>. Sessions expire after TTL of inactivity.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewRedisStoreWithClient(client, opts.KeyPrefix, opts.TTL)
}

func NewRedisStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisStore) key(userID int64) string {
	return s.keyPrefix + "session:" + strconv.FormatInt(userID, 10)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewSession(userID), nil
		}
		return nil, fmt.Errorf("%w: get session: %v", domain.ErrStoreUnavailable, err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Corrupt records start over as a fresh session.
		return domain.NewSession(userID), nil
	}
	session.UserID = userID
	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.UserID == 0 {
		return domain.ErrInvalidInput
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(session.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/online_restaurant/internal/basket"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl, Prefix: "session:"}
}

func (r *RedisStore) key(id string) string { return r.Prefix + id }

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	val, err := r.Client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, err
	}
	s.ID = id
	if s.Basket == nil {
		s.Basket = basket.New()
	}
	if s.CSRFToken == "" {
		if s.CSRFToken, err = newToken(); err != nil {
			return nil, err
		}
		s.dirty = true
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, r.key(s.ID), b, r.TTL).Err(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.Client.Del(ctx, r.key(id)).Err()
}

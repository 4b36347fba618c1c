package quote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key the quote is saved under when none is configured.
const DefaultRedisKey = "quotecalc:calculator-storage"

// RedisStore keeps the snapshot as a JSON value under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore constructs a store. A ttl of zero keeps the key forever.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	if s == nil || s.client == nil {
		return Snapshot{}, ErrNoState
	}
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNoState
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	if s == nil || s.client == nil {
		return errors.New("redis store not configured")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Ping implements Pinger.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("redis store not configured")
	}
	return s.client.Ping(ctx).Err()
}

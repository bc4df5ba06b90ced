package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the entry for one client id in Redis.
type RedisStore struct {
	client   redis.UniversalClient
	clientID string
	ttl      time.Duration
}

// NewRedisStore constructs a store for clientID. A zero ttl keeps the key
// until it is cleared.
func NewRedisStore(client redis.UniversalClient, clientID string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, clientID: clientID, ttl: ttl}
}

func (s *RedisStore) key() string {
	return "hrms:client:" + s.clientID + ":session"
}

// Load fetches the entry.
func (s *RedisStore) Load(ctx context.Context) (Entry, error) {
	payload, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrEmpty
		}
		return Entry{}, fmt.Errorf("sessionstore: redis get: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return Entry{}, fmt.Errorf("sessionstore: decode: %w", err)
	}
	return entry, nil
}

// Save stores the entry with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("sessionstore: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("sessionstore: redis set: %w", err)
	}
	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("sessionstore: redis del: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)

// Package presence tracks which users currently hold an open connection.
// Entries live in redis under a TTL so a crashed server's users fall back to
// offline without cleanup.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "presence:user:"
	defaultTTL       = 90 * time.Second
)

type Store struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultTTL,
	}
}

func (s *Store) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s", s.keyPrefix, userID.String())
}

// SetOnline marks the user online until the TTL lapses; callers refresh it
// while the connection stays open.
func (s *Store) SetOnline(ctx context.Context, userID uuid.UUID) error {
	return s.client.Set(ctx, s.key(userID), "1", s.ttl).Err()
}

func (s *Store) SetOffline(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *Store) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

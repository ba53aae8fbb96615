package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"digibank/pkg/platform/sentinel"
)

// DefaultRedisTTL bounds how long an unconfirmed intent is kept.
const DefaultRedisTTL = 24 * time.Hour

const redisKeyPrefix = "digibank:pending-transfer:"

// Redis keeps the pending intent in Redis under a per-owner key, so several
// client processes of one user share it.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedis scopes the journal to owner, typically the session subject.
func NewRedis(client redis.UniversalClient, owner string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	if owner == "" {
		owner = "default"
	}
	return &Redis{client: client, key: redisKeyPrefix + owner, ttl: ttl}
}

func (r *Redis) Save(ctx context.Context, intent PendingIntent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("encode pending intent: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save pending intent: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (r *Redis) Load(ctx context.Context) (*PendingIntent, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pending intent: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	var intent PendingIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, fmt.Errorf("decode pending intent: %w", err)
	}
	return &intent, nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear pending intent: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

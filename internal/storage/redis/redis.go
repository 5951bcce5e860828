package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/parleychat/parley/internal/models"
	"github.com/redis/go-redis/v9"
)

type Client interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Redis mirrors presence so stale sessions decay to offline when the key
// expires.
type Redis struct {
	rdb        Client
	expiration time.Duration
}

func New(rdb Client, expiration time.Duration) *Redis {
	return &Redis{
		rdb:        rdb,
		expiration: expiration,
	}
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

func (r *Redis) SetPresence(ctx context.Context, userID string, status models.Status, lastActive time.Time) error {
	const op = "storage.redis.SetPresence"

	key := presenceKey(userID)

	err := r.rdb.HSet(ctx, key,
		"status", string(status),
		"last_active", lastActive.Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.rdb.Expire(ctx, key, r.expiration).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetPresence returns StatusOffline when nothing is cached for the user.
func (r *Redis) GetPresence(ctx context.Context, userID string) (models.Status, time.Time, error) {
	const op = "storage.redis.GetPresence"

	fields, err := r.rdb.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	status := models.Status(fields["status"])
	if !status.Valid() {
		return models.StatusOffline, time.Time{}, nil
	}

	lastActive, err := time.Parse(time.RFC3339, fields["last_active"])
	if err != nil {
		lastActive = time.Time{}
	}

	return status, lastActive, nil
}

func (r *Redis) ClearPresence(ctx context.Context, userID string) error {
	const op = "storage.redis.ClearPresence"

	err := r.rdb.Del(ctx, presenceKey(userID)).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ds124wfegd/innonet-bff/internal/entity"

	"github.com/redis/go-redis/v9"
)

const (
	countKeyPrefix   = "notifications:unread:"
	versionKeyPrefix = "notifications:unread-version:"

	// версия живёт дольше самого счётчика
	versionTTL = 24 * time.Hour
)

type CountCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCountCacheRepository(client *redis.Client, ttl time.Duration) *CountCacheRepository {
	return &CountCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func countKey(userKey string) string {
	return countKeyPrefix + userKey
}

func versionKey(userKey string) string {
	return versionKeyPrefix + userKey
}

func (r *CountCacheRepository) GetUnreadCount(ctx context.Context, userKey string) (int, error) {
	data, err := r.client.Get(ctx, countKey(userKey)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, entity.ErrCacheMiss
	}
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(data)
	if err != nil {
		return 0, entity.ErrCacheMiss
	}
	return count, nil
}

func (r *CountCacheRepository) CountVersion(ctx context.Context, userKey string) (int64, error) {
	return readVersion(ctx, r.client, userKey)
}

func readVersion(ctx context.Context, c redis.StringCmdable, userKey string) (int64, error) {
	v, err := c.Get(ctx, versionKey(userKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetUnreadCount writes the count only if no invalidation happened since version was read.
func (r *CountCacheRepository) SetUnreadCount(ctx context.Context, userKey string, count int, version int64) error {
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, userKey)
		if err != nil {
			return err
		}
		if current != version {
			return entity.ErrStaleResponse
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, countKey(userKey), count, r.ttl)
			return nil
		})
		return err
	}, versionKey(userKey))

	if errors.Is(err, redis.TxFailedErr) {
		return entity.ErrStaleResponse
	}
	return err
}

func (r *CountCacheRepository) Invalidate(ctx context.Context, userKey string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userKey))
		pipe.Expire(ctx, versionKey(userKey), versionTTL)
		pipe.Del(ctx, countKey(userKey))
		return nil
	})
	return err
}

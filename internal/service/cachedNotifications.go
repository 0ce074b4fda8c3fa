package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ds124wfegd/innonet-bff/internal/database"
	"github.com/ds124wfegd/innonet-bff/internal/entity"
	"github.com/ds124wfegd/innonet-bff/internal/notification"

	"github.com/sirupsen/logrus"
)

// cachedNotificationAPI answers unread-count polls from the shared cache so that
// several open pages of one user do not each hit the backend.
type cachedNotificationAPI struct {
	notification.API
	cache   database.CountCache
	userKey string
	log     *logrus.Entry
}

func newCachedNotificationAPI(api notification.API, cache database.CountCache, token string, log *logrus.Entry) notification.API {
	if cache == nil || token == "" {
		return api
	}
	return &cachedNotificationAPI{
		API:     api,
		cache:   cache,
		userKey: userKey(token),
		log:     log,
	}
}

// userKey identifies a user by a hash of the bearer token.
func userKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

func (c *cachedNotificationAPI) UnreadCount(ctx context.Context) (int, error) {
	count, err := c.cache.GetUnreadCount(ctx, c.userKey)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, entity.ErrCacheMiss) {
		c.log.Warnf("Count cache read failed: %v", err)
	}

	version, verr := c.version(ctx)
	count, err = c.API.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	if verr == nil {
		c.store(ctx, count, version)
	}
	return count, nil
}

func (c *cachedNotificationAPI) ListNotifications(ctx context.Context, opts entity.ListOptions) (*entity.NotificationListResponse, error) {
	version, verr := c.version(ctx)
	resp, err := c.API.ListNotifications(ctx, opts)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		c.store(ctx, resp.UnreadCount, version)
	}
	return resp, nil
}

func (c *cachedNotificationAPI) MarkRead(ctx context.Context, id string) (*entity.Notification, error) {
	n, err := c.API.MarkRead(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return n, err
}

func (c *cachedNotificationAPI) MarkAllRead(ctx context.Context) (*entity.MarkAllReadResponse, error) {
	resp, err := c.API.MarkAllRead(ctx)
	if err == nil {
		c.invalidate(ctx)
	}
	return resp, err
}

// version must be taken before the backend read, so an invalidation landing
// while the request is in flight makes the result unstorable.
func (c *cachedNotificationAPI) version(ctx context.Context) (int64, error) {
	v, err := c.cache.CountVersion(ctx, c.userKey)
	if err != nil {
		c.log.Warnf("Count cache version read failed: %v", err)
	}
	return v, err
}

func (c *cachedNotificationAPI) store(ctx context.Context, count int, version int64) {
	err := c.cache.SetUnreadCount(ctx, c.userKey, count, version)
	switch {
	case errors.Is(err, entity.ErrStaleResponse):
		c.log.Debug("Skipping count cache write, invalidated while fetching")
	case err != nil:
		c.log.Warnf("Count cache write failed: %v", err)
	}
}

func (c *cachedNotificationAPI) invalidate(ctx context.Context) {
	if err := c.cache.Invalidate(ctx, c.userKey); err != nil {
		c.log.Warnf("Count cache invalidation failed: %v", err)
	}
}

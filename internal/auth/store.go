// AngelaMos | 2026
// store.go

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/core"
)

const refreshKeyPrefix = "refresh_token:"

func RefreshKey(userID string) string {
	return refreshKeyPrefix + userID
}

// RefreshStore holds at most one refresh token per user. Writes
// overwrite, so the last login wins.
type RefreshStore struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	timeout time.Duration
}

func NewRefreshStore(rdb redis.Cmdable, ttl, timeout time.Duration) *RefreshStore {
	return &RefreshStore{
		rdb:     rdb,
		ttl:     ttl,
		timeout: timeout,
	}
}

func (s *RefreshStore) Put(ctx context.Context, userID, token string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.rdb.Set(ctx, RefreshKey(userID), token, s.ttl).Err(); err != nil {
		return core.Upstream("store refresh token", err)
	}
	return nil
}

// Get returns the stored token and whether one exists.
func (s *RefreshStore) Get(ctx context.Context, userID string) (string, bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	val, err := s.rdb.Get(ctx, RefreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, core.Upstream("load refresh token", err)
	}
	return val, true, nil
}

func (s *RefreshStore) Delete(ctx context.Context, userID string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.rdb.Del(ctx, RefreshKey(userID)).Err(); err != nil {
		return core.Upstream("delete refresh token", err)
	}
	return nil
}

func (s *RefreshStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"membership-backend/internal/common/cache"
	"membership-backend/internal/common/logger"
	"membership-backend/internal/features/user/models"
)

// Lookup TTL is hygiene only; correctness rests on explicit invalidation
// after every committed mutation.
const lookupTTL = 12 * time.Hour

// LookupCache fronts the by-id and by-email user read paths. Absent users
// are never cached.
type LookupCache struct {
	store cache.Store
}

func NewLookupCache(store cache.Store) *LookupCache {
	return &LookupCache{
		store: store,
	}
}

func idKey(id int64) string {
	return fmt.Sprintf("user:id:%d", id)
}

func emailKey(email string) string {
	return "user:email:" + strings.ToLower(strings.TrimSpace(email))
}

// GetByID returns the cached projection, or nil on miss. Cache failures are
// logged and treated as misses so reads fall through to storage.
func (c *LookupCache) GetByID(ctx context.Context, id int64) *models.UserResponse {
	var user models.UserResponse
	if err := c.store.Get(ctx, idKey(id), &user); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn().Err(err).Int64("user_id", id).Msg("User cache read failed")
		}
		return nil
	}
	return &user
}

// GetByEmail returns the cached projection, or nil on miss.
func (c *LookupCache) GetByEmail(ctx context.Context, email string) *models.UserResponse {
	var user models.UserResponse
	if err := c.store.Get(ctx, emailKey(email), &user); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn().Err(err).Str("email", logger.MaskEmail(email)).Msg("User cache read failed")
		}
		return nil
	}
	return &user
}

// Put stores the projection under both lookup keys.
func (c *LookupCache) Put(ctx context.Context, user *models.UserResponse) {
	if err := c.store.Set(ctx, idKey(user.ID), user, lookupTTL); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("User cache write failed")
		return
	}
	if err := c.store.Set(ctx, emailKey(user.Email), user, lookupTTL); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("User cache write failed")
	}
}

// Invalidate evicts the id key and every given email key. Must be called
// only after the mutating transaction has committed; callers pass the old
// email as well when it changed.
func (c *LookupCache) Invalidate(ctx context.Context, id int64, emails ...string) {
	keys := []string{idKey(id)}
	for _, email := range emails {
		if strings.TrimSpace(email) == "" {
			continue
		}
		keys = append(keys, emailKey(email))
	}

	if err := c.store.Delete(ctx, keys...); err != nil {
		logger.Error().Err(err).Int64("user_id", id).Msg("User cache invalidation failed")
	}
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/emicollect/client/internal/models"
)

// AccountCache keeps a short-lived copy of a user's loan list in Redis
// so repeated dashboard loads don't hit the backend. A nil Redis client
// disables caching entirely; every method degrades to a miss or no-op.
type AccountCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates an account cache. rdb may be nil.
func New(rdb *redis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{redis: rdb, ttl: ttl}
}

func loansKey(userID int) string {
	return fmt.Sprintf("loans:%d", userID)
}

// Get returns the cached loan list for a user, with a hit indicator.
func (c *AccountCache) Get(ctx context.Context, userID int) ([]models.LoanSummary, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, loansKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[CACHE] Failed to read loan list for user %d: %v", userID, err)
		return nil, false
	}

	var loans []models.LoanSummary
	if err := json.Unmarshal(data, &loans); err != nil {
		log.Printf("[CACHE] Corrupt loan list entry for user %d: %v", userID, err)
		return nil, false
	}
	return loans, true
}

// Put stores the loan list for a user. Failures are logged and ignored;
// the cache is never load-bearing.
func (c *AccountCache) Put(ctx context.Context, userID int, loans []models.LoanSummary) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(loans)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, loansKey(userID), data, c.ttl).Err(); err != nil {
		log.Printf("[CACHE] Failed to store loan list for user %d: %v", userID, err)
	}
}

// Invalidate drops the cached list, e.g. after a successful payment.
func (c *AccountCache) Invalidate(ctx context.Context, userID int) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, loansKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate loan list for user %d: %v", userID, err)
	}
}

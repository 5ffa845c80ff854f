package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/models"
)

// PredictionCacheEntry represents a cached prediction with metadata
type PredictionCacheEntry struct {
	Prediction *models.PredictionResponse `json:"prediction"`
	CachedAt   time.Time                  `json:"cached_at"`
	ExpiresAt  time.Time                  `json:"expires_at"`
}

// PredictionCacheStats tracks cache performance metrics
type PredictionCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisPredictionCache implements prediction caching using Redis. Entries are
// keyed by account and model version so a redeployed model never serves
// responses assembled by its predecessor.
type RedisPredictionCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *PredictionCacheStats
	prefix string
	logger *logrus.Logger
}

// NewRedisPredictionCache creates a new Redis-based prediction cache
func NewRedisPredictionCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisPredictionCache {
	return &RedisPredictionCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &PredictionCacheStats{},
		prefix: "prediction_cache:",
		logger: logger,
	}
}

func (c *RedisPredictionCache) key(accountID, modelVersion string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, modelVersion, accountID)
}

// Get retrieves a cached prediction for an account from Redis
func (c *RedisPredictionCache) Get(ctx context.Context, accountID, modelVersion string) (*models.PredictionResponse, bool) {
	cacheKey := c.key(accountID, modelVersion)

	data, err := c.redis.Get(ctx, cacheKey).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("account_id", accountID).Warn("Redis error getting cached prediction")
		c.miss()
		return nil, false
	}

	var entry PredictionCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("account_id", accountID).Warn("Error deserializing cached prediction")
		c.miss()
		return nil, false
	}
	if entry.Prediction == nil {
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()

	return entry.Prediction, true
}

// Set stores a prediction in Redis with the configured TTL
func (c *RedisPredictionCache) Set(ctx context.Context, prediction *models.PredictionResponse) {
	if prediction == nil || prediction.AccountID == "" {
		return
	}
	cacheKey := c.key(prediction.AccountID, prediction.ModelVersion)

	now := time.Now()
	entry := PredictionCacheEntry{
		Prediction: prediction,
		CachedAt:   now,
		ExpiresAt:  now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).WithField("account_id", prediction.AccountID).Warn("Error serializing prediction")
		return
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("account_id", prediction.AccountID).Warn("Redis error caching prediction")
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

func (c *RedisPredictionCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

// GetStats returns current cache statistics
func (c *RedisPredictionCache) GetStats() PredictionCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return PredictionCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

// LogStats logs current cache performance statistics
func (c *RedisPredictionCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"hit_rate": fmt.Sprintf("%.2f%%", hitRate),
	}).Info("Prediction cache stats")
}

// Clear removes all cached predictions (useful for testing or cache invalidation)
func (c *RedisPredictionCache) Clear(ctx context.Context) error {
	pattern := c.prefix + "*"

	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}

	c.logger.WithField("entries", len(keys)).Info("Cleared prediction cache")
	return nil
}

package external

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pneumonia-cds-server/internal/domain"
)

// PredictionCache wraps a Redis client with caching for classifier
// responses. The same image always yields the same verdict, so entries
// are keyed by a hash of the image bytes.
type PredictionCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewPredictionCache creates a new prediction cache.
func NewPredictionCache(config domain.CacheConfig) (*PredictionCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Apply cache-specific configurations
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &PredictionCache{
		redis:      client,
		defaultTTL: ttl,
	}, nil
}

// CachedPrediction represents a cached classifier verdict with metadata.
type CachedPrediction struct {
	Data      domain.ModelPrediction `json:"data"`
	CachedAt  time.Time              `json:"cached_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// Get retrieves a cached prediction for the given image bytes.
func (c *PredictionCache) Get(ctx context.Context, image []byte) (domain.ModelPrediction, bool, error) {
	key := c.generateImageKey(image)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return domain.ModelPrediction{}, false, nil // Cache miss
	}
	if err != nil {
		return domain.ModelPrediction{}, false, fmt.Errorf("failed to get prediction cache: %w", err)
	}

	var cached CachedPrediction
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return domain.ModelPrediction{}, false, nil
	}

	// Check if expired
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return domain.ModelPrediction{}, false, nil
	}

	return cached.Data, true, nil
}

// Set caches a prediction for the given image bytes.
func (c *PredictionCache) Set(ctx context.Context, image []byte, prediction domain.ModelPrediction, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	key := c.generateImageKey(image)

	cached := CachedPrediction{
		Data:      prediction,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction cache data: %w", err)
	}

	return c.redis.Set(ctx, key, jsonData, ttl).Err()
}

// Invalidate removes the cached prediction for an image.
func (c *PredictionCache) Invalidate(ctx context.Context, image []byte) error {
	return c.redis.Del(ctx, c.generateImageKey(image)).Err()
}

// generateImageKey creates a cache key from the image content hash.
func (c *PredictionCache) generateImageKey(image []byte) string {
	hash := sha256.Sum256(image)
	return fmt.Sprintf("prediction:xray:%x", hash[:16])
}

// Ping checks if the Redis connection is alive.
func (c *PredictionCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *PredictionCache) Close() error {
	return c.redis.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const categoryListKeyPrefix = "forecast:categories"

// CategoryCache holds the category selector listing for one location. It is
// never consulted by a forecast run, which always re-fetches categories.
type CategoryCache interface {
	GetCategories(ctx context.Context, locationID string) ([]domain.Category, bool, error)
	SetCategories(ctx context.Context, locationID string, categories []domain.Category) error
	Invalidate(ctx context.Context, locationID string) error
}

type redisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopCategoryCache struct{}

func NewCategoryCache(cfg config.CacheConfig) (CategoryCache, error) {
	if !cfg.Enabled {
		return &noopCategoryCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisCategoryCache(client, categoryTTL(cfg)), nil
}

// NewRedisCategoryCache wraps an existing client.
func NewRedisCategoryCache(client *redis.Client, ttl time.Duration) CategoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisCategoryCache{client: client, ttl: ttl}
}

func NewNoopCategoryCache() CategoryCache {
	return &noopCategoryCache{}
}

func (c *redisCategoryCache) GetCategories(ctx context.Context, locationID string) ([]domain.Category, bool, error) {
	payload, err := c.client.Get(ctx, buildCategoryKey(locationID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var categories []domain.Category
	if err := json.Unmarshal(payload, &categories); err != nil {
		return nil, false, fmt.Errorf("decode category cache: %w", err)
	}

	return categories, true, nil
}

func (c *redisCategoryCache) SetCategories(ctx context.Context, locationID string, categories []domain.Category) error {
	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode category cache: %w", err)
	}

	if err := c.client.Set(ctx, buildCategoryKey(locationID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisCategoryCache) Invalidate(ctx context.Context, locationID string) error {
	return c.client.Del(ctx, buildCategoryKey(locationID)).Err()
}

func (n *noopCategoryCache) GetCategories(ctx context.Context, locationID string) ([]domain.Category, bool, error) {
	return nil, false, nil
}

func (n *noopCategoryCache) SetCategories(ctx context.Context, locationID string, categories []domain.Category) error {
	return nil
}

func (n *noopCategoryCache) Invalidate(ctx context.Context, locationID string) error {
	return nil
}

func buildCategoryKey(locationID string) string {
	if locationID == "" {
		return categoryListKeyPrefix + ":default"
	}
	return fmt.Sprintf("%s:%s", categoryListKeyPrefix, locationID)
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shinyyama/barter-backend/internal/model"
)

const categoriesKey = "categories:all"

// CategoryCache holds the category registry, which is seeded once and never
// edited through the API.
type CategoryCache interface {
	// GetCategories returns (nil, nil) on a miss.
	GetCategories(ctx context.Context) ([]model.Category, error)
	SetCategories(ctx context.Context, categories []model.Category) error
}

type RedisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCategoryCache(addr, password string, ttl time.Duration) (*RedisCategoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return NewRedisCategoryCacheFromClient(client, ttl), nil
}

func NewRedisCategoryCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCategoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCategoryCache{client: client, ttl: ttl}
}

func (c *RedisCategoryCache) GetCategories(ctx context.Context) ([]model.Category, error) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []model.Category
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RedisCategoryCache) SetCategories(ctx context.Context, categories []model.Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoriesKey, data, c.ttl).Err()
}

func (c *RedisCategoryCache) Close() error {
	return c.client.Close()
}

// NopCategoryCache always misses.
type NopCategoryCache struct{}

func (NopCategoryCache) GetCategories(context.Context) ([]model.Category, error) {
	return nil, nil
}

func (NopCategoryCache) SetCategories(context.Context, []model.Category) error {
	return nil
}

// Package cache keeps reference data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starquake/trivia/internal/trivia"
)

// CategoriesKey is the Redis key holding the category list.
const CategoriesKey = "trivia:categories"

type category struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// CategoryCache stores the category list in Redis as JSON.
type CategoryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCategoryCache returns a CategoryCache whose entries expire after ttl. A ttl of 0 means no expiry.
func NewCategoryCache(client redis.UniversalClient, ttl time.Duration) *CategoryCache {
	return &CategoryCache{client: client, ttl: ttl}
}

// NewClient returns a Redis client and checks that the server answers.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("error pinging redis at %s: %w", addr, err)
	}

	return client, nil
}

// Ping checks that Redis answers.
func (c *CategoryCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// GetCategories returns the cached categories. The bool is false on a cache miss.
func (c *CategoryCache) GetCategories(ctx context.Context) ([]*trivia.Category, bool, error) {
	data, err := c.client.Get(ctx, CategoriesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to get categories from cache: %w", err)
	}

	var cached []category
	if err = json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached categories: %w", err)
	}

	categories := make([]*trivia.Category, 0, len(cached))
	for _, cc := range cached {
		categories = append(categories, &trivia.Category{ID: cc.ID, Type: cc.Type})
	}

	return categories, true, nil
}

// SetCategories replaces the cached categories.
func (c *CategoryCache) SetCategories(ctx context.Context, categories []*trivia.Category) error {
	cached := make([]category, 0, len(categories))
	for _, tc := range categories {
		cached = append(cached, category{ID: tc.ID, Type: tc.Type})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	if err = c.client.Set(ctx, CategoriesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set categories in cache: %w", err)
	}

	return nil
}

// Invalidate drops the cached categories, for example after reseeding.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, CategoriesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate categories: %w", err)
	}

	return nil
}

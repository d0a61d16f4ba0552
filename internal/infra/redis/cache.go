package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/infra/storage"
)

const keyPrefix = "cinemap"

// Key helpers
func movieKey(title string) string {
	return fmt.Sprintf("%s:movie:%s", keyPrefix, storage.Key(title))
}

func locationKey(name string) string {
	return fmt.Sprintf("%s:location:%s", keyPrefix, storage.Key(name))
}

// MovieCache stores MovieRecords as JSON with a TTL.
type MovieCache struct {
	client *Client
	ttl    time.Duration
}

// NewMovieCache creates a movie cache. A zero ttl keeps entries until evicted.
func NewMovieCache(client *Client, ttl time.Duration) *MovieCache {
	return &MovieCache{client: client, ttl: ttl}
}

func (c *MovieCache) Get(ctx context.Context, title string) (*domain.MovieRecord, error) {
	var movie domain.MovieRecord
	found, err := c.client.getJSON(ctx, movieKey(title), &movie)
	if err != nil || !found {
		return nil, err
	}
	return &movie, nil
}

func (c *MovieCache) Save(ctx context.Context, title string, movie *domain.MovieRecord) error {
	return c.client.setJSON(ctx, movieKey(title), movie, c.ttl)
}

// LocationCache stores LocationRecords as JSON with a TTL.
type LocationCache struct {
	client *Client
	ttl    time.Duration
}

// NewLocationCache creates a location cache.
func NewLocationCache(client *Client, ttl time.Duration) *LocationCache {
	return &LocationCache{client: client, ttl: ttl}
}

func (c *LocationCache) Get(ctx context.Context, name string) (*domain.LocationRecord, error) {
	var loc domain.LocationRecord
	found, err := c.client.getJSON(ctx, locationKey(name), &loc)
	if err != nil || !found {
		return nil, err
	}
	return &loc, nil
}

func (c *LocationCache) Save(ctx context.Context, name string, loc *domain.LocationRecord) error {
	return c.client.setJSON(ctx, locationKey(name), loc, c.ttl)
}

func (c *Client) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s failed: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("decode %s failed: %w", key, err)
	}
	return true, nil
}

func (c *Client) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s failed: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s failed: %w", key, err)
	}
	return nil
}

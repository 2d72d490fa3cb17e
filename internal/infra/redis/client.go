package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// Client wraps Redis operations for the price-stats cache. The bot layer
// asks it for per-category min/max prices before hitting Postgres; the
// refresher invalidates a category after replacing its records.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: 24 * time.Hour}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func statKey(category domain.Category, stat string) string {
	return fmt.Sprintf("price_stats:%s:%s", category, stat)
}

// GetPrice returns a cached price stat ("min" or "max") for a category.
func (c *Client) GetPrice(
	ctx context.Context,
	category domain.Category,
	stat string,
) (price int64, found bool, err error) {
	val, err := c.rdb.Get(ctx, statKey(category, stat)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get failed: %w", err)
	}

	price, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached price %q: %w", val, err)
	}
	return price, true, nil
}

// SetPrice caches a price stat for a category.
func (c *Client) SetPrice(
	ctx context.Context,
	category domain.Category,
	stat string,
	price int64,
) error {
	key := statKey(category, stat)
	if err := c.rdb.Set(ctx, key, strconv.FormatInt(price, 10), c.ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached stats of a category after its records were
// replaced.
func (c *Client) Invalidate(ctx context.Context, category domain.Category) error {
	keys := []string{statKey(category, "min"), statKey(category, "max")}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("del failed: %w", err)
	}
	return nil
}

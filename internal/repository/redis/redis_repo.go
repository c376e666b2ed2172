package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
)

const statsKey = "docflow:statistics"

// StatsCache keeps the statistics aggregate hot for the dashboard's
// polling; the ingestion path never touches it, TTL handles staleness.
type StatsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{Client: client, TTL: ttl}
}

// Get returns (nil, nil) on a cache miss.
func (c *StatsCache) Get(ctx context.Context) (*entity.Statistics, error) {
	raw, err := c.Client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stats := &entity.Statistics{}
	if err := json.Unmarshal(raw, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *StatsCache) Set(ctx context.Context, stats *entity.Statistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, statsKey, raw, c.TTL).Err()
}

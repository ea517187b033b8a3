package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/selivandex/risklattice/pkg/models"
)

// ForecastCache keeps the latest forecast per (symbol, horizon)
type ForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewForecastCache creates new forecast cache; ttl 0 means 24h
func NewForecastCache(client *redis.Client, ttl time.Duration) *ForecastCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ForecastCache{client: client, ttl: ttl}
}

func forecastKey(symbol string, daysAhead int) string {
	return fmt.Sprintf("forecast:%s:%d", symbol, daysAhead)
}

// PutForecast stores f as JSON under its symbol and horizon
func (c *ForecastCache) PutForecast(ctx context.Context, f *models.RiskForecast) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal forecast: %w", err)
	}

	if err := c.client.Set(ctx, forecastKey(f.Symbol, f.DaysAhead), string(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache forecast: %w", err)
	}

	return nil
}

// GetForecast returns the cached forecast, nil on a miss
func (c *ForecastCache) GetForecast(ctx context.Context, symbol string, daysAhead int) (*models.RiskForecast, error) {
	raw, err := c.client.Get(ctx, forecastKey(symbol, daysAhead)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached forecast: %w", err)
	}

	var f models.RiskForecast
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("failed to decode cached forecast: %w", err)
	}

	return &f, nil
}

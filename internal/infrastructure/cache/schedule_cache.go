package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"loandash/internal/config"
	"loandash/internal/domain/loan"
)

// ScheduleCache stores the last simulation per loan in redis. Entries are
// JSON blobs keyed by loan ID and expire after the configured TTL; writers
// invalidate on loan updates, so expiry only bounds staleness after manual
// database edits.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ loan.ScheduleCache = (*ScheduleCache)(nil)

func NewScheduleCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*ScheduleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	logger.Info("Connected to redis schedule cache", "addr", cfg.Addr, "ttl", cfg.TTL)
	return &ScheduleCache{client: client, ttl: cfg.TTL, logger: logger.With("component", "ScheduleCache")}, nil
}

func ScheduleKey(loanID int64) string {
	return fmt.Sprintf("loandash:schedule:%d", loanID)
}

func (c *ScheduleCache) Get(ctx context.Context, loanID int64) (*loan.Simulation, error) {
	raw, err := c.client.Get(ctx, ScheduleKey(loanID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	sim, err := DecodeSimulation(raw)
	if err != nil {
		// A corrupt entry is treated as a miss; the next Set replaces it.
		c.logger.WarnContext(ctx, "Dropping undecodable cache entry", "loanID", loanID, slog.Any("error", err))
		return nil, nil
	}
	return sim, nil
}

func (c *ScheduleCache) Set(ctx context.Context, loanID int64, sim *loan.Simulation) error {
	raw, err := EncodeSimulation(sim)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, ScheduleKey(loanID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *ScheduleCache) Invalidate(ctx context.Context, loanID int64) error {
	if err := c.client.Del(ctx, ScheduleKey(loanID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (c *ScheduleCache) Close() error {
	return c.client.Close()
}

func EncodeSimulation(sim *loan.Simulation) ([]byte, error) {
	raw, err := json.Marshal(sim)
	if err != nil {
		return nil, fmt.Errorf("failed to encode simulation: %w", err)
	}
	return raw, nil
}

func DecodeSimulation(raw []byte) (*loan.Simulation, error) {
	var sim loan.Simulation
	if err := json.Unmarshal(raw, &sim); err != nil {
		return nil, fmt.Errorf("failed to decode simulation: %w", err)
	}
	return &sim, nil
}

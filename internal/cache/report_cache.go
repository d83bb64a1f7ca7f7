package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/config"
	"github.com/andresuchdata/salesvelocity/internal/domain"
	"github.com/andresuchdata/salesvelocity/internal/pipeline/sales_velocity"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix     = "sales_velocity:report"
	reportScanBatchSize = 100
)

// ReportCache stores built reports keyed by ReportKey.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.Report, bool, error)
	Set(ctx context.Context, key string, report *domain.Report) error
	// Invalidate removes one report and reports whether it was cached.
	Invalidate(ctx context.Context, key string) (bool, error)
	// InvalidateAll removes every cached report and returns how many were removed.
	InvalidateAll(ctx context.Context) (int, error)
	Close() error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache returns a redis-backed cache, or a noop cache when caching is disabled.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{
		client: client,
		ttl:    reportTTL(cfg),
	}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) Get(ctx context.Context, key string) (*domain.Report, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, key string, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) Invalidate(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Unlink(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis unlink failed: %w", err)
	}
	return n > 0, nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) (int, error) {
	return unlinkMatching(ctx, c.client, reportKeyPrefix+":", reportScanBatchSize)
}

func (c *redisReportCache) Close() error {
	return c.client.Close()
}

func (n *noopReportCache) Get(ctx context.Context, key string) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) Set(ctx context.Context, key string, report *domain.Report) error {
	return nil
}

func (n *noopReportCache) Invalidate(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

func (n *noopReportCache) Close() error {
	return nil
}

// ReportKey identifies a report by the workbook content and every setting that
// changes its result.
func ReportKey(content []byte, cfg sales_velocity.Config) string {
	h := sha1.New()
	h.Write(content)
	for _, part := range []string{
		cfg.SalesSheet,
		cfg.ProfitSheet,
		cfg.InventorySheet,
		strconv.Itoa(cfg.VelocityWindow),
		strconv.Itoa(cfg.TrendWindow),
		strconv.FormatFloat(cfg.Thresholds.UrgentDays, 'f', -1, 64),
		strconv.FormatFloat(cfg.Thresholds.RestockSoonDays, 'f', -1, 64),
		strconv.FormatFloat(cfg.Thresholds.MonitorDays, 'f', -1, 64),
	} {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return fmt.Sprintf("%s:%s", reportKeyPrefix, hex.EncodeToString(h.Sum(nil)))
}

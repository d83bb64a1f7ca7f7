package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultReportTTL = 10 * time.Minute
	redisPingTimeout = 5 * time.Second
)

// dialRedis connects and pings; the client is closed again when the ping fails.
func dialRedis(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}
	return client, nil
}

func reportTTL(cfg config.CacheConfig) time.Duration {
	if cfg.ReportTTLSeconds <= 0 {
		return defaultReportTTL
	}
	return time.Duration(cfg.ReportTTLSeconds) * time.Second
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// unlinkMatching removes every key under prefix, scanning count keys per round trip,
// and returns how many keys were removed.
func unlinkMatching(ctx context.Context, client *redis.Client, prefix string, count int64) (int, error) {
	iter := client.Scan(ctx, 0, prefix+"*", count).Iterator()

	removed := 0
	batch := make([]string, 0, count)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := client.Unlink(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis unlink failed: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= count {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	return removed, flush()
}

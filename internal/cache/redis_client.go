package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL  = 5 * time.Minute
	redisDialTimeout = 5 * time.Second
)

// dialRedis connects and pings the configured server.
func dialRedis(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// categoryTTL is the configured listing lifetime, defaulting to five minutes.
func categoryTTL(cfg config.CacheConfig) time.Duration {
	if cfg.CategoryTTLSeconds <= 0 {
		return defaultCacheTTL
	}
	return time.Duration(cfg.CategoryTTLSeconds) * time.Second
}

// redisOptions prefers REDIS_URL and otherwise assembles host, port and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:        net.JoinHostPort(host, port),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: redisDialTimeout,
	}, nil
}

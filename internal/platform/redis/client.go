// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the portal to the Redis instance holding visitor
credential slots.

Traffic is a handful of small GET, SET and DEL commands per visitor: one on
session start, one per login and one per logout. Slots carry a TTL taken from
the bearer token's expiry, so Redis ages stale credentials out on its own and
a portal restart does not sign anybody out.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout    = 3 * time.Second
	commandTimeout = time.Second
	pingTimeout    = 2 * time.Second
)

// Options configures the credential store connection.
type Options struct {
	// URL is a redis:// or rediss:// URL, database number included.
	URL string
	// PoolSize caps open connections. Zero keeps the go-redis default.
	PoolSize int
}

// NewClient connects to the credential store and checks it answers.
func NewClient(ctx context.Context, opts Options, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	if opts.PoolSize > 0 {
		options.PoolSize = opts.PoolSize
	}
	options.MinIdleConns = 1
	options.DialTimeout = dialTimeout
	options.ReadTimeout = commandTimeout
	options.WriteTimeout = commandTimeout

	client := redis.NewClient(options)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("credential_store_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping reports whether the credential store answers within pingTimeout.
// Readiness uses it.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}

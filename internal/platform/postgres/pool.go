// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres opens the connection pool of the contact inbox, the only
// data the portal stores itself. Everything else lives behind the alumni API.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns  = 4
	maxConnLifetime  = time.Hour
	maxConnIdleTime  = 10 * time.Minute
	connectTimeout   = 5 * time.Second
	pingTimeout      = 2 * time.Second
	defaultStatement = 10 * time.Second
)

// Options configures the inbox pool.
type Options struct {
	// DSN is a postgres:// URL or a keyword/value connection string.
	DSN string
	// MaxConns caps the pool. Zero means defaultMaxConns; inbox traffic is
	// one insert per contact form and a page of reads per admin view.
	MaxConns int32
	// StatementTimeout is set on every new connection. Zero means defaultStatement.
	StatementTimeout time.Duration
}

// NewPool opens the inbox pool and checks the database answers.
func NewPool(ctx context.Context, opts Options, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := parseConfig(opts)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("inbox_pool_connected",
		slog.String("host", config.ConnConfig.Host),
		slog.String("database", config.ConnConfig.Database),
		slog.Int("max_conns", int(config.MaxConns)),
	)

	return pool, nil
}

func parseConfig(opts Options) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	config.MaxConns = opts.MaxConns
	if config.MaxConns <= 0 {
		config.MaxConns = defaultMaxConns
	}
	config.MinConns = 0
	config.MaxConnLifetime = maxConnLifetime
	config.MaxConnIdleTime = maxConnIdleTime
	config.ConnConfig.ConnectTimeout = connectTimeout

	timeout := opts.StatementTimeout
	if timeout <= 0 {
		timeout = defaultStatement
	}
	statement := fmt.Sprintf("SET statement_timeout = %d", timeout.Milliseconds())
	config.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		_, err := connection.Exec(ctx, statement)
		return err
	}

	return config, nil
}

// Ping reports whether the inbox database answers within pingTimeout.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

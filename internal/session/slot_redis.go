// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/alumniportal/internal/platform/constants"
	"github.com/taibuivan/alumniportal/internal/platform/sec"
)

// RedisSlots stores one credential per visitor under a keyed hash of the
// visitor id, so the cookie value itself never appears in Redis.
type RedisSlots struct {
	client *redis.Client
	hasher *sec.KeyHasher
}

// NewRedisSlots creates a Redis-backed slot provider.
func NewRedisSlots(client *redis.Client, secret string) *RedisSlots {
	return &RedisSlots{client: client, hasher: sec.NewKeyHasher(secret)}
}

// For returns the slot of a visitor.
func (r *RedisSlots) For(visitorID string) CredentialSlot {
	return &redisSlot{client: r.client, key: r.Key(visitorID)}
}

// Key returns the Redis key holding a visitor's credential.
func (r *RedisSlots) Key(visitorID string) string {
	return constants.RedisPrefixCredential + r.hasher.Sum(visitorID)
}

type redisSlot struct {
	client *redis.Client
	key    string
}

func (s *redisSlot) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: load credential: %w", err)
	}
	return token, nil
}

func (s *redisSlot) Save(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Clear(ctx)
	}
	if err := s.client.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("session: save credential: %w", err)
	}
	return nil
}

func (s *redisSlot) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("session: clear credential: %w", err)
	}
	return nil
}

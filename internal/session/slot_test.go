// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alumniportal/internal/session"
)

func newRedisSlots(t *testing.T) (*session.RedisSlots, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.NewRedisSlots(client, "0123456789abcdef0123"), server
}

/*
TestRedisSlot covers the single-slot contract against Redis.
*/
func TestRedisSlot(t *testing.T) {
	slots, server := newRedisSlots(t)
	ctx := context.Background()
	slot := slots.For(visitor)

	token, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "empty slot")

	require.NoError(t, slot.Save(ctx, "first", time.Hour))
	require.NoError(t, slot.Save(ctx, "second", time.Hour))

	token, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token, "last write wins")

	server.FastForward(2 * time.Hour)
	token, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "expired")

	require.NoError(t, slot.Save(ctx, "third", time.Hour))
	require.NoError(t, slot.Clear(ctx))
	require.NoError(t, slot.Clear(ctx))
	assert.False(t, server.Exists(slots.Key(visitor)))
}

/*
TestRedisSlot_KeyHidesVisitorID verifies that the cookie value is not stored in clear.
*/
func TestRedisSlot_KeyHidesVisitorID(t *testing.T) {
	slots, _ := newRedisSlots(t)

	key := slots.Key(visitor)
	assert.True(t, strings.HasPrefix(key, "portal:credential:"))
	assert.NotContains(t, key, visitor)
	assert.Equal(t, key, slots.Key(visitor))
	assert.NotEqual(t, key, slots.Key(visitor+"x"))
}

/*
TestMemorySlot mirrors the Redis contract, including zero-TTL saves.
*/
func TestMemorySlot(t *testing.T) {
	slots := session.NewMemorySlots()
	ctx := context.Background()
	slot := slots.For(visitor)

	require.NoError(t, slot.Save(ctx, "token", time.Hour))
	assert.Equal(t, "token", slots.Peek(visitor))

	require.NoError(t, slot.Save(ctx, "expired", 0))
	assert.Empty(t, slots.Peek(visitor))

	assert.NoError(t, slot.Clear(ctx))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryLoginLimiter_WindowAndReset(t *testing.T) {
	l := NewMemoryLoginLimiter(time.Minute, 2).(*memoryLoginLimiter)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("User@Example.com") || !l.Allow("user@example.com ") {
		t.Fatalf("expected first two attempts allowed")
	}
	if l.Allow("user@example.com") {
		t.Fatalf("expected third attempt denied")
	}
	if !l.Allow("other@example.com") {
		t.Fatalf("expected independent keys")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("user@example.com") {
		t.Fatalf("expected attempt allowed after window")
	}

	l.Reset("USER@example.com")
	if !l.Allow("user@example.com") || !l.Allow("user@example.com") {
		t.Fatalf("expected counter cleared by reset")
	}
}

func TestMemoryLoginLimiter_EmptyKeyRejected(t *testing.T) {
	l := NewMemoryLoginLimiter(time.Minute, 5)
	if l.Allow("   ") {
		t.Fatalf("expected empty key rejected")
	}
}

func TestMemoryLoginLimiter_ExpiredKeysAreReleased(t *testing.T) {
	l := NewMemoryLoginLimiter(time.Minute, 5).(*memoryLoginLimiter)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3*sweepEvery; i++ {
		l.Allow(fmt.Sprintf("user%d@example.com", i))
	}
	if got := len(l.hits); got != 3*sweepEvery {
		t.Fatalf("expected %d tracked keys, got %d", 3*sweepEvery, got)
	}

	now = now.Add(24 * time.Hour)
	for i := 0; i < sweepEvery; i++ {
		l.Allow("fresh@example.com")
		l.Reset("fresh@example.com")
	}
	if got := len(l.hits); got != 0 {
		t.Fatalf("expected expired keys released, %d retained", got)
	}
}

func TestMemoryLoginLimiter_ReusedKeyDoesNotKeepStaleSlice(t *testing.T) {
	l := NewMemoryLoginLimiter(time.Minute, 2).(*memoryLoginLimiter)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("alice@example.com")
	l.Allow("alice@example.com")
	now = now.Add(2 * time.Minute)
	if !l.Allow("alice@example.com") {
		t.Fatalf("expected attempt allowed after window")
	}
	if got := len(l.hits["alice@example.com"]); got != 1 {
		t.Fatalf("expected only the fresh attempt tracked, got %d", got)
	}
}

type mockRedisLimiterClient struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	lastDel    []string
	result     int64
	err        error
}

func (m *mockRedisLimiterClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func (m *mockRedisLimiterClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestRedisLoginLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisLoginLimiter
		if !l.Allow("user@example.com") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisLoginLimiter{client: &mockRedisLimiterClient{result: 1}, window: time.Minute, max: 3, prefix: "login:rl:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow within max", func(t *testing.T) {
		mock := &mockRedisLimiterClient{result: 3}
		l := &redisLoginLimiter{client: mock, window: 15 * time.Minute, max: 3, prefix: "login:rl:"}
		if !l.Allow(" Alice@Example.com ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "login:rl:alice@example.com" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 900 {
			t.Fatalf("expected TTL seconds=900, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisLoginAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny over max", func(t *testing.T) {
		l := &redisLoginLimiter{client: &mockRedisLimiterClient{result: 4}, window: time.Minute, max: 3, prefix: "login:rl:"}
		if l.Allow("alice@example.com") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisLoginLimiter{client: &mockRedisLimiterClient{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "login:rl:"}
		if !l.Allow("alice@example.com") {
			t.Fatalf("expected fail-open on redis error")
		}
	})
}

func TestRedisLoginLimiterReset(t *testing.T) {
	mock := &mockRedisLimiterClient{}
	l := &redisLoginLimiter{client: mock, window: time.Minute, max: 3, prefix: "login:rl:"}

	l.Reset(" Alice@Example.com")
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "login:rl:alice@example.com" {
		t.Fatalf("unexpected del key: %+v", mock.lastDel)
	}

	mock.lastDel = nil
	l.Reset("  ")
	if mock.lastDel != nil {
		t.Fatalf("expected empty key reset to be a no-op")
	}
}

func TestNewRedisLoginLimiter_NilClient(t *testing.T) {
	if l := NewRedisLoginLimiter(nil, time.Minute, 3); l != nil {
		t.Fatalf("expected nil limiter for nil client")
	}
}

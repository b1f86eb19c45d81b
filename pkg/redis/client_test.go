package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestCartViewCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CartViewKey("f3d1a6b2c4e8470c9d2f13a5b6c7d8e9")
	if err := client.Set(ctx, key, `{"items":[]}`, 30*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	cached, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cached != `{"items":[]}` {
		t.Fatalf("expected cached view, got %q", cached)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !IsNil(err) {
		t.Fatalf("expected redis.Nil after invalidation, got %v", err)
	}
}

func TestSetNXClaimsOnlyOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.LockKey("retention")
	ok, err := client.SetNX(ctx, key, "owner-1", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first claim should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "owner-2", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("second claim should be rejected")
	}
}

func TestPublishReachesChannel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Publish(ctx, client.CartEventsChannel(), `{"action":"updated"}`); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := mock.published[client.CartEventsChannel()]; len(got) != 1 {
		t.Fatalf("expected one published payload, got %d", len(got))
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.CartViewKey("abc"); got != "shopcart:cart:view:abc" {
		t.Fatalf("unexpected cart view key %s", got)
	}
	if got := client.LockKey("cron-worker"); got != "shopcart:lock:cron-worker" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.CartEventsChannel(); got != "shopcart:cart:events" {
		t.Fatalf("unexpected events channel %s", got)
	}
}

type mockCmdable struct {
	data      map[string]string
	published map[string][]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:      make(map[string]string),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, payload any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(payload))
	return redis.NewIntResult(1, nil)
}

package csrf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Now().Truncate(time.Millisecond)

	if err := s.Save(ctx, Token{Value: "abc", Scope: "s1", IssuedAt: issued}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Value != "abc" || !got.IssuedAt.Equal(issued) || got.ConsumedAt != nil {
		t.Fatalf("unexpected token %+v", got)
	}

	ok, err := s.Consume(ctx, "s1", "wrong", time.Now())
	if err != nil || ok {
		t.Fatalf("expected wrong value not to consume: ok=%v err=%v", ok, err)
	}
	ok, err = s.Consume(ctx, "s1", "abc", time.Now())
	if err != nil || !ok {
		t.Fatalf("expected consume: ok=%v err=%v", ok, err)
	}
	ok, err = s.Consume(ctx, "s1", "abc", time.Now())
	if err != nil || ok {
		t.Fatalf("expected second consume to fail: ok=%v err=%v", ok, err)
	}

	got, err = s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load after consume: %v", err)
	}
	if got.ConsumedAt == nil {
		t.Fatalf("expected consumed_at to be set")
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "s1"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after delete, got %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, Token{Value: "abc", Scope: "s1", IssuedAt: time.Now()}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := s.Load(ctx, "s1"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected token to expire, got %v", err)
	}
}

func TestManagerWithRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	m := NewManager(s, time.Minute)
	ctx := context.Background()

	tok, err := m.Issue(ctx, "session")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := m.Verify(ctx, "session", tok); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := m.Verify(ctx, "session", tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected replay to be rejected, got %v", err)
	}
	next, err := m.Rotate(ctx, "session")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := m.Verify(ctx, "session", next); err != nil {
		t.Fatalf("verify rotated: %v", err)
	}
}

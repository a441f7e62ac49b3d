package cache

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RequestCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	logger := log.New(io.Discard, "", 0)
	return NewRequestCacheFromClient(client, ttl, logger), srv
}

func TestRequestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	type payload struct {
		Answer string   `json:"answer"`
		Tags   []string `json:"tags"`
	}
	stored := payload{Answer: "42", Tags: []string{"a", "b"}}

	key := c.Key("retrieval", "what is the answer")
	c.Set(ctx, key, stored)

	var got payload
	if !c.Get(ctx, key, &got) {
		t.Fatal("expected cache hit after Set")
	}
	if got.Answer != stored.Answer || len(got.Tags) != 2 {
		t.Errorf("cached payload = %+v, want %+v", got, stored)
	}
}

func TestRequestCacheMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var dest string
	if c.Get(context.Background(), c.Key("retrieval", "never stored"), &dest) {
		t.Error("expected miss for unknown key")
	}
}

func TestRequestCacheTTLExpiry(t *testing.T) {
	c, srv := newTestCache(t, 30*time.Second)
	ctx := context.Background()

	key := c.Key("retrieval", "short lived")
	c.Set(ctx, key, "value")

	var dest string
	if !c.Get(ctx, key, &dest) {
		t.Fatal("expected hit before expiry")
	}

	srv.FastForward(31 * time.Second)

	if c.Get(ctx, key, &dest) {
		t.Error("expected miss after TTL expiry")
	}
}

func TestRequestCacheKeyStableAndNamespaced(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	k1 := c.Key("retrieval", "same query")
	k2 := c.Key("retrieval", "same query")
	k3 := c.Key("answers", "same query")

	if k1 != k2 {
		t.Errorf("same input produced different keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("different namespaces produced identical keys")
	}
}

func TestRequestCacheClearPattern(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, c.Key("retrieval", "q1"), "a")
	c.Set(ctx, c.Key("retrieval", "q2"), "b")
	c.Set(ctx, c.Key("answers", "q1"), "c")

	removed := c.ClearPattern(ctx, "retrieval:*")
	if removed != 2 {
		t.Errorf("ClearPattern removed %d keys, want 2", removed)
	}

	var dest string
	if c.Get(ctx, c.Key("retrieval", "q1"), &dest) {
		t.Error("retrieval entry survived ClearPattern")
	}
	if !c.Get(ctx, c.Key("answers", "q1"), &dest) {
		t.Error("unrelated namespace was cleared")
	}
}

func TestRequestCacheDisabledIsNoOp(t *testing.T) {
	c := NewRequestCacheFromClient(nil, time.Minute, log.New(io.Discard, "", 0))
	ctx := context.Background()

	if c.Enabled() {
		t.Error("nil-client cache reports enabled")
	}

	// None of these should panic or error.
	c.Set(ctx, "k", "v")
	c.Delete(ctx, "k")
	if n := c.ClearPattern(ctx, "*"); n != 0 {
		t.Errorf("ClearPattern on disabled cache = %d, want 0", n)
	}

	var dest string
	if c.Get(ctx, "k", &dest) {
		t.Error("disabled cache returned a hit")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on disabled cache: %v", err)
	}
}

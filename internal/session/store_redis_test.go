//go:build integration
// +build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rs := NewRedisStore(NewRedisClient(RedisOptions{Addr: addr}))
	t.Cleanup(func() { _ = rs.Close() })

	ctx := context.Background()
	if err := rs.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	id := "it-" + time.Now().Format("150405.000000")
	if err := rs.Save(ctx, id, []byte(`{"cart":{}}`), time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := rs.Load(ctx, id)
	if err != nil || !ok || string(got) != `{"cart":{}}` {
		t.Fatalf("Load: %q ok=%v err=%v", got, ok, err)
	}

	if err := rs.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := rs.Load(ctx, id); ok {
		t.Fatalf("session survived Delete")
	}
}

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"dgt-wallet-go/internal/models"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if err := c.Set(ctx, "balance:alice", entry{"alice", 1}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, "balance:bob", entry{"bob", 2}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, "transactions:alice:1:20", entry{"alice", 3}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got entry
	found, err := c.Get(ctx, "balance:alice", &got)
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if got.Count != 1 {
		t.Errorf("Expected count 1, got %d", got.Count)
	}

	if err := c.DeletePrefix(ctx, "balance:"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if found, _ := c.Get(ctx, "balance:bob", &got); found {
		t.Error("Expected balance:bob to be removed")
	}
	if found, _ := c.Get(ctx, "transactions:alice:1:20", &got); !found {
		t.Error("Expected transactions entry to survive")
	}

	// Glob metacharacters in a prefix match literally
	for _, key := range []string{"transactions:a*:1:20", "transactions:ab:1:20"} {
		if err := c.Set(ctx, key, entry{key, 4}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	if err := c.DeletePrefix(ctx, "transactions:a*:"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if found, _ := c.Get(ctx, "transactions:a*:1:20", &got); found {
		t.Error("Expected transactions:a*:1:20 to be removed")
	}
	if found, _ := c.Get(ctx, "transactions:ab:1:20", &got); !found {
		t.Error("Expected transactions:ab:1:20 to survive a literal prefix delete")
	}

	if err := c.Delete(ctx, "transactions:alice:1:20", "missing"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if found, _ := c.Get(ctx, "transactions:alice:1:20", &got); found {
		t.Error("Expected transactions entry to be removed")
	}
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory(time.Minute, time.Minute))
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(time.Minute, 10*time.Millisecond)
	ctx := context.Background()

	if err := m.Set(ctx, "k", entry{"x", 1}, 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	var got entry
	if found, _ := m.Get(ctx, "k", &got); found {
		t.Error("Expected entry to expire")
	}
	if m.Len() != 0 {
		t.Errorf("Expected janitor to sweep expired entry, %d left", m.Len())
	}
}

func TestMatchPrefix(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"dgt:balance:", "dgt:balance:*"},
		{"transactions:a*b:", `transactions:a\*b:*`},
		{"u?[x]", `u\?\[x\]*`},
		{`back\slash`, `back\\slash*`},
	}

	for _, tt := range tests {
		if got := matchPrefix(tt.prefix); got != tt.expected {
			t.Errorf("matchPrefix(%q) = %q, expected %q", tt.prefix, got, tt.expected)
		}
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	r, err := NewRedis(context.Background(), models.CacheConfig{RedisAddr: addr, RedisPrefix: "dgt-test:"})
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	defer r.Close()

	exerciseCache(t, r)
}

package dedup

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreOnce(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	first, err := store.Once(ctx, "mint_failure:0xabc", time.Minute)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if !first {
		t.Fatal("first sighting should return true")
	}

	repeat, err := store.Once(ctx, "mint_failure:0xabc", time.Minute)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if repeat {
		t.Fatal("repeat within the window should return false")
	}

	// a different key is independent
	other, err := store.Once(ctx, "mint_failure:0xdef", time.Minute)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if !other {
		t.Fatal("unrelated key should return true")
	}

	now = now.Add(2 * time.Minute)
	again, err := store.Once(ctx, "mint_failure:0xabc", time.Minute)
	if err != nil {
		t.Fatalf("Once failed: %v", err)
	}
	if !again {
		t.Fatal("sighting after the window should return true again")
	}
}

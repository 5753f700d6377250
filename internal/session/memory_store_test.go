package session

import (
	"context"
	"testing"
	"time"

	"strategy-builder/internal/rules"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()
	ctx := context.Background()

	saved := &Session{
		ConversationID: "conv-1",
		Rules: []rules.Rule{
			{Category: rules.CategorySetup, Label: "Instrument", Value: "ES", Source: rules.SourceUser},
		},
		Phase: rules.PhaseStopDefinition,
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Phase != rules.PhaseStopDefinition || len(got.Rules) != 1 {
		t.Errorf("Session came back wrong: %+v", got)
	}
	if got.LastActivity.IsZero() {
		t.Error("Save should stamp last activity")
	}
}

func TestMemoryStoreMissingConversation(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()

	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10*time.Millisecond, time.Hour)
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, &Session{ConversationID: "conv-2"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	time.Sleep(25 * time.Millisecond)

	if _, err := store.Get(ctx, "conv-2"); err != ErrNotFound {
		t.Errorf("Expired session should be gone, got %v", err)
	}
}

func TestMemoryStoreSaveRefreshesTTL(t *testing.T) {
	store := NewMemoryStore(40*time.Millisecond, time.Hour)
	defer store.Close()
	ctx := context.Background()

	s := &Session{ConversationID: "conv-3"}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	time.Sleep(25 * time.Millisecond)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	time.Sleep(25 * time.Millisecond)

	if _, err := store.Get(ctx, "conv-3"); err != nil {
		t.Errorf("Active session should survive past the original TTL: %v", err)
	}
}

func TestMemoryStoreEvictionSweep(t *testing.T) {
	store := NewMemoryStore(5*time.Millisecond, 10*time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, &Session{ConversationID: "conv-4"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	store.mu.RLock()
	_, present := store.sessions["conv-4"]
	store.mu.RUnlock()
	if present {
		t.Error("Sweep should have evicted the idle session from the map")
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, &Session{ConversationID: "conv-5", Pattern: "opening_range_breakout"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, _ := store.Get(ctx, "conv-5")
	got.Pattern = "mutated"

	again, _ := store.Get(ctx, "conv-5")
	if again.Pattern != "opening_range_breakout" {
		t.Error("Mutating a returned session must not affect the stored one")
	}
}

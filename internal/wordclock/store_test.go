package wordclock

import (
	"testing"
)

func TestStore_CurrentBeforeFirstData(t *testing.T) {
	store := NewStore()

	snap, ok := store.Current()
	if ok {
		t.Error("expected no snapshot before first data")
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %v", snap)
	}
}

func TestStore_ApplyAuthoritative(t *testing.T) {
	store := NewStore()
	store.ApplyAuthoritative(Snapshot{"brightness": float64(128), "enabled": true})

	snap, ok := store.Current()
	if !ok {
		t.Fatal("expected snapshot after apply")
	}
	if snap["brightness"] != float64(128) {
		t.Errorf("brightness = %v, want 128", snap["brightness"])
	}
	if snap["enabled"] != true {
		t.Errorf("enabled = %v, want true", snap["enabled"])
	}
}

func TestStore_ShallowMergePreservesOtherFields(t *testing.T) {
	store := NewStore()
	store.ApplyAuthoritative(Snapshot{"brightness": float64(100), "language": "deutsch"})
	store.ApplyAuthoritative(Snapshot{"brightness": float64(50)})

	snap, _ := store.Current()
	if snap["brightness"] != float64(50) {
		t.Errorf("brightness = %v, want 50", snap["brightness"])
	}
	if snap["language"] != "deutsch" {
		t.Errorf("language = %v, want deutsch (untouched by partial merge)", snap["language"])
	}
}

func TestStore_LastWriteObservedWins(t *testing.T) {
	store := NewStore()

	// Optimistic write followed by an authoritative event for the same
	// field: the event wins regardless of wall-clock ordering upstream.
	store.ApplyOptimistic(Snapshot{"brightness": 200})
	store.ApplyAuthoritative(Snapshot{"brightness": float64(128)})

	snap, _ := store.Current()
	if snap["brightness"] != float64(128) {
		t.Errorf("brightness = %v, want 128 (authoritative last)", snap["brightness"])
	}
}

func TestStore_NonPrimitiveValuesDropped(t *testing.T) {
	store := NewStore()
	store.ApplyAuthoritative(Snapshot{
		"brightness": float64(10),
		"nested":     map[string]any{"a": 1},
		"list":       []any{1, 2},
	})

	snap, _ := store.Current()
	if _, exists := snap["nested"]; exists {
		t.Error("nested object should be dropped")
	}
	if _, exists := snap["list"]; exists {
		t.Error("array should be dropped")
	}
	if snap["brightness"] != float64(10) {
		t.Errorf("brightness = %v, want 10 (valid field kept)", snap["brightness"])
	}
}

func TestStore_CopyOnWriteIsolation(t *testing.T) {
	store := NewStore()
	store.ApplyAuthoritative(Snapshot{"brightness": float64(1)})

	snap, _ := store.Current()
	store.ApplyAuthoritative(Snapshot{"brightness": float64(2)})

	if snap["brightness"] != float64(1) {
		t.Errorf("earlier copy mutated: brightness = %v, want 1", snap["brightness"])
	}

	// Mutating the returned copy must not affect the store.
	snap["brightness"] = float64(99)
	current, _ := store.Current()
	if current["brightness"] != float64(2) {
		t.Errorf("store affected by copy mutation: brightness = %v, want 2", current["brightness"])
	}
}

func TestStore_SubscribersNotifiedInOrder(t *testing.T) {
	store := NewStore()
	var order []int

	store.Subscribe(func(Snapshot) { order = append(order, 1) })
	store.Subscribe(func(Snapshot) { order = append(order, 2) })
	store.Subscribe(func(Snapshot) { order = append(order, 3) })

	store.ApplyAuthoritative(Snapshot{"enabled": true})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("notification order = %v, want [1 2 3]", order)
	}
}

func TestStore_SubscriberReceivesFullSnapshot(t *testing.T) {
	store := NewStore()
	store.ApplyAuthoritative(Snapshot{"language": "dialekt"})

	var received Snapshot
	store.Subscribe(func(s Snapshot) { received = s })
	store.ApplyAuthoritative(Snapshot{"brightness": float64(64)})

	if received["language"] != "dialekt" {
		t.Errorf("callback snapshot missing merged field: %v", received)
	}
	if received["brightness"] != float64(64) {
		t.Errorf("callback snapshot missing new field: %v", received)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	store := NewStore()
	var calls int

	sub := store.Subscribe(func(Snapshot) { calls++ })
	store.ApplyAuthoritative(Snapshot{"enabled": true})
	sub.Unsubscribe()
	store.ApplyAuthoritative(Snapshot{"enabled": false})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStore_CallbackCanReadStore(t *testing.T) {
	// Callbacks run outside the store lock; Current inside a callback
	// must not deadlock.
	store := NewStore()
	done := make(chan struct{})

	store.Subscribe(func(Snapshot) {
		store.Current()
		close(done)
	})
	store.ApplyAuthoritative(Snapshot{"enabled": true})

	select {
	case <-done:
	default:
		t.Fatal("callback did not complete (deadlock on store lock?)")
	}
}

func TestStore_EmptyMergeDoesNotNotify(t *testing.T) {
	store := NewStore()
	var calls int
	store.Subscribe(func(Snapshot) { calls++ })

	store.ApplyAuthoritative(Snapshot{})
	store.ApplyAuthoritative(nil)

	if calls != 0 {
		t.Errorf("calls = %d, want 0 for empty merges", calls)
	}
}

package storage

import (
	"testing"
)

type snapshot struct {
	Names []string `json:"names"`
}

func TestJSONStoreRoundtrip(t *testing.T) {
	store, err := NewJSONStore(t.TempDir(), "state.json")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if store.Exists() {
		t.Fatal("fresh store should not exist yet")
	}

	// Loading before any save is a no-op.
	var empty snapshot
	if err := store.Load(&empty); err != nil {
		t.Fatalf("load fresh: %v", err)
	}
	if len(empty.Names) != 0 {
		t.Fatalf("fresh load = %+v", empty)
	}

	if err := store.Save(&snapshot{Names: []string{"alice", "bob"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.Exists() {
		t.Fatal("store should exist after save")
	}

	var got snapshot
	if err := store.Load(&got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Names) != 2 || got.Names[0] != "alice" {
		t.Fatalf("loaded = %+v", got)
	}

	// Saves replace, not append.
	if err := store.Save(&snapshot{Names: []string{"carol"}}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got = snapshot{}
	if err := store.Load(&got); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.Names) != 1 || got.Names[0] != "carol" {
		t.Fatalf("reloaded = %+v", got)
	}
}

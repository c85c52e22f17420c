package cache

import (
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory[string](time.Minute)
	if _, ok := m.Get("missing"); ok {
		t.Error("Get() hit on an empty cache")
	}
	m.Set("k", "v")
	got, ok := m.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get(k) = %q, %v; want v, true", got, ok)
	}
}

func TestMemoryExpiry(t *testing.T) {
	current := time.Now()
	m := NewMemory[int](time.Minute)
	m.now = func() time.Time { return current }

	m.Set("k", 42)
	if _, ok := m.Get("k"); !ok {
		t.Fatal("entry missing before expiry")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := m.Get("k"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestMemoryPrunesOnWrite(t *testing.T) {
	current := time.Now()
	m := NewMemory[int](time.Minute)
	m.now = func() time.Time { return current }

	m.Set("old", 1)
	current = current.Add(3 * time.Minute)
	m.Set("new", 2)

	if m.Len() != 1 {
		t.Errorf("Len() = %d after prune, want 1", m.Len())
	}
}

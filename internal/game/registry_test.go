package game

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	m, err := r.Create("room-1", playerA, playerB)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID() != "room-1" {
		t.Fatalf("match id = %s; want room-1", m.ID())
	}

	if _, err := r.Create("room-1", 3, 4); err != ErrMatchExists {
		t.Fatalf("duplicate create err = %v; want ErrMatchExists", err)
	}

	got, ok := r.Get("room-1")
	if !ok || got != m {
		t.Fatal("Get did not return the created match")
	}

	r.Destroy("room-1")
	if _, ok := r.Get("room-1"); ok {
		t.Fatal("match still present after Destroy")
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d; want 0", r.Len())
	}
}

package registry

import "testing"

func TestInsertIdentifiersStartAtOneAndIncrease(t *testing.T) {
	tbl := New[string]()

	var prev ID
	for i := 1; i <= 5; i++ {
		id := tbl.Insert("v")
		if id == Invalid {
			t.Fatal("Insert returned the invalid identifier")
		}
		if i == 1 && id != 1 {
			t.Fatalf("first identifier = %d, want 1", id)
		}
		if id <= prev {
			t.Fatalf("identifier %d not strictly greater than %d", id, prev)
		}
		prev = id
	}
	if tbl.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tbl.Len())
	}
}

func TestLookup(t *testing.T) {
	tbl := New[int]()
	id := tbl.Insert(42)

	if v, ok := tbl.Lookup(id); !ok || v != 42 {
		t.Errorf("Lookup(%d) = %d, %v; want 42, true", id, v, ok)
	}
	if _, ok := tbl.Lookup(Invalid); ok {
		t.Error("Lookup(Invalid) resolved")
	}
	if _, ok := tbl.Lookup(id + 100); ok {
		t.Error("Lookup of never-issued identifier resolved")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	tbl := New[int]()
	id := tbl.Insert(7)

	if v, ok := tbl.Remove(id); !ok || v != 7 {
		t.Fatalf("Remove(%d) = %d, %v; want 7, true", id, v, ok)
	}
	if _, ok := tbl.Remove(id); ok {
		t.Error("second Remove of same identifier succeeded")
	}
	if _, ok := tbl.Remove(999); ok {
		t.Error("Remove of unknown identifier succeeded")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d after removal, want 0", tbl.Len())
	}
}

func TestStaleIdentifierDoesNotResolveAfterSlotReuse(t *testing.T) {
	tbl := New[string]()
	old := tbl.Insert("first")
	tbl.Remove(old)

	// The slot is reused, but under a new generation.
	reused := tbl.Insert("second")
	if reused == old {
		t.Fatalf("reused identifier %d equals the stale one", reused)
	}
	if _, ok := tbl.Lookup(old); ok {
		t.Error("stale identifier resolved after slot reuse")
	}
	if v, ok := tbl.Lookup(reused); !ok || v != "second" {
		t.Errorf("Lookup(reused) = %q, %v; want %q, true", v, ok, "second")
	}
}

func TestEachVisitsOnlyLiveEntries(t *testing.T) {
	tbl := New[int]()
	a := tbl.Insert(1)
	tbl.Insert(2)
	tbl.Remove(a)

	seen := map[int]bool{}
	tbl.Each(func(id ID, v int) {
		seen[v] = true
	})
	if len(seen) != 1 || !seen[2] {
		t.Errorf("Each visited %v, want only 2", seen)
	}
}

func TestResetRestartsIdentifierAllocation(t *testing.T) {
	tbl := New[int]()
	tbl.Insert(1)
	tbl.Insert(2)
	tbl.Reset()

	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d after Reset, want 0", tbl.Len())
	}
	if id := tbl.Insert(3); id != 1 {
		t.Errorf("first identifier after Reset = %d, want 1", id)
	}
}

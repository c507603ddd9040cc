package anon

import "testing"

func TestCellStateAppendAndIDCount(t *testing.T) {
	cs := NewCellState(2)
	cs.AppendFree(0, "alice")
	cs.AppendFree(1, "bob")
	if got := cs.IDCount(); got != 2 {
		t.Fatalf("IDCount = %d, want 2", got)
	}
	if !cs.HasID("alice") || !cs.HasID("bob") {
		t.Fatalf("expected both ids recorded")
	}
	if len(cs.Free) != 2 {
		t.Fatalf("Free len = %d, want 2", len(cs.Free))
	}
}

func TestCellStateSoftCapStopsCountingNotMembership(t *testing.T) {
	cs := NewCellState(1)
	cs.AppendFree(0, "alice")
	cs.AppendFree(1, "bob")
	cs.AppendFree(2, "carol")
	if got := cs.IDCount(); got != 1 {
		t.Fatalf("IDCount = %d, want capped at 1", got)
	}
	if len(cs.Free) != 3 {
		t.Fatalf("Free len = %d, want 3 (soft cap only bounds id tracking)", len(cs.Free))
	}
}

func TestCellStateClearFreeDropsFreeAndIDsKeepsCores(t *testing.T) {
	cs := NewCellState(5)
	cs.AppendFree(0, "alice")
	cs.AppendCore(Core{Index: 0, Precision: 9})
	cs.ClearFree()
	if len(cs.Free) != 0 {
		t.Fatalf("Free should be empty after ClearFree")
	}
	if cs.IDCount() != 0 {
		t.Fatalf("ids should be empty after ClearFree")
	}
	if len(cs.Cores) != 1 {
		t.Fatalf("Cores should survive ClearFree")
	}
}

func TestCombineIsNonDestructive(t *testing.T) {
	a := NewCellState(5)
	a.AppendFree(0, "alice")
	b := NewCellState(5)
	b.AppendFree(1, "bob")

	combined := Combine(a, b)
	if len(combined.Free) != 2 {
		t.Fatalf("combined Free len = %d, want 2", len(combined.Free))
	}
	if combined.IDCount() != 2 {
		t.Fatalf("combined IDCount = %d, want 2", combined.IDCount())
	}
	// originals untouched
	if len(a.Free) != 1 || len(b.Free) != 1 {
		t.Fatalf("Combine must not mutate its inputs")
	}
	if a.IDCount() != 1 || b.IDCount() != 1 {
		t.Fatalf("Combine must not mutate input id sets")
	}
}

func TestCombineUsesLargerSoftCap(t *testing.T) {
	a := NewCellState(1)
	a.AppendFree(0, "alice")
	b := NewCellState(5)
	b.AppendFree(1, "bob")
	b.AppendFree(2, "carol")

	combined := Combine(a, b)
	// cap is max(softMaxIDs) per current Combine semantics: softMaxIDs
	// for the combined view is the largest of its inputs', so all three
	// distinct ids should be observable here.
	if combined.IDCount() != 3 {
		t.Fatalf("combined IDCount = %d, want 3", combined.IDCount())
	}
}

func TestCombineOfEmptyIsEmpty(t *testing.T) {
	combined := Combine()
	if len(combined.Free) != 0 || combined.IDCount() != 0 {
		t.Fatalf("Combine() with no args should be the identity element")
	}
}

package anon

import (
	"testing"

	"github.com/perf-analysis/internal/anon/hexgrid"
)

func memberSetContains(members []hexgrid.Cell, target hexgrid.Cell) bool {
	for _, m := range members {
		if m == target {
			return true
		}
	}
	return false
}

func TestOverlapClustererGroupsNeighborsAndOrdersAscending(t *testing.T) {
	grid := fakeGrid{}
	table := NewTable(
		[]string{"a", "b", "c"},
		[]float64{0, 0, 0},
		[]float64{0, 0, 0},
		[]string{"t", "t", "t"},
	)
	run := NewAnonRun(grid, table, 2)

	p := 5
	cellA := encodeCell(p, 0, 0)
	cellB := encodeCell(p, 1, 0)      // adjacent to cellA
	cellC := encodeCell(p, 100, 100) // far from everything

	run.CellAt(cellA).AppendFree(0, "a")
	run.CellAt(cellB).AppendFree(1, "b")
	run.CellAt(cellC).AppendFree(2, "c")

	oc := NewOverlapClusterer(grid)
	overlaps := oc.Build(run)

	for _, o := range overlaps {
		if len(o.Members) < 2 {
			t.Fatalf("Build must only return flowers with >= 2 members, got %+v", o)
		}
		if memberSetContains(o.Members, cellC) {
			t.Fatalf("isolated cell %v should never appear in a returned overlap", cellC)
		}
	}

	found := false
	for _, o := range overlaps {
		if memberSetContains(o.Members, cellA) && memberSetContains(o.Members, cellB) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected some overlap to group adjacent cells A and B together")
	}

	for i := 1; i < len(overlaps); i++ {
		if len(overlaps[i-1].Members) > len(overlaps[i].Members) {
			t.Fatalf("overlaps not ascending by size: %v", overlaps)
		}
	}
}

func TestSatisfiesIDLevelVsLocLevel(t *testing.T) {
	cs := NewCellState(2)
	cs.AppendFree(0, "a")
	if Satisfies(cs, 2, false) {
		t.Fatalf("should not satisfy id-level K=2 with only one distinct id")
	}
	cs.AppendFree(1, "b")
	if !Satisfies(cs, 2, false) {
		t.Fatalf("should satisfy id-level K=2 with two distinct ids")
	}

	locCS := NewCellState(2)
	locCS.AppendFree(0, "a")
	locCS.AppendFree(1, "a") // same id, two rows
	if Satisfies(locCS, 2, false) {
		t.Fatalf("id-level K=2 must not be satisfied by two rows sharing one id")
	}
	if !Satisfies(locCS, 2, true) {
		t.Fatalf("loc-level K=2 should be satisfied by two rows regardless of id")
	}
}

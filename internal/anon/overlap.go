package anon

import (
	"fmt"
	"sort"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/collections"
)

// Overlap is the set of currently occupied cells whose one-ring flowers
// all touch a common center cell. The center need not itself be occupied
// — it is only the key that brought these members together.
type Overlap struct {
	Center  hexgrid.Cell
	Members []hexgrid.Cell
}

// key returns the lexicographic tuple used to tie-break overlaps of equal
// size: the sorted member cell ids joined into one comparable string.
// Two overlaps with the same member set always produce the same key
// regardless of map iteration order, which is what makes the descent
// loop's choices reproducible.
func (o Overlap) key() string {
	out := ""
	for _, h := range o.Members {
		out += cellString(h) + ","
	}
	return out
}

func cellString(h hexgrid.Cell) string {
	return fmt.Sprintf("%016x", uint64(h))
}

// OverlapClusterer discovers, at the run's current precision, every
// "flower" — a center cell plus the occupied cells within its one-ring —
// that currently covers two or more occupied cells. The returned overlaps
// are ordered smallest-first (ties broken lexicographically by member
// cell ids): tighter spatial groupings get first claim on free rows, per
// spec.
type OverlapClusterer struct {
	grid hexgrid.Grid
}

// NewOverlapClusterer returns a clusterer bound to grid.
func NewOverlapClusterer(grid hexgrid.Grid) OverlapClusterer {
	return OverlapClusterer{grid: grid}
}

// Build maps every cell touched by an occupied cell's one-ring flower to
// the sorted set of occupied cells that touch it, keeping only flowers
// with two or more members. The member lists only name cells; callers
// read live CellState off run so state mutated mid-pass (a cell's free
// pool cleared by an earlier, smaller overlap) is seen by later overlaps.
func (oc OverlapClusterer) Build(run *AnonRun) []Overlap {
	occupied := run.Occupied()
	sort.Slice(occupied, func(i, j int) bool { return cellString(occupied[i]) < cellString(occupied[j]) })

	// occupiedIndex gives every occupied cell a dense slot so per-center
	// membership can be tracked with a Bitset instead of a nested map.
	occupiedIndex := make(map[hexgrid.Cell]int, len(occupied))
	for i, h := range occupied {
		occupiedIndex[h] = i
	}

	byCenter := make(map[hexgrid.Cell][]hexgrid.Cell)
	centerOrder := make([]hexgrid.Cell, 0)
	seen := make(map[hexgrid.Cell]*collections.Bitset)
	for _, h := range occupied {
		hi := occupiedIndex[h]
		for _, n := range oc.grid.OneRing(h) {
			bs, ok := seen[n]
			if !ok {
				bs = collections.NewBitset(len(occupied))
				seen[n] = bs
				centerOrder = append(centerOrder, n)
			}
			if !bs.Test(hi) {
				bs.Set(hi)
				byCenter[n] = append(byCenter[n], h)
			}
		}
	}

	overlaps := make([]Overlap, 0, len(byCenter))
	for _, center := range centerOrder {
		members := byCenter[center]
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return cellString(members[i]) < cellString(members[j]) })
		overlaps = append(overlaps, Overlap{Center: center, Members: members})
	}

	sort.Slice(overlaps, func(i, j int) bool {
		if len(overlaps[i].Members) != len(overlaps[j].Members) {
			return len(overlaps[i].Members) < len(overlaps[j].Members)
		}
		return overlaps[i].key() < overlaps[j].key()
	})
	return overlaps
}

// Combined folds the live CellState of every member together into one
// non-destructive view, read fresh off run so a member cleared by an
// earlier overlap in the same pass reports empty.
func (o Overlap) Combined(run *AnonRun) *CellState {
	states := make([]*CellState, len(o.Members))
	for i, h := range o.Members {
		states[i] = run.CellAt(h)
	}
	return Combine(states...)
}

// Satisfies reports whether combined already proves K-anonymity for the
// given K under the given mode: loc-level counts free rows, id-level
// counts distinct sampled ids.
func Satisfies(combined *CellState, k int, locLevel bool) bool {
	if locLevel {
		return len(combined.Free) >= k
	}
	return combined.IDCount() >= k
}

package anon

import "github.com/perf-analysis/internal/anon/hexgrid"

// Core is a designated representative row for a cluster.
type Core struct {
	// Index is the row id every member of this cluster adopts.
	Index int
	// Precision is the precision at which this core was created
	// (current_p - 1 in the descent that produced it).
	Precision int
	// Anchor is the occupied cell whose free pool supplied the
	// representative row.
	Anchor hexgrid.Cell
	// DotLevel records whether the core was promoted under loc-level
	// (dot-level) rules. Debug-only.
	DotLevel bool
	// Outlier records whether this core was minted by FinalizeOutliers —
	// a last-resort fold that never proved K-anonymity — as opposed to
	// createCore, which only ever fires once Satisfies has passed.
	Outlier bool
}

// CellState is the per-cell bag of free members, established cores, and a
// bounded sampled-id set. It forms a monoid under Combine: Empty is the
// identity, and Combine is associative because it is pure concatenation /
// bounded union with no cross-cell bookkeeping.
type CellState struct {
	Free  []int
	Cores []Core
	ids   map[string]struct{}

	// softMaxIDs bounds the size of ids. Once len(ids) reaches this bound,
	// further additions are skipped: a successful K-anonymity check only
	// needs len(ids) >= K, so once K distinct ids are observable the exact
	// count stops mattering. This keeps id tracking O(K) per cell instead
	// of O(members).
	softMaxIDs int
}

// NewCellState returns an empty CellState with the given soft cap on the
// tracked id set. softMaxIDs is always K for this engine.
func NewCellState(softMaxIDs int) *CellState {
	return &CellState{ids: make(map[string]struct{}), softMaxIDs: softMaxIDs}
}

// AppendFree adds a free row index and its entity id to the cell.
func (c *CellState) AppendFree(rowIndex int, id string) {
	c.Free = append(c.Free, rowIndex)
	if len(c.ids) < c.softMaxIDs {
		c.ids[id] = struct{}{}
	}
}

// AppendCore records a newly created core anchored at this cell.
func (c *CellState) AppendCore(core Core) {
	c.Cores = append(c.Cores, core)
}

// ClearFree drops both the free list and the id set, leaving cores intact.
// Called once a cell's free members have been accounted for by a cluster,
// so they are never reassigned by a later overlap at the same precision.
func (c *CellState) ClearFree() {
	c.Free = nil
	c.ids = make(map[string]struct{}, c.softMaxIDs)
}

// IDCount returns the number of distinct ids observed so far, bounded by
// softMaxIDs. Tests must not assert this equals the true unique count —
// only that it is >= K whenever K distinct ids are actually present.
func (c *CellState) IDCount() int {
	return len(c.ids)
}

// HasID reports whether id has been recorded (subject to the same soft
// cap as IDCount).
func (c *CellState) HasID(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Combine returns a new CellState holding the non-destructive union of c
// and o: free and cores are concatenated preserving order, and ids are
// unioned up to the largest soft cap among the inputs. Neither input is
// mutated, so a combined "view" can be built over an overlap without
// touching the original per-cell state.
func Combine(states ...*CellState) *CellState {
	cap := 0
	for _, s := range states {
		if s != nil && s.softMaxIDs > cap {
			cap = s.softMaxIDs
		}
	}
	out := NewCellState(cap)
	for _, s := range states {
		if s == nil {
			continue
		}
		out.Free = append(out.Free, s.Free...)
		out.Cores = append(out.Cores, s.Cores...)
		if len(out.ids) < out.softMaxIDs {
			for id := range s.ids {
				if len(out.ids) >= out.softMaxIDs {
					break
				}
				out.ids[id] = struct{}{}
			}
		}
	}
	return out
}

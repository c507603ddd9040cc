package anon

import (
	"sort"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/utils"
)

// AnonRun holds the mutable state of a single anonymization pass: the
// table under protection, the per-cell bags at the current precision, and
// the row -> core aliasing forest that records which rows have already
// been folded into a cluster.
//
// The aliasing forest never grows deeper than one hop: once a row is
// aliased to a core, that core is never itself aliased to another core.
// Cores are permanent once created, so alias chains cannot lengthen.
type AnonRun struct {
	grid  hexgrid.Grid
	table *Table
	k     int

	// Logger, if set, receives one line per precision transition the
	// descent makes. Nil means silent, which is the default: Resolve
	// never sets it, only cmd/cli's Loggable wiring does.
	Logger utils.Logger

	cells map[hexgrid.Cell]*CellState
	// alias[i] == i means row i is still free (unclustered), unless i has
	// itself been promoted to a core (see coreCell).
	// alias[i] == j, j != i, means row i now reports as core row j.
	alias []int
	// precisionOf[i] is the precision at which row i's current cell
	// membership (free or core) was established. Debug provenance only.
	precisionOf []int

	// coreCell/corePrecision/coreDotLevel/coreOutlier record, for every
	// row index that was promoted to a core, the cell it was anchored
	// at, the precision of that fold, whether the fold was a loc-level
	// fallback, and whether the core was minted as a genuine K-anonymous
	// cluster or as a last-resort outlier fold. Rows look these up
	// through CoreOf to find their reported coordinates and safety flags.
	coreCell      map[int]hexgrid.Cell
	corePrecision map[int]int
	coreDotLevel  map[int]bool
	coreIDCount   map[int]int
	coreOutlier   map[int]bool
}

// NewAnonRun builds a run over table for the given K. softMaxIDs for every
// CellState is K: a cell only needs to prove K distinct ids, never more.
func NewAnonRun(grid hexgrid.Grid, table *Table, k int) *AnonRun {
	alias := make([]int, table.Len())
	precisionOf := make([]int, table.Len())
	for i := range alias {
		alias[i] = i
	}
	return &AnonRun{
		grid:          grid,
		table:         table,
		k:             k,
		cells:         make(map[hexgrid.Cell]*CellState),
		alias:         alias,
		precisionOf:   precisionOf,
		coreCell:      make(map[int]hexgrid.Cell),
		corePrecision: make(map[int]int),
		coreDotLevel:  make(map[int]bool),
		coreIDCount:   make(map[int]int),
		coreOutlier:   make(map[int]bool),
	}
}

// SetCore records the anchor cell, precision, loc-level flag, distinct-id
// count, and outlier status observed at fold time for a newly minted core
// index. outlier is true only for cores minted by FinalizeOutliers — a
// last-resort fold that never proved K-anonymity — and false for every
// core createCore mints from an overlap or self-sufficient cell that did.
// Called once per core by the descender, before the cell's id set is
// cleared.
func (r *AnonRun) SetCore(core int, cell hexgrid.Cell, precision int, dotLevel bool, idCount int, outlier bool) {
	r.coreCell[core] = cell
	r.corePrecision[core] = precision
	r.coreDotLevel[core] = dotLevel
	r.coreIDCount[core] = idCount
	r.coreOutlier[core] = outlier
}

// ReportedCell returns the cell a row's final core was anchored at, the
// distinct-id count observed when that core was established, and whether
// the fold was a genuine cluster or a last-resort outlier fold. If i was
// never folded into a core (should not happen once a run completes), it
// returns i's own last-known cell at its recorded precision and reports
// it as an outlier.
func (r *AnonRun) ReportedCell(i int) (cell hexgrid.Cell, precision int, dotLevel bool, idCount int, outlier bool) {
	core := r.CoreOf(i)
	if cell, ok := r.coreCell[core]; ok {
		return cell, r.corePrecision[core], r.coreDotLevel[core], r.coreIDCount[core], r.coreOutlier[core]
	}
	row := r.table.Rows[i]
	return r.grid.CellOf(row.Lat, row.Lon, r.precisionOf[i]), r.precisionOf[i], false, 0, true
}

// CoreCount returns the number of cores minted so far in this run.
func (r *AnonRun) CoreCount() int { return len(r.coreCell) }

// IsFree reports whether row i has not yet been folded into a core. A core
// row aliases itself but is not free.
func (r *AnonRun) IsFree(i int) bool {
	if _, isCore := r.coreCell[i]; isCore {
		return false
	}
	return r.alias[i] == i
}

// CoreOf returns the row index every consumer should treat as i's
// location: i itself if still free, or the core row it was aliased to.
func (r *AnonRun) CoreOf(i int) int { return r.alias[i] }

// Precision returns the precision at which row i's current state was set.
func (r *AnonRun) Precision(i int) int { return r.precisionOf[i] }

// Alias folds row i into core, recording the precision at which the fold
// happened. core is the row index of an existing core or of the row about
// to become one; its own alias entry points at itself.
func (r *AnonRun) Alias(i, core, precision int) {
	r.alias[i] = core
	r.precisionOf[i] = precision
}

// CellAt returns the CellState for h, creating an empty one on first
// touch.
func (r *AnonRun) CellAt(h hexgrid.Cell) *CellState {
	cs, ok := r.cells[h]
	if !ok {
		cs = NewCellState(r.k)
		r.cells[h] = cs
	}
	return cs
}

// Seed places every still-free row into its covering cell at precision p
// and records p as that row's current precision. Called once at the run's
// starting (finest) precision.
func (r *AnonRun) Seed(p int) {
	r.cells = make(map[hexgrid.Cell]*CellState)
	for i, row := range r.table.Rows {
		if !r.IsFree(i) {
			continue
		}
		h := r.grid.CellOf(row.Lat, row.Lon, p)
		r.CellAt(h).AppendFree(i, row.ID)
		r.precisionOf[i] = p
	}
}

// CoarsenTo reassigns every still-free row from its current (finer) cell
// to its ancestor at precision p, and carries each cell's already-minted
// cores up to that same ancestor so a later pass can still attach to
// them via MixedDistance even though they were created at a finer
// precision. A cell contributes nothing to the coarser map only once it
// has neither free rows nor cores left to carry.
func (r *AnonRun) CoarsenTo(p int) {
	next := make(map[hexgrid.Cell]*CellState)
	for h, cs := range r.cells {
		if len(cs.Free) == 0 && len(cs.Cores) == 0 {
			continue
		}
		parent := r.grid.Parent(h, p)
		dst, ok := next[parent]
		if !ok {
			dst = NewCellState(r.k)
			next[parent] = dst
		}
		for _, i := range cs.Free {
			dst.AppendFree(i, r.table.Rows[i].ID)
			r.precisionOf[i] = p
		}
		dst.Cores = append(dst.Cores, cs.Cores...)
	}
	r.cells = next
}

// Occupied returns the cells that currently hold at least one free row,
// in map iteration order. Callers that need determinism must sort the
// result themselves (by cellString, as the descender does).
func (r *AnonRun) Occupied() []hexgrid.Cell {
	out := make([]hexgrid.Cell, 0, len(r.cells))
	for h, cs := range r.cells {
		if len(cs.Free) > 0 {
			out = append(out, h)
		}
	}
	return out
}

// FinalizeOutliers folds every row still free at p into its own cell's
// first free row: no K-check, no neighborhood borrowing, just a
// last-resort representative so no row is ever left unmapped. Called
// once, after the descent loop has exhausted its precision band.
func (r *AnonRun) FinalizeOutliers(p int) {
	cells := r.Occupied()
	sort.Slice(cells, func(i, j int) bool { return cellString(cells[i]) < cellString(cells[j]) })
	for _, h := range cells {
		cs := r.CellAt(h)
		if len(cs.Free) == 0 {
			continue
		}
		core := cs.Free[0]
		idCount := cs.IDCount()
		for _, i := range cs.Free {
			r.Alias(i, core, p)
		}
		cs.AppendCore(Core{Index: core, Precision: p, Anchor: h, DotLevel: true, Outlier: true})
		r.SetCore(core, h, p, true, idCount, true)
		cs.ClearFree()
	}
}

// FreeRows returns the row indices not yet folded into any core, in
// ascending index order.
func (r *AnonRun) FreeRows() []int {
	out := make([]int, 0)
	for i := range r.alias {
		if r.IsFree(i) {
			out = append(out, i)
		}
	}
	return out
}

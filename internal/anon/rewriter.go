package anon

import (
	"fmt"

	"github.com/perf-analysis/internal/anon/hexgrid"
)

// RowRewriter turns a completed AnonRun back into output rows, either the
// production form (coordinates replaced by their cluster's cell center,
// nothing else) or the debug form (a full provenance table alongside the
// rewritten coordinates).
type RowRewriter struct {
	grid hexgrid.Grid
}

// NewRowRewriter returns a rewriter bound to grid.
func NewRowRewriter(grid hexgrid.Grid) RowRewriter {
	return RowRewriter{grid: grid}
}

// Production returns a new Table with every row's lat/lon replaced by the
// centroid of the cell its cluster settled at. Ids and times are
// preserved; if the input arrived as a combined column, RawCoord carries
// the rewritten coordinate in the same "lon,lat" form.
func (rw RowRewriter) Production(run *AnonRun, table *Table) *Table {
	out := &Table{Rows: make([]Row, table.Len())}
	if len(table.RawCoord) > 0 {
		out.RawCoord = make([]string, table.Len())
	}
	for i, row := range table.Rows {
		cell, _, _, _, _ := run.ReportedCell(i)
		lat, lon := rw.grid.Center(cell)
		out.Rows[i] = Row{ID: row.ID, Lat: lat, Lon: lon, Time: row.Time}
		if out.RawCoord != nil {
			out.RawCoord[i] = fmt.Sprintf("%g,%g", lon, lat)
		}
	}
	return out
}

// DebugRow is one line of the provenance table: the rewritten coordinate
// alongside the original, the precision at which the row's cluster was
// settled, and one-hot flags for which of the three protection outcomes
// applied.
type DebugRow struct {
	ID   string
	Time string

	Lat1, Lon1 float64 // original
	Lat2, Lon2 float64 // rewritten

	CenterP int // precision of the cell the cluster settled at
	LineP   int // precision at which this row was aliased (== CenterP)

	IDSafe  bool // clustered at id level, K distinct entities proven
	LocSafe bool // clustered at loc level only (dot-level fallback)
	Unsafe  bool // never reached K; reported at the coarsest fallback cell
}

// Debug returns the full 11-column provenance table for run.
func (rw RowRewriter) Debug(run *AnonRun, table *Table, k int) []DebugRow {
	out := make([]DebugRow, table.Len())
	for i, row := range table.Rows {
		cell, p, dotLevel, _, outlier := run.ReportedCell(i)
		lat, lon := rw.grid.Center(cell)

		// Safety is a property of how the core was minted, not of the
		// id count sampled at fold time: a genuine loc-level cluster
		// can easily have idCount < k (all rows share one entity), and
		// an outlier fold can coincidentally sample k distinct ids.
		// createCore only ever fires once Satisfies has proven K, so
		// !outlier alone is sufficient here.
		idSafe := !dotLevel && !outlier
		locSafe := dotLevel && !outlier
		unsafe := outlier

		out[i] = DebugRow{
			ID:      row.ID,
			Time:    row.Time,
			Lat1:    row.Lat,
			Lon1:    row.Lon,
			Lat2:    lat,
			Lon2:    lon,
			CenterP: p,
			LineP:   p,
			IDSafe:  idSafe,
			LocSafe: locSafe,
			Unsafe:  unsafe,
		}
	}
	return out
}

package anon

// Row is one record under anonymization: a stable id, a timestamp, and a
// coordinate pair. Rows are addressed by position throughout the engine —
// CellState.Free and Core.Index are indices into the Table's Rows slice,
// never copies.
type Row struct {
	ID  string
	Lat float64
	Lon float64
	// Time is carried through unchanged; the engine never reads it, but
	// the debug rewriter reports it per row.
	Time string
}

// Table is the minimal tabular carrier the engine operates on: a flat
// slice of rows plus, for the combined-column entry point, the raw
// "lon,lat" text each row was parsed from.
type Table struct {
	Rows []Row

	// RawCoord holds the original "lon,lat" string for each row when the
	// table was built via ParseOneColumn. Empty when rows arrived through
	// separate lat/lon columns. Its presence makes RowRewriter.Production
	// write that column back in the same combined form it was given.
	RawCoord []string
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Rows) }

// NewTable builds a Table from parallel id/lat/lon/time slices of equal
// length. Used by the separate-column entry point.
func NewTable(ids []string, lats, lons []float64, times []string) *Table {
	rows := make([]Row, len(ids))
	for i := range ids {
		rows[i] = Row{ID: ids[i], Lat: lats[i], Lon: lons[i], Time: times[i]}
	}
	return &Table{Rows: rows}
}

// Package tableio reads and writes anon.Table values as CSV. No
// dataframe or CSV library appears anywhere in the retrieved example
// corpus, so this is one of the few places the engine falls back to the
// standard library: encoding/csv is the narrowest tool that does the job,
// and there is nothing in the pack to reach for instead.
package tableio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/perf-analysis/internal/anon"
	"github.com/perf-analysis/pkg/errors"
)

var header = []string{"id", "lat", "lon", "time"}
var oneColHeader = []string{"id", "lonlat", "time"}

// Write encodes table to w as CSV, using the combined "lon,lat" column
// form when table was built via ParseOneColumn and the separate-column
// form otherwise.
func Write(w io.Writer, table *anon.Table) error {
	cw := csv.NewWriter(w)
	oneCol := len(table.RawCoord) == table.Len() && table.Len() > 0

	if oneCol {
		if err := cw.Write(oneColHeader); err != nil {
			return err
		}
	} else {
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for i, row := range table.Rows {
		var record []string
		if oneCol {
			record = []string{row.ID, table.RawCoord[i], row.Time}
		} else {
			record = []string{
				row.ID,
				strconv.FormatFloat(row.Lat, 'g', -1, 64),
				strconv.FormatFloat(row.Lon, 'g', -1, 64),
				row.Time,
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses CSV from r into a Table. It accepts either this package's
// separate-column header or its combined-column header.
func Read(r io.Reader) (*anon.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "read csv", err)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeEmptyInput, "empty csv input")
	}

	head := records[0]
	rows := records[1:]
	if len(head) >= 2 && head[1] == "lonlat" {
		ids := make([]string, len(rows))
		coords := make([]string, len(rows))
		times := make([]string, len(rows))
		for i, rec := range rows {
			ids[i], coords[i], times[i] = rec[0], rec[1], rec[2]
		}
		return anon.ParseOneColumn(ids, coords, times)
	}

	ids := make([]string, len(rows))
	lats := make([]float64, len(rows))
	lons := make([]float64, len(rows))
	times := make([]string, len(rows))
	for i, rec := range rows {
		lat, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errors.Wrap(errors.CodeMalformedCoordinate, "parse lat", err)
		}
		lon, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, errors.Wrap(errors.CodeMalformedCoordinate, "parse lon", err)
		}
		ids[i], lats[i], lons[i], times[i] = rec[0], lat, lon, rec[3]
	}
	return anon.NewTable(ids, lats, lons, times), nil
}

package anon

import (
	"context"
	"strconv"
	"strings"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/utils"
)

// Strict is the most conservative variant: it descends entirely at
// id-level precision down to MinP, then always performs one additional
// loc-level pass at the floor so every row — however isolated — ends up
// in some cluster, never merely dropped.
type Strict struct {
	grid      hexgrid.Grid
	descender PrecisionDescender
	logger    utils.Logger
}

// NewStrict builds a Strict variant over grid.
func NewStrict(grid hexgrid.Grid) Strict {
	return Strict{grid: grid, descender: NewPrecisionDescender(NewOverlapClusterer(grid))}
}

func (Strict) Name() string { return "strict" }

func (Strict) Overlap() bool { return true }

// LocLevelAt is true exactly at the floor: Strict always performs its
// final fold there, whether or not id-level clustering already finished
// the job (the extra pass is a no-op when no rows remain free).
func (Strict) LocLevelAt(p int, cfg Params) bool { return p == cfg.MinP }

// SetLogger installs l so the descent logs one line per precision
// transition. Optional: a Strict with no logger set runs silently.
func (s *Strict) SetLogger(l utils.Logger) { s.logger = l }

// Apply runs the descent over table under cfg and returns the run, which
// records the precision each row finally settled at; table itself is not
// modified.
func (s Strict) Apply(ctx context.Context, table *Table, cfg Params) (*AnonRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	run := NewAnonRun(s.grid, table, cfg.K)
	run.Logger = s.logger
	if table.Len() == 0 {
		return run, nil
	}
	s.descender.Run(ctx, run, cfg, s)
	return run, nil
}

// ApplyOneColumn is the combined-column entry point: each row's location
// arrives as a single "lon,lat" string (longitude first, matching the
// upstream convention) rather than separate lat/lon columns. The column
// is parsed into a Table, anonymized exactly as Apply would, and the
// caller is expected to rewrite that same column from the resulting run
// via RowRewriter so the combined format round-trips.
func (s Strict) ApplyOneColumn(ctx context.Context, ids []string, coords []string, times []string, cfg Params) (*Table, *AnonRun, error) {
	table, err := ParseOneColumn(ids, coords, times)
	if err != nil {
		return nil, nil, err
	}
	run, err := s.Apply(ctx, table, cfg)
	if err != nil {
		return nil, nil, err
	}
	return table, run, nil
}

// ParseOneColumn builds a Table from a combined "lon,lat" coordinate
// column, preserving the raw text of each entry so it can be rewritten in
// the same form later.
func ParseOneColumn(ids []string, coords []string, times []string) (*Table, error) {
	rows := make([]Row, len(ids))
	raw := make([]string, len(ids))
	for i, c := range coords {
		lon, lat, err := parseLonLat(c)
		if err != nil {
			return nil, err
		}
		rows[i] = Row{ID: ids[i], Lat: lat, Lon: lon, Time: times[i]}
		raw[i] = c
	}
	return &Table{Rows: rows, RawCoord: raw}, nil
}

func parseLonLat(s string) (lon, lat float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, newMalformedCoordinate(s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, newMalformedCoordinate(s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, newMalformedCoordinate(s)
	}
	return lon, lat, nil
}

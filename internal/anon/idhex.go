package anon

import (
	"context"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/utils"
)

// IdHex descends at id-level precision down to a configurable break
// point (cfg.BreakP). From that precision on, it pools by free rows
// (loc-level) instead of distinct ids, and keeps descending that way down
// to MinP while any row is still free.
type IdHex struct {
	grid      hexgrid.Grid
	descender PrecisionDescender
	logger    utils.Logger
}

// NewIdHex builds an IdHex variant over grid.
func NewIdHex(grid hexgrid.Grid) IdHex {
	return IdHex{grid: grid, descender: NewPrecisionDescender(NewOverlapClusterer(grid))}
}

func (IdHex) Name() string { return "idhex" }

// Overlap is always true: IdHex never drops neighborhood borrowing, it
// only switches the K-pool it checks once the descent crosses BreakP.
func (IdHex) Overlap() bool { return true }

// LocLevelAt triggers exactly when the descent reaches the break point.
func (IdHex) LocLevelAt(p int, cfg Params) bool { return p == cfg.BreakP }

// SetLogger installs l so the descent logs one line per precision
// transition. Optional: an IdHex with no logger set runs silently.
func (h *IdHex) SetLogger(l utils.Logger) { h.logger = l }

// Apply runs the descent over table under cfg and returns the run; table
// itself is not modified.
func (h IdHex) Apply(ctx context.Context, table *Table, cfg Params) (*AnonRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BreakP < cfg.MinP || cfg.BreakP > cfg.MaxP {
		return nil, newInvalidBreakP(cfg)
	}
	run := NewAnonRun(h.grid, table, cfg.K)
	run.Logger = h.logger
	if table.Len() == 0 {
		return run, nil
	}
	h.descender.Run(ctx, run, cfg, h)
	return run, nil
}

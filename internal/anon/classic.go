package anon

import (
	"context"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/utils"
)

// Classic mirrors the original per-cell-only algorithm: no one-ring
// neighborhood borrowing at any precision, so a row only ever clusters
// with other rows that share its exact cell. Rows that can't reach K
// anywhere along the descent are folded per cell by outlier finalization
// at MinP, same as the other variants.
type Classic struct {
	grid      hexgrid.Grid
	descender PrecisionDescender
	logger    utils.Logger
}

// NewClassic builds a Classic variant over grid.
func NewClassic(grid hexgrid.Grid) Classic {
	return Classic{grid: grid, descender: NewPrecisionDescender(NewOverlapClusterer(grid))}
}

func (Classic) Name() string { return "classic" }

func (Classic) Overlap() bool { return false }

// LocLevelAt follows the same flip rule as Strict: one loc-level pass at
// the floor precision. Rows whose cell still holds fewer than K rows stay
// free after that pass and are left to outlier finalization.
func (Classic) LocLevelAt(p int, cfg Params) bool { return p == cfg.MinP }

// SetLogger installs l so the descent logs one line per precision
// transition. Optional: a Classic with no logger set runs silently.
func (c *Classic) SetLogger(l utils.Logger) { c.logger = l }

// Apply runs the descent over table under cfg and returns the run; table
// itself is not modified. Unlike the original implementation this always
// returns its result alongside any error — the original's production path silently returned nil on
// success while its debug path returned a value, an asymmetry this port
// does not reproduce.
func (c Classic) Apply(ctx context.Context, table *Table, cfg Params) (*AnonRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	run := NewAnonRun(c.grid, table, cfg.K)
	run.Logger = c.logger
	if table.Len() == 0 {
		return run, nil
	}
	c.descender.Run(ctx, run, cfg, c)
	return run, nil
}

package anon

import (
	"context"
	"reflect"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/utils"
)

// Mode selects which of the three precision-descent strategies an
// Operation runs.
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeIdHex   Mode = "idhex"
	ModeClassic Mode = "classic"
)

// Operation is a named, comparable configuration for one anonymization
// pass: a mode plus its working point. Two Operations with the same mode
// and Params describe the same transformation regardless of identity,
// which lets a caller deduplicate repeated operations in a pipeline.
type Operation struct {
	Mode   Mode
	Params Params
	// Field names the column an operation targets when it is one step of
	// a larger multi-field pipeline. Empty for single-table runs.
	Field string
}

// Equal reports whether two operations describe the same transformation.
//
// This falls back to reflect.DeepEqual rather than a third-party
// structural-equality library: Params and Operation are plain comparable
// value structs (no maps, funcs, or pointers), so DeepEqual is exact here
// and pulling in a library for it would add a dependency with nothing
// left for it to do.
func (o Operation) Equal(other Operation) bool {
	return reflect.DeepEqual(o, other)
}

// Engine is the common surface Strict, IdHex, and Classic all implement:
// validate-then-descend over a table, producing the run a RowRewriter
// turns into output. ctx carries the caller's tracing context: each
// precision pass is recorded as a child span when a TracerProvider has
// been installed (see pkg/telemetry), and as a no-op otherwise.
type Engine interface {
	Apply(ctx context.Context, table *Table, cfg Params) (*AnonRun, error)
}

// Loggable is implemented by every Engine. Wiring a logger is optional:
// an Engine resolved from Operation but never handed one simply logs
// nothing, same as before this existed.
type Loggable interface {
	SetLogger(l utils.Logger)
}

// Resolve returns the Engine o.Mode names, bound to grid.
func (o Operation) Resolve(grid hexgrid.Grid) (Engine, error) {
	switch o.Mode {
	case ModeStrict:
		s := NewStrict(grid)
		return &s, nil
	case ModeIdHex:
		h := NewIdHex(grid)
		return &h, nil
	case ModeClassic:
		c := NewClassic(grid)
		return &c, nil
	default:
		return nil, newUnknownMode(o.Mode)
	}
}

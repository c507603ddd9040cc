package anon

import (
	"fmt"

	"github.com/perf-analysis/pkg/errors"
)

// newMalformedCoordinate reports a combined-column entry that could not be
// split into a "lon,lat" pair.
func newMalformedCoordinate(raw string) error {
	return errors.New(errors.CodeMalformedCoordinate, fmt.Sprintf("malformed coordinate column value: %q", raw))
}

// newInvalidBreakP reports an IdHex break point outside the run's own
// precision band.
func newInvalidBreakP(cfg Params) error {
	return errors.New(errors.CodeInvalidPrecision, fmt.Sprintf("break_p %d must be between min_p %d and max_p %d", cfg.BreakP, cfg.MinP, cfg.MaxP))
}

// newUnknownMode reports an Operation naming a mode with no registered
// Engine.
func newUnknownMode(mode Mode) error {
	return errors.New(errors.CodeInvalidInput, fmt.Sprintf("unknown anonymization mode %q", mode))
}

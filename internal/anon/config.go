package anon

import "github.com/perf-analysis/pkg/errors"

// Params is the validated working point for one anonymization run: the
// K-anonymity threshold and the precision band the descender sweeps
// between.
type Params struct {
	// K is the minimum number of distinct entities (or, failing that,
	// rows) any surviving cluster must represent.
	K int
	// MaxP is the finest precision the descender starts from.
	MaxP int
	// MinP is the coarsest precision the descender will fall back to
	// before folding any still-free rows as outliers.
	MinP int
	// BreakP is IdHex's id-level/loc-level switch point. Unused by
	// Strict and Classic.
	BreakP int
}

// Validate enforces the bounds the original system has always enforced:
// K must be positive, both precisions must be valid H3-style resolutions
// (0..14 inclusive), and the band must not be inverted.
func (p Params) Validate() error {
	if p.K < 1 {
		return errors.New(errors.CodeInvalidK, "K must be 1 or greater")
	}
	if p.MinP < 0 || p.MinP > 14 {
		return errors.New(errors.CodeInvalidPrecision, "min_p must be from 0 to 14")
	}
	if p.MaxP < 0 || p.MaxP > 14 {
		return errors.New(errors.CodeInvalidPrecision, "max_p must be from 0 to 14")
	}
	if p.MaxP < p.MinP {
		return errors.New(errors.CodeInvalidBounds, "max_p must be greater than or equal to min_p")
	}
	return nil
}

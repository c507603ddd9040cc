// Package hexgrid adapts the external H3 hierarchical hex-grid library to
// the mixed-precision operations the anonymization engine needs.
package hexgrid

import (
	h3 "github.com/isbang/h3go"
)

// Cell is an opaque handle to one hex cell at some precision.
type Cell = h3.H3Index

// Grid is the small surface the engine needs from a hierarchical hex-grid
// library. H3Grid is the production adapter over h3go; tests substitute a
// fake that doesn't need the real library's coordinate math.
type Grid interface {
	CellOf(lat, lon float64, p int) Cell
	Parent(h Cell, p int) Cell
	OneRing(h Cell) []Cell
	Center(h Cell) (lat, lon float64)
	CenterChild(h Cell, pTarget int) Cell
	MixedDistance(a, b Cell, pHigh int) int
}

// H3Grid wraps the h3go bindings behind Grid. It holds no state of its
// own; the underlying library is pure and reentrant, so a single H3Grid
// value is safe to share across AnonRun invocations.
type H3Grid struct{}

// New returns a ready-to-use Grid backed by h3go.
func New() H3Grid { return H3Grid{} }

// CellOf returns the cell covering (lat, lon) at precision p.
func (H3Grid) CellOf(lat, lon float64, p int) Cell {
	return h3.FromGeo(lat, lon, p)
}

// Parent coarsens h to its ancestor at precision p.
func (H3Grid) Parent(h Cell, p int) Cell {
	return h.Parent(p)
}

// OneRing returns h together with its six same-precision neighbors (the
// "flower" of h). For pentagon cells fewer than 7 entries may be distinct;
// callers must not assume exactly 7 unique cells.
func (H3Grid) OneRing(h Cell) []Cell {
	return h.KRing(1)
}

// Center returns the (lat, lon) of h's cell centroid, the coordinate pair
// every row folded into that cell reports after anonymization.
func (H3Grid) Center(h Cell) (lat, lon float64) {
	g := h.ToGeo()
	return g.Latitude, g.Longitude
}

// CenterChild refines h to its canonical descendant at precision pTarget.
func (H3Grid) CenterChild(h Cell, pTarget int) Cell {
	return h.CenterChild(pTarget)
}

// MixedDistance compares two cells that may live at different precisions.
// The library's own distance function only operates within a single
// precision, so both cells are first refined to pHigh via CenterChild.
// pHigh must be the highest precision among the cells under comparison —
// refining loses no information since center-child is deterministic and
// monotonic in precision.
func (g H3Grid) MixedDistance(a, b Cell, pHigh int) int {
	if a == b {
		return 0
	}
	ra, rb := g.CenterChild(a, pHigh), g.CenterChild(b, pHigh)
	return ra.DistanceTo(rb)
}

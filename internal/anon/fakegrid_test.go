package anon

import (
	"math"

	"github.com/perf-analysis/internal/anon/hexgrid"
)

// fakeGrid is a synthetic hierarchical grid used only by this package's
// tests: a square (not hexagonal) quadtree-style bucketing of lat/lon
// that satisfies hexgrid.Grid's contract — coarser precisions halve
// resolution, CenterChild refines deterministically, and OneRing returns
// a cell's Moore neighborhood — without depending on the real H3 library
// or its exact geometry. Cluster-assignment tests only rely on these
// structural guarantees, never on literal H3 cell ids.
type fakeGrid struct{}

const (
	coordBits = 28
	coordBias = int64(1) << (coordBits - 1)
	coordMask = uint64(1)<<coordBits - 1
)

func scaleOf(p int) float64 { return math.Ldexp(1, p) }

func encodeCell(p int, x, y int64) hexgrid.Cell {
	ux := uint64(x + coordBias)
	uy := uint64(y + coordBias)
	v := (uint64(p) << (2 * coordBits)) | (ux << coordBits) | uy
	return hexgrid.Cell(v)
}

func decodeCell(h hexgrid.Cell) (p int, x, y int64) {
	v := uint64(h)
	uy := v & coordMask
	ux := (v >> coordBits) & coordMask
	p = int(v >> (2 * coordBits))
	x = int64(ux) - coordBias
	y = int64(uy) - coordBias
	return
}

func (fakeGrid) CellOf(lat, lon float64, p int) hexgrid.Cell {
	s := scaleOf(p)
	return encodeCell(p, int64(math.Floor(lon*s)), int64(math.Floor(lat*s)))
}

func (fakeGrid) Parent(h hexgrid.Cell, p int) hexgrid.Cell {
	curP, x, y := decodeCell(h)
	if p >= curP {
		return encodeCell(p, x, y)
	}
	shift := uint(curP - p)
	return encodeCell(p, x>>shift, y>>shift)
}

func (fakeGrid) OneRing(h hexgrid.Cell) []hexgrid.Cell {
	p, x, y := decodeCell(h)
	out := make([]hexgrid.Cell, 0, 9)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			out = append(out, encodeCell(p, x+dx, y+dy))
		}
	}
	return out
}

func (fakeGrid) Center(h hexgrid.Cell) (lat, lon float64) {
	p, x, y := decodeCell(h)
	s := scaleOf(p)
	return (float64(y) + 0.5) / s, (float64(x) + 0.5) / s
}

func (g fakeGrid) CenterChild(h hexgrid.Cell, pTarget int) hexgrid.Cell {
	p, x, y := decodeCell(h)
	if pTarget <= p {
		return g.Parent(h, pTarget)
	}
	shift := uint(pTarget - p)
	half := int64(1) << (shift - 1)
	return encodeCell(pTarget, (x<<shift)+half, (y<<shift)+half)
}

func (g fakeGrid) MixedDistance(a, b hexgrid.Cell, pHigh int) int {
	if a == b {
		return 0
	}
	ra, rb := g.CenterChild(a, pHigh), g.CenterChild(b, pHigh)
	_, xa, ya := decodeCell(ra)
	_, xb, yb := decodeCell(rb)
	dx, dy := xa-xb, ya-yb
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return int(dx)
	}
	return int(dy)
}

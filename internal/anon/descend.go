package anon

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/perf-analysis/internal/anon/hexgrid"
	"github.com/perf-analysis/pkg/collections"
)

var descendTracer = otel.Tracer("hexanon/descend")

// Variant controls the precision-descent policy that differs between the
// three published algorithms (Strict, IdHex, Classic) while the descent
// skeleton itself — seed, coarsen, cluster, repeat — stays shared.
type Variant interface {
	// Name identifies the variant for logging and debug provenance.
	Name() string
	// Overlap reports whether this variant clusters via one-ring
	// neighborhood overlaps at all. Classic never does (per-cell only);
	// Strict and IdHex always do, toggling only the K-pool they check
	// (ids vs free rows) as the descent crosses LocLevelAt.
	Overlap() bool
	// LocLevelAt reports whether, having just processed precision p
	// under id-level rules, the descender should flip permanently to
	// loc-level (dot-level) pooling and run one more pass at this same
	// precision before deciding whether to coarsen further.
	LocLevelAt(p int, cfg Params) bool
}

// PrecisionDescender runs the shared id-level-then-loc-level descent loop
// any Variant plugs into. It owns no state of its own beyond the clusterer
// it was built with, so one instance can drive many runs.
type PrecisionDescender struct {
	clusterer OverlapClusterer
}

// NewPrecisionDescender returns a descender bound to clusterer.
func NewPrecisionDescender(clusterer OverlapClusterer) PrecisionDescender {
	return PrecisionDescender{clusterer: clusterer}
}

// Run drives run from cfg.MaxP down to cfg.MinP under variant's policy,
// returning the final precision reached and whether the last pass that
// touched a still-free row ran under loc-level (dot-level) pooling.
//
// Cells are keyed one level finer than the core precision a pass can
// mint: the loop's currentP starts at cfg.MaxP+1 and every cell lookup
// happens there, while cores are recorded at corePrecision = currentP-1.
// This is intentional, not an off-by-one: it lets the very first pass
// produce cores at precision cfg.MaxP by comparing occupancy one level
// finer than that, exactly the offset the one-ring overlap decision
// needs to tell genuinely distinct clusters apart at cfg.MaxP itself.
func (d PrecisionDescender) Run(ctx context.Context, run *AnonRun, cfg Params, variant Variant) (finalP int, dotLevel bool) {
	locLevel := false
	currentP := cfg.MaxP + 1

	for {
		corePrecision := currentP - 1

		ctx, span := descendTracer.Start(ctx, "hexanon.descend.pass")
		span.SetAttributes(
			attribute.Int("precision", corePrecision),
			attribute.Bool("loc_level", locLevel),
			attribute.String("variant", variant.Name()),
		)

		if currentP == cfg.MaxP+1 {
			run.Seed(currentP)
		} else {
			run.CoarsenTo(currentP)
		}

		coresBefore := run.CoreCount()
		d.cluster(run, cfg, corePrecision, locLevel, variant.Overlap())

		if !locLevel && variant.LocLevelAt(corePrecision, cfg) {
			locLevel = true
			d.cluster(run, cfg, corePrecision, locLevel, variant.Overlap())
		}

		span.SetAttributes(
			attribute.Int("free_rows", len(run.FreeRows())),
			attribute.Int("cores_created", run.CoreCount()-coresBefore),
		)
		span.End()

		if run.Logger != nil {
			run.Logger.Info("%s: precision %d settled (%d rows still free, loc_level=%v)",
				variant.Name(), corePrecision, len(run.FreeRows()), locLevel)
		}

		if len(run.FreeRows()) == 0 || corePrecision == cfg.MinP {
			finalP = corePrecision
			break
		}
		currentP--
	}

	run.FinalizeOutliers(finalP)
	return finalP, locLevel
}

func (d PrecisionDescender) cluster(run *AnonRun, cfg Params, p int, locLevel, useOverlap bool) {
	if useOverlap {
		d.clusterAtPrecision(run, cfg, p, locLevel)
	} else {
		d.clusterPerCell(run, cfg, p, locLevel)
	}
}

// clusterAtPrecision first folds any cell whose own pool already proves
// K-anonymity without borrowing from a neighbor — this is what makes
// K=1 a no-op that never merges distinct rows together, since every
// nonempty cell trivially satisfies K=1 on its own. Whatever is left
// then goes through one forward pass over the precision's overlaps
// (smallest first), folding each into a new core as soon as the borrowed
// pool can prove K-anonymity, or else attaching its free rows to the
// nearest existing core if it holds one. Overlap state is read live off run, so a
// member cleared by an earlier, smaller overlap in this same pass
// reports correctly empty to a later, larger one that shares it.
func (d PrecisionDescender) clusterAtPrecision(run *AnonRun, cfg Params, p int, locLevel bool) {
	d.foldSelfSufficientCells(run, cfg, p, locLevel)

	overlaps := d.clusterer.Build(run)
	queue := collections.NewQueue[Overlap](len(overlaps))
	for _, o := range overlaps {
		queue.Enqueue(o)
	}
	for {
		o, ok := queue.Dequeue()
		if !ok {
			break
		}
		combined := o.Combined(run)
		if len(combined.Free) == 0 {
			continue
		}
		if Satisfies(combined, cfg.K, locLevel) {
			d.createCore(run, o.Members, combined, p, locLevel)
		} else if len(combined.Cores) > 0 {
			d.attachToCore(run, o.Members, combined, p)
		}
	}
}

// foldSelfSufficientCells folds every occupied cell whose own pool already
// meets K, so a cell never waits on (or gets pulled into) a neighbor's
// overlap once it can stand on its own.
func (d PrecisionDescender) foldSelfSufficientCells(run *AnonRun, cfg Params, p int, locLevel bool) {
	cells := run.Occupied()
	sort.Slice(cells, func(i, j int) bool { return cellString(cells[i]) < cellString(cells[j]) })
	for _, h := range cells {
		cs := run.CellAt(h)
		if len(cs.Free) == 0 {
			continue
		}
		if Satisfies(cs, cfg.K, locLevel) {
			d.createCore(run, []hexgrid.Cell{h}, cs, p, locLevel)
		}
	}
}

// clusterPerCell is Classic's policy: no neighborhood borrowing, a cell
// clusters (or attaches) only against its own occupants.
func (d PrecisionDescender) clusterPerCell(run *AnonRun, cfg Params, p int, locLevel bool) {
	cells := run.Occupied()
	sort.Slice(cells, func(i, j int) bool { return cellString(cells[i]) < cellString(cells[j]) })
	for _, h := range cells {
		cs := run.CellAt(h)
		if len(cs.Free) == 0 {
			continue
		}
		if Satisfies(cs, cfg.K, locLevel) {
			d.createCore(run, []hexgrid.Cell{h}, cs, p, locLevel)
		} else if len(cs.Cores) > 0 {
			core := cs.Cores[0]
			for _, i := range cs.Free {
				run.Alias(i, core.Index, p)
			}
			cs.ClearFree()
		}
	}
}

// pickAnchor returns the member with the most free rows, first-found on
// ties (members arrive pre-sorted lexicographically, so this is
// deterministic run to run).
func pickAnchor(run *AnonRun, members []hexgrid.Cell) hexgrid.Cell {
	anchor := members[0]
	anchorFree := len(run.CellAt(anchor).Free)
	for _, h := range members[1:] {
		if f := len(run.CellAt(h).Free); f > anchorFree {
			anchor, anchorFree = h, f
		}
	}
	return anchor
}

// createCore mints a new core from the anchor member's first free row —
// an existing row index, never a synthetic id outside the table — and
// folds every free row across members onto it.
func (d PrecisionDescender) createCore(run *AnonRun, members []hexgrid.Cell, combined *CellState, p int, locLevel bool) {
	anchor := pickAnchor(run, members)
	anchorCS := run.CellAt(anchor)
	core := anchorCS.Free[0]
	idCount := combined.IDCount()

	for _, h := range members {
		cs := run.CellAt(h)
		for _, i := range cs.Free {
			run.Alias(i, core, p)
		}
	}
	anchorCS.AppendCore(Core{Index: core, Precision: p, Anchor: anchor, DotLevel: locLevel})
	run.SetCore(core, anchor, p, locLevel, idCount, false)

	for _, h := range members {
		run.CellAt(h).ClearFree()
	}
}

// attachToCore reassigns every free row across members to the existing
// core nearest the overlap's anchor, refining both to the finest
// precision among the candidate cores' anchors before comparing.
func (d PrecisionDescender) attachToCore(run *AnonRun, members []hexgrid.Cell, combined *CellState, p int) {
	anchor := pickAnchor(run, members)

	pHigh := 0
	for _, c := range combined.Cores {
		if c.Precision+1 > pHigh {
			pHigh = c.Precision + 1
		}
	}

	best := combined.Cores[0]
	bestDist := run.grid.MixedDistance(anchor, best.Anchor, pHigh)
	for _, c := range combined.Cores[1:] {
		if dist := run.grid.MixedDistance(anchor, c.Anchor, pHigh); dist < bestDist {
			best, bestDist = c, dist
		}
	}

	for _, h := range members {
		cs := run.CellAt(h)
		for _, i := range cs.Free {
			run.Alias(i, best.Index, p)
		}
	}
	for _, h := range members {
		run.CellAt(h).ClearFree()
	}
}

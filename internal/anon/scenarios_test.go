package anon

import "testing"

// These mirror spec.md §8's five named scenarios (S1-S5) qualitatively.
// fakeGrid's synthetic square grid has no claim on the literal real-world
// coordinates or exact H3 res-14 cell ids those scenarios spell out, so
// each test reproduces the scenario's *behavior* — which clusters form,
// which fallback fires — rather than its literal numbers.

// TestScenarioS1TwoDistinctIDLevelClusters: two geographically separated
// pairs, each pair holding two distinct entity ids, both reaching K=2 at
// id-level independently. No row should ever cross into the other pair's
// core.
func TestScenarioS1TwoDistinctIDLevelClusters(t *testing.T) {
	grid := fakeGrid{}
	table := NewTable(
		[]string{"1", "2", "1", "2"},
		[]float64{0, 0.1, 0.6, 0.7},
		[]float64{0, 0.1, 0.6, 0.7},
		[]string{"t", "t", "t", "t"},
	)
	cfg := Params{K: 2, MinP: 0, MaxP: 3}
	run := mustApply(t, NewStrict(grid), table, cfg)

	if run.CoreOf(0) != run.CoreOf(1) {
		t.Fatalf("expected the two nearby rows with distinct ids to share a core")
	}
	if run.CoreOf(2) != run.CoreOf(3) {
		t.Fatalf("expected the other two nearby rows with distinct ids to share a core")
	}
	if run.CoreOf(0) == run.CoreOf(2) {
		t.Fatalf("the two geographically separate pairs must not share a core")
	}
	_, _, dotLevel, _, outlier := run.ReportedCell(0)
	if dotLevel || outlier {
		t.Fatalf("each pair proves K=2 at id-level on its own; expected dotLevel=false, outlier=false")
	}
}

// TestScenarioS2KRaisedPastNaturalClusterForcesMerge: same layout as S1,
// but K=3 exceeds the 2 distinct ids any natural pairing can prove, so
// descent must continue all the way down and fold everything into one
// loc-level cluster at the floor.
func TestScenarioS2KRaisedPastNaturalClusterForcesMerge(t *testing.T) {
	grid := fakeGrid{}
	table := NewTable(
		[]string{"1", "2", "1", "2"},
		[]float64{0, 0.1, 0.6, 0.7},
		[]float64{0, 0.1, 0.6, 0.7},
		[]string{"t", "t", "t", "t"},
	)
	cfg := Params{K: 3, MinP: 0, MaxP: 3}
	run := mustApply(t, NewStrict(grid), table, cfg)

	core := run.CoreOf(0)
	for i := 1; i < table.Len(); i++ {
		if run.CoreOf(i) != core {
			t.Fatalf("raising K past the natural id diversity should force one global cluster, row %d diverged", i)
		}
	}
}

// TestScenarioS3LocLevelFallbackWhenIDLevelUnreachable: two rows share one
// entity id, so id-level K=2 can never be satisfied no matter how far the
// descent coarsens. Each row sits alone in its own cell even at the
// floor, so self-sufficiency never fires either (1 free row < K) — only
// the cross-cell one-ring overlap at the floor precision can reach K=2,
// which is exactly the loc-level fallback path this scenario tests.
func TestScenarioS3LocLevelFallbackWhenIDLevelUnreachable(t *testing.T) {
	grid := fakeGrid{}
	table := NewTable(
		[]string{"1", "1"},
		[]float64{0, 0.9},
		[]float64{0, 0.9},
		[]string{"t", "t"},
	)
	cfg := Params{K: 2, MinP: 0, MaxP: 3}
	run := mustApply(t, NewStrict(grid), table, cfg)

	if run.CoreOf(0) != run.CoreOf(1) {
		t.Fatalf("the two rows must still share one loc-level core at the floor")
	}
	_, _, dotLevel, _, _ := run.ReportedCell(0)
	if !dotLevel {
		t.Fatalf("expected the fold to be loc-level (dotLevel=true)")
	}
}

// TestScenarioS4KEqualsOneIsIdentity: K=1 never needs to merge anything —
// every row trivially satisfies K-anonymity on its own.
func TestScenarioS4KEqualsOneIsIdentity(t *testing.T) {
	grid := fakeGrid{}
	table := distinctPointsTable(5)
	cfg := Params{K: 1, MinP: 0, MaxP: 9}
	run := mustApply(t, NewStrict(grid), table, cfg)

	for i := 0; i < table.Len(); i++ {
		if run.CoreOf(i) != i {
			t.Fatalf("K=1 must never merge distinct rows, row %d reports core %d", i, run.CoreOf(i))
		}
	}
}

// TestScenarioS5ForcedCoarsestCollapsesToSingleOutlier: MinP == MaxP
// leaves room for exactly one pass, and K exceeds both the distinct-id
// count and the row count, so neither id-level nor loc-level pooling can
// ever be satisfied; every row must fold into one outlier representative.
func TestScenarioS5ForcedCoarsestCollapsesToSingleOutlier(t *testing.T) {
	grid := fakeGrid{}
	table := NewTable(
		[]string{"a", "b", "c", "d"},
		[]float64{0.1, 0.2, 0.3, 0.4},
		[]float64{0.1, 0.2, 0.3, 0.4},
		[]string{"t", "t", "t", "t"},
	)
	cfg := Params{K: 5, MinP: 0, MaxP: 0}
	run := mustApply(t, NewStrict(grid), table, cfg)

	core := run.CoreOf(0)
	for i := 1; i < table.Len(); i++ {
		if run.CoreOf(i) != core {
			t.Fatalf("forced single precision with unreachable K should collapse every row to one outlier core, row %d diverged", i)
		}
	}
	_, p, dotLevel, _, outlier := run.ReportedCell(0)
	if p != 0 {
		t.Fatalf("expected the sole core to settle at precision 0, got %d", p)
	}
	if !dotLevel || !outlier {
		t.Fatalf("expected the collapse to be reported as a loc-level outlier fold")
	}
}

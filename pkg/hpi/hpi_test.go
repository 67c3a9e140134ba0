package hpi

import (
	"math"
	"sort"
	"testing"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
	"github.com/liliang-cn/chutoro/pkg/distance"
)

// line1D is a Source over points placed on a number line, the simplest
// fixture with known, hand-checkable nearest-neighbour answers.
type line1D struct {
	points []float64
}

func (l *line1D) Len() int       { return len(l.points) }
func (l *line1D) Name() string   { return "line1D" }
func (l *line1D) Metric() string { return "abs-diff" }

func (l *line1D) Distance(i, j int) (float32, error) {
	if i < 0 || i >= len(l.points) || j < 0 || j >= len(l.points) {
		return 0, chuterrors.ErrOutOfBounds
	}
	return float32(math.Abs(l.points[i] - l.points[j])), nil
}

func newLineStore(t *testing.T, points []float64, params Params) *Store {
	t.Helper()
	src := &line1D{points: points}
	v, err := distance.NewValidator(src, distance.CacheConfig{MaxEntries: 0})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	s, err := NewStore(len(points), params, v, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestParamsValidateRejectsNonPositiveM(t *testing.T) {
	p := Params{M: 0, EfConstruction: 10}
	if err := p.Validate(); chuterrors.CodeOf(err) != chuterrors.CodeInvalidGraphParams {
		t.Fatalf("expected CodeInvalidGraphParams, got %v", err)
	}
}

func TestParamsValidateRejectsEfBelowM(t *testing.T) {
	p := Params{M: 16, EfConstruction: 4}
	if err := p.Validate(); chuterrors.CodeOf(err) != chuterrors.CodeInvalidGraphParams {
		t.Fatalf("expected CodeInvalidGraphParams, got %v", err)
	}
}

func TestParamsWithDefaultsFillsZeroFields(t *testing.T) {
	p := Params{}.WithDefaults()
	d := DefaultParams()
	if p.M != d.M || p.EfConstruction != d.EfConstruction || p.MaxLevel != d.MaxLevel {
		t.Fatalf("expected defaults to be filled in, got %+v", p)
	}
}

func TestParamsCapIsDoubledAtLevelZero(t *testing.T) {
	p := Params{M: 16}
	if got := p.Cap(0); got != 32 {
		t.Fatalf("expected level-0 cap 32, got %d", got)
	}
	if got := p.Cap(1); got != 16 {
		t.Fatalf("expected upper-level cap 16, got %d", got)
	}
}

func TestStoreInsertFirstNodeBecomesEntryPoint(t *testing.T) {
	s := newLineStore(t, []float64{0, 1, 2}, Params{M: 4, EfConstruction: 8})

	edges, err := s.Insert(0, 2)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected no harvested edges from the first insertion, got %v", edges)
	}
	ep, lvl := s.EntryPoint()
	if ep != 0 || lvl != 2 {
		t.Fatalf("expected entry point (0, level 2), got (%d, %d)", ep, lvl)
	}
	if s.Size() != 1 {
		t.Fatalf("expected size 1, got %d", s.Size())
	}
}

func TestStoreInsertRejectsDuplicateID(t *testing.T) {
	s := newLineStore(t, []float64{0, 1}, Params{M: 4, EfConstruction: 8})
	if _, err := s.Insert(0, 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(0, 0); chuterrors.CodeOf(err) != chuterrors.CodeDuplicateNode {
		t.Fatalf("expected CodeDuplicateNode, got %v", err)
	}
}

func TestStoreInsertRejectsOutOfRangeID(t *testing.T) {
	s := newLineStore(t, []float64{0, 1}, Params{M: 4, EfConstruction: 8})
	if _, err := s.Insert(5, 0); chuterrors.CodeOf(err) != chuterrors.CodeOutOfRangeIndex {
		t.Fatalf("expected CodeOutOfRangeIndex, got %v", err)
	}
}

func TestStoreSearchFindsNearestOnALine(t *testing.T) {
	points := []float64{0, 1, 2, 10, 11, 12}
	s := newLineStore(t, points, Params{M: 8, EfConstruction: 32})
	for i := range points {
		if _, err := s.Insert(i, 0); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	results, err := s.Search(3, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].ID != 3 || results[0].Distance != 0 {
		t.Fatalf("expected the query itself first with distance 0, got %+v", results[0])
	}
	// The cluster {10,11,12} should dominate the remaining slots over
	// the far-away {0,1,2} cluster.
	for _, r := range results[1:] {
		if r.ID == 0 || r.ID == 1 || r.ID == 2 {
			t.Fatalf("expected only near-cluster neighbours of 3, got %+v", results)
		}
	}
}

func TestStoreSearchOnEmptyGraphFails(t *testing.T) {
	s := newLineStore(t, []float64{0, 1}, Params{M: 4, EfConstruction: 8})
	if _, err := s.Search(0, 1); chuterrors.CodeOf(err) != chuterrors.CodeEmptyGraph {
		t.Fatalf("expected CodeEmptyGraph, got %v", err)
	}
}

func TestStoreSearchWithZeroEfReturnsNothing(t *testing.T) {
	s := newLineStore(t, []float64{0, 1}, Params{M: 4, EfConstruction: 8})
	if _, err := s.Insert(0, 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	results, err := s.Search(0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results for ef<=0, got %v", results)
	}
}

func TestCoreDistanceIsKthNearestExcludingSelf(t *testing.T) {
	// Points 0..4 at positions 0,1,2,3,4. Core distance of point 2 at
	// k=2 is the distance to its 2nd nearest neighbour excluding
	// itself: neighbours by distance are {1,3} (dist 1), {0,4} (dist
	// 2), so the 2nd nearest is at distance 1.
	points := []float64{0, 1, 2, 3, 4}
	s := newLineStore(t, points, Params{M: 8, EfConstruction: 32})
	for i := range points {
		if _, err := s.Insert(i, 0); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	d, err := s.CoreDistance(2, 2)
	if err != nil {
		t.Fatalf("CoreDistance: %v", err)
	}
	if d != 1 {
		t.Fatalf("expected core distance 1, got %v", d)
	}
}

func TestCoreDistanceRejectsNonPositiveK(t *testing.T) {
	s := newLineStore(t, []float64{0, 1}, Params{M: 4, EfConstruction: 8})
	if _, err := s.Insert(0, 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.CoreDistance(0, 0); chuterrors.CodeOf(err) != chuterrors.CodeInvalidGraphParams {
		t.Fatalf("expected CodeInvalidGraphParams, got %v", err)
	}
}

func TestStoreMarkDeletedSkipsNodeInSearchAndReelectsEntryPoint(t *testing.T) {
	points := []float64{0, 1, 2}
	s := newLineStore(t, points, Params{M: 8, EfConstruction: 32})
	for i := range points {
		if _, err := s.Insert(i, 1); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	ep, _ := s.EntryPoint()

	if err := s.MarkDeleted(ep); err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	if s.Exists(ep) {
		t.Fatalf("expected node %d to no longer exist after deletion", ep)
	}
	newEP, newLevel := s.EntryPoint()
	if newEP == -1 || newEP == ep {
		t.Fatalf("expected a re-elected entry point distinct from the deleted one, got (%d, %d)", newEP, newLevel)
	}
	if s.Size() != 2 {
		t.Fatalf("expected size 2 after one deletion, got %d", s.Size())
	}
	results, err := s.Search(newEP, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.ID == ep {
			t.Fatalf("expected deleted node %d to be skipped by search, got %+v", ep, results)
		}
	}
}

func TestStoreMarkDeletedRejectsUnknownID(t *testing.T) {
	s := newLineStore(t, []float64{0, 1}, Params{M: 4, EfConstruction: 8})
	if err := s.MarkDeleted(1); chuterrors.CodeOf(err) != chuterrors.CodeOutOfRangeIndex {
		t.Fatalf("expected CodeOutOfRangeIndex, got %v", err)
	}
}

func TestBuildParallelInsertsEveryIDAndHarvestsEdges(t *testing.T) {
	points := []float64{0, 1, 2, 10, 11, 12}
	s := newLineStore(t, points, Params{M: 4, EfConstruction: 16, RNGSeed: 7})

	ids := make([]int, len(points))
	for i := range ids {
		ids[i] = i
	}
	edges, err := s.BuildParallel(ids, 3)
	if err != nil {
		t.Fatalf("BuildParallel: %v", err)
	}
	if s.Size() != len(points) {
		t.Fatalf("expected every id inserted, got size %d", s.Size())
	}
	if len(edges) == 0 {
		t.Fatal("expected at least one harvested candidate edge")
	}
	for i := 1; i < len(edges); i++ {
		if edges[i].Sequence < edges[i-1].Sequence {
			t.Fatalf("expected edges sorted by sequence, got %+v then %+v", edges[i-1], edges[i])
		}
	}
}

func TestMergeHarvestsOrdersBySequenceThenNaturalOrder(t *testing.T) {
	batches := [][]CandidateEdge{
		{{Source: 2, Target: 3, Distance: 1, Sequence: 2}},
		{{Source: 0, Target: 1, Distance: 0.5, Sequence: 0}, {Source: 0, Target: 4, Distance: 2, Sequence: 1}},
	}
	merged := MergeHarvests(batches)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged edges, got %d", len(merged))
	}
	if !sort.SliceIsSorted(merged, func(i, j int) bool { return merged[i].Sequence < merged[j].Sequence }) {
		t.Fatalf("expected edges sorted by sequence, got %+v", merged)
	}
}

// TestBuildParallelIsReproducibleForFixedSeed asserts §9's "bit-for-bit
// reproducible" guarantee: two independent BuildParallel runs over the
// same ids, worker count, and RNG seed must produce identical harvested
// edges in identical order, regardless of goroutine scheduling.
func TestBuildParallelIsReproducibleForFixedSeed(t *testing.T) {
	points := []float64{0, 3, 7, 1, 9, 4, 12, 2, 15, 6}
	params := Params{M: 4, EfConstruction: 16, RNGSeed: 1234}

	ids := make([]int, len(points))
	for i := range ids {
		ids[i] = i
	}

	run := func() []CandidateEdge {
		s := newLineStore(t, points, params)
		edges, err := s.BuildParallel(ids, 4)
		if err != nil {
			t.Fatalf("BuildParallel: %v", err)
		}
		return edges
	}

	first := run()
	for attempt := 0; attempt < 5; attempt++ {
		got := run()
		if len(got) != len(first) {
			t.Fatalf("attempt %d: expected %d edges, got %d", attempt, len(first), len(got))
		}
		for i := range got {
			if got[i] != first[i] {
				t.Fatalf("attempt %d: edge %d differs: %+v vs %+v", attempt, i, got[i], first[i])
			}
		}
	}
}

func TestWorkerRNGStreamsDifferByWorker(t *testing.T) {
	a := workerRNG(1, 0)
	b := workerRNG(1, 1)
	if a.Int63() == b.Int63() {
		t.Fatal("expected distinct workers to derive distinct RNG streams from the same base seed")
	}
}

func TestSampleLevelNeverExceedsMaxLevel(t *testing.T) {
	rng := workerRNG(42, 0)
	for i := 0; i < 1000; i++ {
		if lvl := sampleLevel(rng, 1.0, 3); lvl > 3 || lvl < 0 {
			t.Fatalf("expected level in [0,3], got %d", lvl)
		}
	}
}

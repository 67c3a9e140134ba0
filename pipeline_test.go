package chutoro_test

import (
	"math"
	"testing"

	"github.com/liliang-cn/chutoro"
	"github.com/liliang-cn/chutoro/pkg/chuterrors"
)

// pairSource is a distance source over an explicit, fully-specified
// pairwise distance matrix, the simplest possible Source for tests.
type pairSource struct {
	n   int
	dim map[[2]int]float32
}

func newPairSource(n int) *pairSource {
	return &pairSource{n: n, dim: make(map[[2]int]float32)}
}

func (s *pairSource) set(i, j int, d float32) {
	if i > j {
		i, j = j, i
	}
	s.dim[[2]int{i, j}] = d
}

func (s *pairSource) Len() int       { return s.n }
func (s *pairSource) Name() string   { return "pair-source" }
func (s *pairSource) Metric() string { return "test" }

func (s *pairSource) Distance(i, j int) (float32, error) {
	if i == j {
		return 0, nil
	}
	a, b := i, j
	if a > b {
		a, b = b, a
	}
	return s.dim[[2]int{a, b}], nil
}

// vectorSource is a Source over 2D points under Euclidean distance.
type vectorSource struct {
	points [][2]float64
}

func (s *vectorSource) Len() int       { return len(s.points) }
func (s *vectorSource) Name() string   { return "vector-source" }
func (s *vectorSource) Metric() string { return "euclidean" }

func (s *vectorSource) Distance(i, j int) (float32, error) {
	a, b := s.points[i], s.points[j]
	dx, dy := a[0]-b[0], a[1]-b[1]
	return float32(math.Sqrt(dx*dx + dy*dy)), nil
}

// levenshteinSource is a Source over strings under edit distance.
type levenshteinSource struct {
	words []string
}

func (s *levenshteinSource) Len() int       { return len(s.words) }
func (s *levenshteinSource) Name() string   { return "levenshtein-source" }
func (s *levenshteinSource) Metric() string { return "levenshtein" }

func (s *levenshteinSource) Distance(i, j int) (float32, error) {
	return float32(levenshtein(s.words[i], s.words[j])), nil
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// TestRunScenarioS1 mirrors spec.md §8 scenario S1's two-item input
// under min_cluster_size=1. A leaf point "leaves" the dendrogram at
// lambda=+Inf (see pkg/hierarchy's condenser, grounded on
// single_linkage.rs's weight_to_lambda base case), which always
// out-stabilises a size-1-qualifying parent split: each item ends up
// its own singleton cluster rather than merging into one, consistent
// with scenario S2's three-singletons result. See DESIGN.md's
// resolved-discrepancy note for the full derivation.
func TestRunScenarioS1(t *testing.T) {
	src := newPairSource(2)
	src.set(0, 1, 1.0)

	result, err := chutoro.Run(src, chutoro.Config{MinClusterSize: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ClusterCount != 2 {
		t.Fatalf("expected 2 clusters, got %d", result.ClusterCount)
	}
	if result.Labels[0] == result.Labels[1] {
		t.Fatalf("expected each item in its own singleton cluster, got %v", result.Labels)
	}
}

// TestRunScenarioS2 mirrors spec.md §8 scenario S2: three maximally
// dissimilar strings under Levenshtein distance, min_cluster_size=1,
// each becoming its own singleton cluster.
func TestRunScenarioS2(t *testing.T) {
	src := &levenshteinSource{words: []string{"alpha", "beta", "gamma"}}

	result, err := chutoro.Run(src, chutoro.Config{MinClusterSize: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(result.Labels))
	}
	if result.ClusterCount != 3 {
		t.Fatalf("expected 3 clusters, got %d", result.ClusterCount)
	}
	seen := make(map[int]bool)
	for _, l := range result.Labels {
		if l < 0 || l >= 3 {
			t.Fatalf("label %d out of expected singleton range", l)
		}
		if seen[l] {
			t.Fatalf("expected a permutation of [0 1 2], got duplicate label %d in %v", l, result.Labels)
		}
		seen[l] = true
	}
}

// TestRunScenarioS3 mirrors spec.md §8 scenario S3: fewer items than
// the configured minimum cluster size must fail fast.
func TestRunScenarioS3(t *testing.T) {
	src := newPairSource(2)
	src.set(0, 1, 1.0)

	_, err := chutoro.Run(src, chutoro.Config{MinClusterSize: 3})
	if err == nil {
		t.Fatal("expected an error for N < min_cluster_size")
	}
	if got := chuterrors.CodeOf(err); got != chuterrors.CodeInsufficientItems {
		t.Fatalf("expected CodeInsufficientItems, got %q", got)
	}
}

// TestRunScenarioS4 mirrors spec.md §8 scenario S4: two coincident
// pairs far apart from each other, min_cluster_size=2. Core distances
// (§4.H) for k=2 push every point's mutual-reachability weight up to
// the cross-pair distance, since each point's 2nd-nearest neighbour is
// across the gap, not its own coincident twin; every MST edge ties at
// that same weight, so the condenser never gets two sides that
// simultaneously qualify as MCS-sized and instead prunes down to one
// surviving cluster holding all four points. See DESIGN.md's
// resolved-discrepancy note for the full derivation.
func TestRunScenarioS4(t *testing.T) {
	src := &vectorSource{points: [][2]float64{{0, 0}, {0, 0}, {10, 10}, {10, 10}}}

	result, err := chutoro.Run(src, chutoro.Config{MinClusterSize: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ClusterCount != 1 {
		t.Fatalf("expected 1 cluster, got %d", result.ClusterCount)
	}
	for _, l := range result.Labels {
		if l != 0 {
			t.Fatalf("expected every item in cluster 0, got %v", result.Labels)
		}
	}
}

func TestRunRejectsEmptyDataset(t *testing.T) {
	src := newPairSource(0)
	_, err := chutoro.Run(src, chutoro.Config{MinClusterSize: 1})
	if chuterrors.CodeOf(err) != chuterrors.CodeEmptyDataset {
		t.Fatalf("expected CodeEmptyDataset, got %v", err)
	}
}

func TestRunRejectsInvalidMinClusterSize(t *testing.T) {
	src := newPairSource(2)
	src.set(0, 1, 1.0)
	_, err := chutoro.Run(src, chutoro.Config{MinClusterSize: -1})
	if chuterrors.CodeOf(err) != chuterrors.CodeInvalidMinClusterSize {
		t.Fatalf("expected CodeInvalidMinClusterSize, got %v", err)
	}
}

// TestRunIsDeterministic is property 9 (§8): fixed source, config,
// worker count, and seed must reproduce bit-identical results.
func TestRunIsDeterministic(t *testing.T) {
	src := &vectorSource{points: [][2]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{5, 5}, {5.1, 5}, {5, 5.1},
	}}
	cfg := chutoro.Config{MinClusterSize: 2, Workers: 2, HNSW: chutoro.HNSWConfig{RNGSeed: 7}}

	first, err := chutoro.Run(src, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := chutoro.Run(src, cfg)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if again.ClusterCount != first.ClusterCount {
			t.Fatalf("run %d: cluster count differs", i)
		}
		for j := range first.Labels {
			if again.Labels[j] != first.Labels[j] {
				t.Fatalf("run %d: label %d differs: %v vs %v", i, j, again.Labels, first.Labels)
			}
		}
	}
}

func TestRunRejectsMemoryBudget(t *testing.T) {
	src := newPairSource(2)
	src.set(0, 1, 1.0)
	budget := uint64(1)
	_, err := chutoro.Run(src, chutoro.Config{MinClusterSize: 1, MaxBytes: &budget})
	if chuterrors.CodeOf(err) != chuterrors.CodeMemoryBudgetExceeded {
		t.Fatalf("expected CodeMemoryBudgetExceeded, got %v", err)
	}
}

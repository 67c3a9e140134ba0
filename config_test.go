package chutoro

import "testing"

func TestConfigWithDefaultsFillsMinClusterSize(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.MinClusterSize != 5 {
		t.Fatalf("expected default MinClusterSize 5, got %d", c.MinClusterSize)
	}
}

func TestConfigWithDefaultsPreservesExplicitMinClusterSize(t *testing.T) {
	c := Config{MinClusterSize: 3}.WithDefaults()
	if c.MinClusterSize != 3 {
		t.Fatalf("expected explicit MinClusterSize 3 to survive, got %d", c.MinClusterSize)
	}
}

func TestConfigWithDefaultsFillsDistanceCacheSize(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.DistanceCache.MaxEntries != 1_000_000 {
		t.Fatalf("expected default cache size 1,000,000, got %d", c.DistanceCache.MaxEntries)
	}
}

func TestConfigWithDefaultsFillsHNSWParams(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.HNSW.M <= 0 || c.HNSW.EfConstruction <= 0 || c.HNSW.MaxLevel <= 0 {
		t.Fatalf("expected HNSW defaults to be filled in, got %+v", c.HNSW)
	}
}

func TestConfigWithDefaultsPreservesExplicitHNSWParams(t *testing.T) {
	c := Config{HNSW: HNSWConfig{M: 4, EfConstruction: 40}}.WithDefaults()
	if c.HNSW.M != 4 || c.HNSW.EfConstruction != 40 {
		t.Fatalf("expected explicit HNSW params to survive, got %+v", c.HNSW)
	}
}

func TestClusteringResultNoiseLabelIsOnePastLastCluster(t *testing.T) {
	r := ClusteringResult{Labels: []int{0, 1, 0}, ClusterCount: 2}
	if r.NoiseLabel() != 2 {
		t.Fatalf("expected noise label 2, got %d", r.NoiseLabel())
	}
}

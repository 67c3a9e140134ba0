package chutoro

import "github.com/liliang-cn/chutoro/pkg/hpi"

// HNSWConfig mirrors hpi.Params at the public surface (§6.2), so
// callers configuring a Run don't need to import pkg/hpi directly.
type HNSWConfig struct {
	M               int
	EfConstruction  int
	LevelMultiplier float64
	MaxLevel        int
	RNGSeed         int64
}

func (c HNSWConfig) toParams() hpi.Params {
	return hpi.Params{
		M:               c.M,
		EfConstruction:  c.EfConstruction,
		LevelMultiplier: c.LevelMultiplier,
		MaxLevel:        c.MaxLevel,
		RNGSeed:         c.RNGSeed,
	}
}

// DistanceCacheConfig configures the shared distance cache (§4.A, §6.2).
type DistanceCacheConfig struct {
	MaxEntries int
}

// Config is the pipeline entry point's configuration (§6.2), expressed
// as a flat struct with a WithDefaults normaliser, the same shape the
// teacher uses for its own index/store parameters (see SPEC_FULL.md's
// Configuration section).
type Config struct {
	// MinClusterSize is MCS, the condenser's minimum cluster size (≥1).
	MinClusterSize int
	// MaxBytes, if set, makes the pre-flight estimate reject the run
	// before any allocation when the estimate exceeds it.
	MaxBytes *uint64
	// Workers bounds how many goroutines build the index and compute
	// core distances concurrently. Zero means GOMAXPROCS.
	Workers int

	HNSW          HNSWConfig
	DistanceCache DistanceCacheConfig

	// Logger receives structured progress events; nil discards them
	// (corelog.Nop()).
	Logger Logger
}

// WithDefaults fills in zero-valued fields with the teacher-style
// defaults (§6.2 table).
func (c Config) WithDefaults() Config {
	if c.MinClusterSize == 0 {
		c.MinClusterSize = 5
	}
	if c.DistanceCache.MaxEntries <= 0 {
		c.DistanceCache.MaxEntries = 1_000_000
	}
	c.HNSW = paramsToHNSWConfig(c.HNSW.toParams().WithDefaults())
	return c
}

func paramsToHNSWConfig(p hpi.Params) HNSWConfig {
	return HNSWConfig{
		M:               p.M,
		EfConstruction:  p.EfConstruction,
		LevelMultiplier: p.LevelMultiplier,
		MaxLevel:        p.MaxLevel,
		RNGSeed:         p.RNGSeed,
	}
}

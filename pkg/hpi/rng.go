package hpi

import (
	"math"
	"math/rand"
)

// goldenRatio64 is the 64-bit golden-ratio mixing constant named in
// spec.md §4.B/§9 for decorrelating per-worker RNG streams while
// keeping the whole build reproducible for a fixed worker count.
const goldenRatio64 = 0x9E3779B97F4A7C15

// workerRNG derives worker index w's seed from the base seed per §9:
// base_seed XOR ((w+1) * goldenRatio64).
func workerRNG(baseSeed int64, worker int) *rand.Rand {
	mixed := uint64(baseSeed) ^ (uint64(worker+1) * goldenRatio64)
	return rand.New(rand.NewSource(int64(mixed)))
}

// sampleLevel draws a geometric level per §4.B: the standard HNSW
// exponential-decay assignment, floor(-ln(u) * levelMultiplier) for a
// uniform draw u in (0,1), capped at maxLevel.
func sampleLevel(rng *rand.Rand, levelMultiplier float64, maxLevel int) int {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	level := int(math.Floor(-math.Log(u) * levelMultiplier))
	if level > maxLevel {
		level = maxLevel
	}
	return level
}

// Package hpi implements the hierarchical proximity index (components
// B-G of spec.md §4): a layered greedy/beam-search graph built by
// concurrent workers, supporting approximate k-nearest-neighbour search
// and candidate-edge harvesting during construction.
//
// Grounded on the teacher's pkg/index/hnsw.go (HNSWNode, searchLayer,
// selectNeighborsHeuristic, the distHeap priority queue) and, for the
// generic worst-neighbour eviction idiom, on
// other_examples/8ef96a5a_hypermodeinc-hnsw__graph.go.go's layerNode.
package hpi

import (
	"math"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
)

// Params configures the index (§4.B).
type Params struct {
	// M is the max bidirectional links per node at upper levels (≥1).
	// Level-0 cap is 2*M.
	M int
	// EfConstruction is the construction-time beam width (≥M).
	EfConstruction int
	// LevelMultiplier scales geometric level sampling. Defaults to
	// 1/ln(M) when zero.
	LevelMultiplier float64
	// MaxLevel hard-caps the sampled level.
	MaxLevel int
	// RNGSeed seeds the base RNG stream; per-worker streams are derived
	// from it (see rng.go).
	RNGSeed int64
}

// DefaultParams returns reasonable defaults grounded on the teacher's
// NewHNSW (M=16-ish defaults, EfConstruction a small multiple of M).
func DefaultParams() Params {
	m := 16
	return Params{
		M:               m,
		EfConstruction:  200,
		LevelMultiplier: 1.0 / math.Log(float64(m)),
		MaxLevel:        32,
		RNGSeed:         1,
	}
}

// WithDefaults fills in non-positive M, EfConstruction, LevelMultiplier
// and MaxLevel with defaults. RNGSeed is kept as given, zero included.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.M <= 0 {
		p.M = d.M
	}
	if p.EfConstruction <= 0 {
		p.EfConstruction = d.EfConstruction
	}
	if p.LevelMultiplier <= 0 {
		p.LevelMultiplier = 1.0 / math.Log(float64(p.M))
	}
	if p.MaxLevel <= 0 {
		p.MaxLevel = d.MaxLevel
	}
	return p
}

// Validate enforces the §4.B/§7 graph-parameter invariants.
func (p Params) Validate() error {
	if p.M < 1 {
		return chuterrors.Wrap(chuterrors.CodeInvalidGraphParams, "hpi.Params.Validate",
			chuterrors.ErrInvalidGraphParams)
	}
	if p.EfConstruction < p.M {
		return chuterrors.Wrap(chuterrors.CodeInvalidGraphParams, "hpi.Params.Validate",
			chuterrors.ErrInvalidGraphParams)
	}
	return nil
}

// Cap returns the hard neighbour-list cap at level: 2*M at level 0, M
// above it (§3 Node record invariant, §4.B).
func (p Params) Cap(level int) int {
	if level == 0 {
		return 2 * p.M
	}
	return p.M
}

package distance

import (
	"fmt"
	"math"
	"strings"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
)

// Validator wraps a Source with finiteness/bounds checks and an optional
// bounded cache (§4.A). It is the only thing downstream components
// (pkg/hpi, pkg/msf via core-distance lookups) ever query for distances.
type Validator struct {
	source Source
	n      int
	cache  *Cache
}

// CacheConfig mirrors §6.2's distance_cache.max_entries option. A zero
// value disables caching entirely (MaxEntries <= 0).
type CacheConfig struct {
	MaxEntries int
}

// DefaultCacheConfig matches the ~1M default entry count from §4.A/§6.2.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxEntries: 1_000_000}
}

// NewValidator builds a Validator around source, attaching a bounded
// cache when cfg.MaxEntries > 0.
func NewValidator(source Source, cfg CacheConfig) (*Validator, error) {
	v := &Validator{source: source, n: source.Len()}
	if cfg.MaxEntries > 0 {
		c, err := NewCache(cfg.MaxEntries)
		if err != nil {
			return nil, chuterrors.Wrap(chuterrors.CodeInvalidGraphParams, "distance.NewValidator", err)
		}
		v.cache = c
	}
	return v, nil
}

// Len returns N.
func (v *Validator) Len() int { return v.n }

// Distance returns a finite, non-negative, validated distance between i
// and j, consulting the cache first when present.
func (v *Validator) Distance(i, j int) (float32, error) {
	if i < 0 || i >= v.n || j < 0 || j >= v.n {
		return 0, chuterrors.Wrap(chuterrors.CodeOutOfRangeIndex, "distance.Distance",
			fmt.Errorf("%w: (%d,%d) n=%d", chuterrors.ErrOutOfBounds, i, j, v.n))
	}
	if i == j {
		return 0, nil
	}

	if v.cache != nil {
		if d, ok := v.cache.Get(i, j); ok {
			return d, nil
		}
	}

	d, err := v.source.Distance(i, j)
	if err != nil {
		return 0, chuterrors.Wrap(classify(err), "distance.Distance", err)
	}
	if err := validateFinite(d); err != nil {
		return 0, chuterrors.Wrap(chuterrors.CodeNonFiniteDistance, "distance.Distance", err)
	}
	if d < 0 {
		return 0, chuterrors.Wrap(chuterrors.CodeNegativeDistance, "distance.Distance",
			fmt.Errorf("%w: d(%d,%d)=%v", chuterrors.ErrNegative, i, j, d))
	}

	if v.cache != nil {
		v.cache.Put(i, j, d)
	}
	return d, nil
}

// BatchDistance returns a same-length slice of validated distances from
// node to each id in candidates, short-circuiting on the first error.
func (v *Validator) BatchDistance(node int, candidates []int) ([]float32, error) {
	out := make([]float32, len(candidates))
	for idx, c := range candidates {
		d, err := v.Distance(node, c)
		if err != nil {
			return nil, err
		}
		out[idx] = d
	}
	return out, nil
}

func validateFinite(d float32) error {
	if math.IsNaN(float64(d)) || math.IsInf(float64(d), 0) {
		return fmt.Errorf("%w: %v", chuterrors.ErrNonFinite, d)
	}
	return nil
}

// classify maps a Source-reported error kind to a stable code by
// matching the error message, case-insensitively, against the phrases
// used by the chuterrors sentinels (ErrOutOfBounds, ErrDimensionMismatch,
// ErrZeroDimension); errors.Is is not consulted. Unrecognised errors fall
// back to NonFiniteDistance since that is the broadest "the distance we
// got back cannot be trusted" code.
func classify(err error) chuterrors.Code {
	switch {
	case isSentinel(err, "out of bounds", "out-of-bounds"):
		return chuterrors.CodeOutOfRangeIndex
	case isSentinel(err, "dimension mismatch"):
		return chuterrors.CodeDimensionMismatch
	case isSentinel(err, "zero dimension", "zero-dimension"):
		return chuterrors.CodeZeroDimension
	default:
		return chuterrors.CodeNonFiniteDistance
	}
}

func isSentinel(err error, substrs ...string) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range substrs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

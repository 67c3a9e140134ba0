// Package distance implements component A of the pipeline: a validating
// wrapper and bounded cache around the caller's distance function.
//
// Grounded on the teacher's pkg/index/hnsw.go, which plumbs a bare
// DistFunc(a, b []float32) float32 straight into the index with no
// validation or caching layer. This package generalises that plumbing:
// the distance function is no longer a closure over raw vectors (the
// core never sees vectors, only opaque ids, per spec.md §1) but a
// caller-supplied Source (§6.1), and every lookup is validated and
// optionally cached before it reaches the HPI or MSF components.
package distance

// Source is the external contract (§6.1) the core consumes. It exposes
// item count, a short name, an opaque metric descriptor, and a fallible
// pairwise distance function. Implementations must return symmetric,
// non-negative distances; violations make the core's guarantees
// undefined (§6.1).
type Source interface {
	// Len returns the number of items, N.
	Len() int
	// Name is a short human-readable label for diagnostics.
	Name() string
	// Metric is an opaque tag identifying the distance metric in use.
	Metric() string
	// Distance returns d(i,j), or a typed error (OutOfBounds,
	// DimensionMismatch, ZeroDimension).
	Distance(i, j int) (float32, error)
}

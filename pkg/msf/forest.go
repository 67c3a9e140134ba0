package msf

import (
	"fmt"
	"math"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
)

// Forest is the result of Build: the accepted spanning edges in
// ascending total order, and the number of connected components the
// input graph actually had (1 if n-1 edges were accepted, more if the
// input graph was itself disconnected, §4.H step 5, §8 "Multiple
// components").
type Forest struct {
	Edges          []Edge
	ComponentCount int
}

// Build runs Kruskal's minimum spanning forest algorithm over n nodes
// (ids 0..n-1) and the given candidate edges (§4.H).
//
// Edges are canonicalised and sorted into the module's total order,
// then walked once, front to back, attempting a union for each: since
// the order is already grouped by ascending weight, this single linear
// pass is exactly "sequential processing within a weight group"
// (§4.H step 4) for every group at once, which is what gives the
// result its determinism (§8 "Determinism" law) — two equal-weight
// edges competing for the same union are always resolved by their
// (source, target, sequence) tie-break, never by goroutine scheduling.
// The union-find is the striped-lock structure from unionfind.go, local
// to this call and used only from this single pass.
func Build(n int, edges []Edge) (*Forest, error) {
	if n <= 0 {
		return nil, chuterrors.Wrap(chuterrors.CodeMSFEmptyGraph, "msf.Build", chuterrors.ErrEmptyGraph)
	}

	canon := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		if e.Source < 0 || e.Source >= n || e.Target < 0 || e.Target >= n {
			return nil, chuterrors.Wrap(chuterrors.CodeMSFInvalidEdge, "msf.Build",
				fmt.Errorf("%w: edge (%d,%d) out of range for %d nodes", chuterrors.ErrOutOfBounds, e.Source, e.Target, n))
		}
		if math.IsNaN(float64(e.Weight)) || math.IsInf(float64(e.Weight), 0) {
			return nil, chuterrors.Wrap(chuterrors.CodeMSFNonFiniteWeight, "msf.Build",
				fmt.Errorf("%w: edge (%d,%d) weight %v", chuterrors.ErrNonFinite, e.Source, e.Target, e.Weight))
		}
		if e.Weight < 0 {
			return nil, chuterrors.Wrap(chuterrors.CodeMSFNonFiniteWeight, "msf.Build",
				fmt.Errorf("%w: edge (%d,%d) weight %v", chuterrors.ErrNegative, e.Source, e.Target, e.Weight))
		}
		canon = append(canon, canonicalize(e))
	}

	sorted := sortAndDedupe(canon)

	uf := newUnionFind(n)
	accepted := make([]Edge, 0, n-1)
	for _, e := range sorted {
		if len(accepted) == n-1 {
			break // forest already spans every component reachable via these edges
		}
		if uf.union(e.Source, e.Target) {
			accepted = append(accepted, e)
		}
	}

	return &Forest{
		Edges:          accepted,
		ComponentCount: uf.componentCount(),
	}, nil
}

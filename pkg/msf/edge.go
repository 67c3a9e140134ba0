// Package msf implements component H: a minimum spanning forest
// builder that consumes harvested HPI edges (rewritten with
// mutual-reachability weights) and produces a deterministic spanning
// forest over a striped-lock disjoint set, walked in a single
// sequential pass (§4.H).
//
// No teacher or retrieval-pack file implements Kruskal or a disjoint-
// set directly (see DESIGN.md); this package is written fresh, in the
// comparator/total-order idiom the rest of this module shares with the
// teacher's style (explicit sort.Slice comparators, no reflection-heavy
// generics).
package msf

import "sort"

// Edge is a canonical MSF edge (§3 "MSF edge"): Source < Target, a
// finite non-negative weight, and the sequence of the HPI insertion
// that discovered it (carried through from the harvested edge for
// deterministic tie-breaking).
type Edge struct {
	Source   int
	Target   int
	Weight   float32
	Sequence int64
}

// less is the total order every MSF comparator uses: (weight, source,
// target, sequence) ascending (§4.H step 3, §8 laws).
func less(a, b Edge) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	return a.Sequence < b.Sequence
}

// canonicalize swaps endpoints so Source <= Target (§3, §8 "Canonicalisation").
func canonicalize(e Edge) Edge {
	if e.Source > e.Target {
		e.Source, e.Target = e.Target, e.Source
	}
	return e
}

// sortAndDedupe sorts edges by the total order and removes duplicate
// (weight, u, v) triples (§4.H step 3).
func sortAndDedupe(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })

	deduped := out[:0]
	for i, e := range out {
		if i > 0 {
			prev := deduped[len(deduped)-1]
			if prev.Weight == e.Weight && prev.Source == e.Source && prev.Target == e.Target {
				continue
			}
		}
		deduped = append(deduped, e)
	}
	return deduped
}

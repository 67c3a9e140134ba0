package hpi

import "sort"

// CandidateEdge is a harvested edge discovered during insertion planning
// (§3 "Candidate edge", component G). Canonicalisation swaps endpoints
// so that Source <= Target.
type CandidateEdge struct {
	Source   int
	Target   int
	Distance float32
	Sequence int64
}

func canonicalizeEdge(e CandidateEdge) CandidateEdge {
	if e.Source > e.Target {
		e.Source, e.Target = e.Target, e.Source
	}
	return e
}

// harvestFromPlan walks an insertion plan and emits one candidate edge
// per neighbour reference (new_node, neighbour, distance,
// new_node.sequence), skipping self-neighbours (§4.G).
func harvestFromPlan(plan *insertionPlan) []CandidateEdge {
	edges := make([]CandidateEdge, 0, len(plan.layers)*plan.level)
	for _, lp := range plan.layers {
		for _, c := range lp.candidates {
			if c.id == plan.id {
				continue
			}
			edges = append(edges, canonicalizeEdge(CandidateEdge{
				Source:   plan.id,
				Target:   c.id,
				Distance: c.distance,
				Sequence: plan.sequence,
			}))
		}
	}
	return edges
}

// edgeLess is the natural order (distance, source, target, sequence)
// used as the harvest's secondary sort key (§4.G, §8 "Harvest sort").
func edgeLess(a, b CandidateEdge) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	return a.Sequence < b.Sequence
}

// MergeHarvests merges per-worker harvest batches into one ordered
// sequence, stably sorted primarily by sequence and secondarily by the
// natural order (§4.G, §5 "Candidate-edge harvest preserves insertion
// sequence as the primary sort key").
func MergeHarvests(batches [][]CandidateEdge) []CandidateEdge {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	all := make([]CandidateEdge, 0, total)
	for _, b := range batches {
		all = append(all, b...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Sequence != all[j].Sequence {
			return all[i].Sequence < all[j].Sequence
		}
		return edgeLess(all[i], all[j])
	})
	return all
}

package hpi

// layerCandidate is one retained neighbour of a single level's plan.
type layerCandidate struct {
	id       int
	distance float32
}

// layerPlan is the per-level candidate neighbour list produced while
// planning a single insertion (§4.D step 3).
type layerPlan struct {
	level      int
	candidates []layerCandidate
}

// insertionPlan is the ordered list of layer plans for one insertion
// (§4.D step 4), the read phase's sole output. Nothing in plan() ever
// mutates the graph.
type insertionPlan struct {
	id       int
	sequence int64
	level    int
	layers   []layerPlan
}

func toLayerCandidates(results []scored) []layerCandidate {
	out := make([]layerCandidate, len(results))
	for i, r := range results {
		out[i] = layerCandidate{id: r.id, distance: r.dist}
	}
	return out
}

func idsOfCandidates(cs []layerCandidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}

// plan runs the insertion planner (component D) under a shared read
// lock: greedy descent from the entry point down to level+1, then beam
// search with width ef_construction at each level from level down to 0,
// retaining the M nearest neighbours per level.
func (s *Store) plan(id, level int, sequence int64) (*insertionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPoisoned("hpi.plan"); err != nil {
		return nil, err
	}

	p := &insertionPlan{id: id, sequence: sequence, level: level}
	if s.entryPoint == -1 {
		return p, nil
	}

	entry := s.entryPoint
	for lc := s.entryLevel; lc > level; lc-- {
		next, err := s.greedySearch(id, entry, lc)
		if err != nil {
			return nil, err
		}
		entry = next
	}

	carry := []int{entry}
	layers := make([]layerPlan, 0, level+1)
	for lc := level; lc >= 0; lc-- {
		results, err := s.beamSearch(id, carry, s.params.EfConstruction, lc)
		if err != nil {
			return nil, err
		}
		m := s.params.M
		if len(results) > m {
			results = results[:m]
		}
		cands := toLayerCandidates(results)
		layers = append(layers, layerPlan{level: lc, candidates: cands})
		carry = idsOfCandidates(cands)
		if len(carry) == 0 {
			carry = []int{entry}
		}
	}
	p.layers = layers
	return p, nil
}

package hpi

import (
	"sort"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
)

// Result is one ranked neighbour returned by Search.
type Result struct {
	ID       int
	Distance float32
}

// Search composes greedy descent from the entry point through all
// upper levels, then beam search at level 0 with width ef, then
// renormalises ordering and guarantees the query itself appears when
// ef > 0 (§4.C public search(query_index, ef)).
func (s *Store) Search(query int, ef int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkPoisoned("hpi.Search"); err != nil {
		return nil, err
	}
	if s.entryPoint == -1 {
		return nil, chuterrors.Wrap(chuterrors.CodeEmptyGraph, "hpi.Search", chuterrors.ErrEmptyGraph)
	}
	if ef <= 0 {
		return nil, nil
	}

	entry := s.entryPoint
	for lc := s.entryLevel; lc > 0; lc-- {
		next, err := s.greedySearch(query, entry, lc)
		if err != nil {
			return nil, err
		}
		entry = next
	}

	candidates, err := s.beamSearch(query, []int{entry}, ef, 0)
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return less(candidates[i], candidates[j]) })

	if s.existsLocked(query) {
		found := false
		for _, c := range candidates {
			if c.id == query {
				found = true
				break
			}
		}
		if !found {
			candidates = append([]scored{{id: query, dist: 0}}, candidates...)
		}
	}

	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: c.id, Distance: c.dist}
	}
	return out, nil
}

// CoreDistance returns item's distance to its k-th nearest neighbour,
// used by the pipeline to compute mutual-reachability weights (§4.H
// "Use by the pipeline", glossary "Mutual-reachability distance").
//
// Resolves the §9 Open Question on MCS vs MCS+1: Search returns the
// query itself among its results when ef>0 and the query is in the
// graph, so this queries ef=k+1 and takes the k-th result *excluding
// the query*, giving the k-th-nearest-neighbour-excluding-self distance
// (see DESIGN.md).
func (s *Store) CoreDistance(item int, k int) (float32, error) {
	if k <= 0 {
		return 0, chuterrors.New(chuterrors.CodeInvalidGraphParams, "hpi.CoreDistance", "k must be >= 1")
	}
	results, err := s.Search(item, k+1)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range results {
		if r.ID == item {
			continue
		}
		count++
		if count == k {
			return r.Distance, nil
		}
	}
	if len(results) > 0 {
		return results[len(results)-1].Distance, nil
	}
	return 0, chuterrors.New(chuterrors.CodeGraphInvariantViolation, "hpi.CoreDistance", "no neighbours found")
}

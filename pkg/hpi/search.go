package hpi

import "container/heap"

// scored pairs a node id with its distance to the current query,
// exactly the role of the teacher's heapItem{id, dist} in
// pkg/index/hnsw.go, renamed and carrying an int id instead of string.
type scored struct {
	id   int
	dist float32
}

// minHeap orders by distance ascending (the "candidates" open set).
type minHeap []scored

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap orders by distance descending (the "best-so-far" set, whose
// root is always the current worst kept candidate).
type maxHeap []scored

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(scored)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// less is the deep total order every comparator in this package shares
// (§9 design note: "make the comparator a total order"): distance
// first, id as the deterministic tie-break.
func less(a, b scored) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.id < b.id
}

// greedySearch descends from entry at level, repeatedly moving to the
// strictly closer neighbour, stopping at a local optimum (§4.C Greedy).
// Caller must hold at least a read lock on s.mu.
func (s *Store) greedySearch(query, entry, level int) (int, error) {
	best := entry
	bestDist, err := s.dist.Distance(query, best)
	if err != nil {
		return 0, err
	}
	for {
		improved := false
		for _, nb := range s.neighborsLocked(best, level) {
			d, err := s.dist.Distance(query, nb)
			if err != nil {
				return 0, err
			}
			if d < bestDist {
				bestDist = d
				best = nb
				improved = true
			}
		}
		if !improved {
			return best, nil
		}
	}
}

// beamSearch maintains a best-so-far set of size ef, an open
// (candidate) set, and a visited set (§4.C Beam). Caller must hold at
// least a read lock on s.mu. Results are sorted (distance asc, id asc).
// Deleted nodes are still expanded but never enter the results.
func (s *Store) beamSearch(query int, entryPoints []int, ef, level int) ([]scored, error) {
	visited := make(map[int]bool, ef*2)
	candidates := &minHeap{}
	best := &maxHeap{}

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		visited[ep] = true
		d, err := s.dist.Distance(query, ep)
		if err != nil {
			return nil, err
		}
		item := scored{id: ep, dist: d}
		heap.Push(candidates, item)
		if n := s.nodes[ep]; n == nil || !n.deleted {
			heap.Push(best, item)
		}
	}

	for candidates.Len() > 0 {
		if best.Len() >= ef {
			worstBest := (*best)[0]
			if less(worstBest, (*candidates)[0]) {
				break
			}
		}
		current := heap.Pop(candidates).(scored)

		for _, nb := range s.neighborsLocked(current.id, level) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d, err := s.dist.Distance(query, nb)
			if err != nil {
				return nil, err
			}
			cand := scored{id: nb, dist: d}
			if best.Len() < ef || less(cand, (*best)[0]) {
				heap.Push(candidates, cand)
				if n := s.nodes[nb]; n == nil || !n.deleted {
					heap.Push(best, cand)
					if best.Len() > ef {
						heap.Pop(best)
					}
				}
			}
		}
	}

	out := make([]scored, best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(best).(scored)
	}
	return out, nil
}

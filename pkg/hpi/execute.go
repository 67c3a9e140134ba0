package hpi

import (
	"fmt"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
)

// stagingEntry describes one touched target's reciprocal neighbour list
// at one level, computed during staging (§4.E step 1).
type stagingEntry struct {
	target    int
	level     int
	final     []int // set when no trim is needed
	needsTrim bool
}

// dedupeFront copies existing, prepends newID, and removes duplicates,
// keeping the first occurrence of each id (§4.E step 1). The front
// position only orders an untrimmed list: when a trim is needed,
// scoreTrim ranks by (distance, sequence), so on a distance tie the
// older node (lower sequence) is kept ahead of the new one.
func dedupeFront(newID int, existing []int) []int {
	out := make([]int, 0, len(existing)+1)
	seen := make(map[int]bool, len(existing)+1)
	out = append(out, newID)
	seen[newID] = true
	for _, id := range existing {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// stage computes the staging buffers and trim jobs for every target
// touched by plan (§4.E steps 1-2). It takes a read lock only; the
// caller already holds insertionMu so no writer can race it.
func (s *Store) stage(plan *insertionPlan) ([]trimJob, []stagingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []trimJob
	var entries []stagingEntry
	seen := make(map[trimKey]bool)

	for _, lp := range plan.layers {
		for _, c := range lp.candidates {
			if c.id == plan.id {
				continue // self-neighbours are never produced
			}
			key := trimKey{target: c.id, level: lp.level}
			if seen[key] {
				continue
			}
			seen[key] = true

			// An upper-level edge referencing a target that does not
			// actually expose that level is silently dropped.
			if s.levelLocked(c.id) < lp.level {
				continue
			}

			current := s.neighborsLocked(c.id, lp.level)
			staged := dedupeFront(plan.id, current)
			capAt := s.params.Cap(lp.level)

			if len(staged) <= capAt {
				entries = append(entries, stagingEntry{target: c.id, level: lp.level, final: staged})
				continue
			}

			job := trimJob{target: c.id, level: lp.level}
			for _, nid := range staged {
				d, err := s.dist.Distance(c.id, nid)
				if err != nil {
					return nil, nil, err
				}
				job.candidates = append(job.candidates, trimCandidate{
					id: nid, sequence: s.sequenceLocked(nid), distance: d,
				})
			}
			jobs = append(jobs, job)
			entries = append(entries, stagingEntry{target: c.id, level: lp.level, needsTrim: true})
		}
	}
	return jobs, entries, nil
}

func (s *Store) levelLocked(id int) int {
	n := s.nodes[id]
	if n == nil {
		return -1
	}
	return n.level
}

func (s *Store) sequenceLocked(id int) int64 {
	n := s.nodes[id]
	if n == nil {
		return -1
	}
	return n.sequence
}

func (s *Store) setNeighborsLocked(id, level int, ids []int) {
	n := s.nodes[id]
	cp := make([]int, len(ids))
	copy(cp, ids)
	n.neighbors[level] = cp
}

func idSetDiff(old, next []int) []int {
	keep := make(map[int]bool, len(next))
	for _, id := range next {
		keep[id] = true
	}
	var removed []int
	for _, id := range old {
		if !keep[id] {
			removed = append(removed, id)
		}
	}
	return removed
}

func removeID(ids []int, target int) ([]int, bool) {
	for i, id := range ids {
		if id == target {
			out := make([]int, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			out = append(out, ids[i+1:]...)
			return out, true
		}
	}
	return ids, false
}

// commit applies a staged, scored insertion atomically under the write
// lock (§4.E step 4). Caller must hold insertionMu and must not hold
// s.mu; commit takes it itself.
func (s *Store) commit(plan *insertionPlan, entries []stagingEntry, trimmed map[trimKey][]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPoisoned("hpi.commit"); err != nil {
		return err
	}

	if s.nodes[plan.id] != nil {
		return chuterrors.Wrap(chuterrors.CodeDuplicateNode, "hpi.commit", chuterrors.ErrDuplicateNode)
	}

	n := newNode(plan.id, plan.sequence, plan.level)
	for _, lp := range plan.layers {
		n.neighbors[lp.level] = idsOfCandidates(lp.candidates)
	}
	s.nodes[plan.id] = n

	for _, e := range entries {
		target := s.nodes[e.target]
		if target == nil || e.level >= len(target.neighbors) {
			s.poison()
			return chuterrors.Wrap(chuterrors.CodeGraphInvariantViolation, "hpi.commit",
				fmt.Errorf("%w: missing slot for target %d at level %d", chuterrors.ErrGraphInvariantViolation, e.target, e.level))
		}

		final := e.final
		if e.needsTrim {
			final = trimmed[trimKey{target: e.target, level: e.level}]
		}

		old := make([]int, len(target.neighbors[e.level]))
		copy(old, target.neighbors[e.level])

		s.setNeighborsLocked(e.target, e.level, final)

		for _, removed := range idSetDiff(old, final) {
			if removed == plan.id {
				continue
			}
			s.scrubReverseLocked(removed, e.level, e.target)
		}

		if e.level == 0 {
			s.healIfIsolatedLocked(e.target)
			for _, removed := range idSetDiff(old, final) {
				s.healIfIsolatedLocked(removed)
			}
		}
	}

	if plan.level > s.entryLevel {
		s.entryPoint = plan.id
		s.entryLevel = plan.level
	}
	return nil
}

// scrubReverseLocked removes target from node's neighbour list at
// level, the deferred reverse-edge scrub of a trimmed-away connection
// (§4.E step 4). Missing slots are tolerated here: a concurrent trim on
// the same node, if one existed, could already have removed it, and
// since insertions are fully serialised (§5) any stale reference here
// reflects a dropped edge rather than a race.
func (s *Store) scrubReverseLocked(node, level, target int) {
	n := s.nodes[node]
	if n == nil || level >= len(n.neighbors) {
		return
	}
	if next, ok := removeID(n.neighbors[level], target); ok {
		n.neighbors[level] = next
	}
}

// healIfIsolatedLocked repairs connectivity (invariant 3) for a level-0
// node left with no neighbours by an eviction (§4.E step 4): it links
// the node to the entry node or, if that fails, to the nearest other
// live node with spare level-0 capacity.
func (s *Store) healIfIsolatedLocked(id int) {
	n := s.nodes[id]
	if n == nil || len(n.neighbors) == 0 || len(n.neighbors[0]) > 0 {
		return
	}
	if s.entryPoint == -1 || s.entryPoint == id {
		return
	}

	capAt := s.params.Cap(0)
	if s.linkLocked(id, s.entryPoint, capAt) {
		return
	}
	nearest := -1
	var nearestDist float32
	for other, on := range s.nodes {
		if on == nil || on.deleted || other == id || len(on.neighbors[0]) >= capAt {
			continue
		}
		d, err := s.dist.Distance(id, other)
		if err != nil {
			continue
		}
		if nearest == -1 || d < nearestDist {
			nearest, nearestDist = other, d
		}
	}
	if nearest != -1 {
		s.linkLocked(id, nearest, capAt)
	}
}

// linkLocked adds a bidirectional level-0 edge between a and b,
// evicting b's furthest neighbour first if b's list is already full.
func (s *Store) linkLocked(a, b, capAt int) bool {
	na, nb := s.nodes[a], s.nodes[b]
	if na == nil || nb == nil {
		return false
	}
	if len(nb.neighbors[0]) >= capAt {
		worst, ok := s.furthestLocked(b, nb.neighbors[0])
		if !ok {
			return false
		}
		nb.neighbors[0], _ = removeID(nb.neighbors[0], worst)
		s.scrubReverseLocked(worst, 0, b)
	}
	nb.neighbors[0] = append(nb.neighbors[0], a)
	na.neighbors[0] = append(na.neighbors[0], b)
	return true
}

func (s *Store) furthestLocked(from int, candidates []int) (int, bool) {
	worst := -1
	var worstDist float32
	for _, c := range candidates {
		d, err := s.dist.Distance(from, c)
		if err != nil {
			continue
		}
		if worst == -1 || d > worstDist {
			worst = c
			worstDist = d
		}
	}
	return worst, worst != -1
}

// Insert adds a new item to the index at the caller-given level
// (components D+E orchestrated together): plan its placement under a shared read
// lock, score any resulting trims off-lock, and commit under an
// exclusive write lock, returning the candidate edges harvested during
// planning (component G) for MSF input.
//
// Duplicate-id inserts fail with DuplicateNode and leave graph state
// unchanged (the idempotency contract, §4.E).
func (s *Store) Insert(id, level int) ([]CandidateEdge, error) {
	if id < 0 || id >= len(s.nodes) {
		return nil, chuterrors.Wrap(chuterrors.CodeOutOfRangeIndex, "hpi.Insert", chuterrors.ErrOutOfBounds)
	}

	s.insertionMu.Lock()
	defer s.insertionMu.Unlock()

	if err := s.checkPoisoned("hpi.Insert"); err != nil {
		return nil, err
	}
	if s.nodes[id] != nil {
		return nil, chuterrors.Wrap(chuterrors.CodeDuplicateNode, "hpi.Insert", chuterrors.ErrDuplicateNode)
	}

	return s.insertLocked(id, level, s.nextSequence())
}

// insertSequenced behaves exactly like Insert but takes an externally
// assigned sequence number instead of drawing a fresh one from the
// atomic counter. BuildParallel reserves a whole contiguous block of
// sequence numbers up front and calls this for every id in a fixed
// order, rather than letting concurrent goroutines race nextSequence
// per call — that race is what made the harvested edges' primary sort
// key depend on goroutine scheduling instead of (ids, workers, seed)
// alone (§5, §9 determinism).
func (s *Store) insertSequenced(id, level int, sequence int64) ([]CandidateEdge, error) {
	if id < 0 || id >= len(s.nodes) {
		return nil, chuterrors.Wrap(chuterrors.CodeOutOfRangeIndex, "hpi.Insert", chuterrors.ErrOutOfBounds)
	}

	s.insertionMu.Lock()
	defer s.insertionMu.Unlock()

	if err := s.checkPoisoned("hpi.Insert"); err != nil {
		return nil, err
	}
	if s.nodes[id] != nil {
		return nil, chuterrors.Wrap(chuterrors.CodeDuplicateNode, "hpi.Insert", chuterrors.ErrDuplicateNode)
	}

	return s.insertLocked(id, level, sequence)
}

// insertLocked runs the plan->trim->commit sequence for one insertion.
// Caller must hold insertionMu and must have already checked for
// poisoning and duplicate ids.
func (s *Store) insertLocked(id, level int, sequence int64) ([]CandidateEdge, error) {
	s.mu.Lock()
	if s.entryPoint == -1 {
		n := newNode(id, sequence, level)
		s.nodes[id] = n
		s.entryPoint = id
		s.entryLevel = level
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()

	plan, err := s.plan(id, level, sequence)
	if err != nil {
		return nil, err
	}

	harvested := harvestFromPlan(plan)

	jobs, entries, err := s.stage(plan)
	if err != nil {
		return nil, err
	}

	trimmed := scoreTrimsParallel(jobs, s.params.Cap)

	if err := s.commit(plan, entries, trimmed); err != nil {
		return nil, err
	}

	return harvested, nil
}

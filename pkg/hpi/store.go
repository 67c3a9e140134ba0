package hpi

import (
	"sync"
	"sync/atomic"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
	"github.com/liliang-cn/chutoro/pkg/corelog"
	"github.com/liliang-cn/chutoro/pkg/distance"
)

// Store is the HPI graph store (component B): a vector of optional node
// records sized to configured capacity, plus an optional entry point.
// It exposes read access for planning under a shared lock and write
// access for execution under an exclusive lock, and serialises the
// whole plan->trim->commit sequence of a single insertion behind
// insertionMu so concurrent workers observe a consistent planning
// snapshot (§4.E, §5).
type Store struct {
	mu sync.RWMutex
	// insertionMu serialises insertions end to end; it is distinct from
	// mu, which only protects the node slots/entry point themselves.
	insertionMu sync.Mutex

	nodes      []*node
	entryPoint int // -1 when empty
	entryLevel int
	seq        int64 // atomic, monotonically increasing (§3 Sequence)

	params Params
	dist   *distance.Validator
	log    corelog.Logger

	poisoned bool
}

// NewStore builds a Store with room for `capacity` items.
func NewStore(capacity int, params Params, dist *distance.Validator, log corelog.Logger) (*Store, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = corelog.Nop()
	}
	return &Store{
		nodes:      make([]*node, capacity),
		entryPoint: -1,
		entryLevel: -1,
		params:     params,
		dist:       dist,
		log:        log,
	}, nil
}

// nextSequence assigns the next monotonic sequence number (§3).
func (s *Store) nextSequence() int64 {
	return atomic.AddInt64(&s.seq, 1) - 1
}

// reserveSequences atomically reserves a contiguous block of n
// sequence numbers and returns the first one, so a batch build
// (BuildParallel) can assign every insertion's sequence number up
// front instead of racing nextSequence once per goroutine (§5, §9
// determinism).
func (s *Store) reserveSequences(n int) int64 {
	return atomic.AddInt64(&s.seq, int64(n)) - int64(n)
}

// poison marks the graph unusable after a detected invariant violation
// (§4.E failure model, §7 Graph errors). Callers must treat the Store
// as poisoned from then on.
func (s *Store) poison() {
	s.poisoned = true
}

func (s *Store) checkPoisoned(op string) error {
	if s.poisoned {
		return chuterrors.Wrap(chuterrors.CodeGraphInvariantViolation, op, chuterrors.ErrGraphInvariantViolation)
	}
	return nil
}

// Exists reports whether id currently has an attached, non-deleted node.
func (s *Store) Exists(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsLocked(id)
}

func (s *Store) existsLocked(id int) bool {
	if id < 0 || id >= len(s.nodes) {
		return false
	}
	n := s.nodes[id]
	return n != nil && !n.deleted
}

// Level returns the assigned level of id, or -1 if absent.
func (s *Store) Level(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.nodes[id]
	if n == nil {
		return -1
	}
	return n.level
}

// neighborsLocked returns a snapshot copy of id's neighbours at level;
// caller must hold mu (R or W).
func (s *Store) neighborsLocked(id, level int) []int {
	n := s.nodes[id]
	if n == nil || level >= len(n.neighbors) {
		return nil
	}
	out := make([]int, len(n.neighbors[level]))
	copy(out, n.neighbors[level])
	return out
}

// Neighbors returns a snapshot copy of id's neighbours at level.
func (s *Store) Neighbors(id, level int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.neighborsLocked(id, level)
}

// EntryPoint returns the current entry node id and its top level, or
// (-1, -1) if the graph is empty.
func (s *Store) EntryPoint() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entryPoint, s.entryLevel
}

// Size returns the number of live (non-deleted) nodes.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, nd := range s.nodes {
		if nd != nil && !nd.deleted {
			n++
		}
	}
	return n
}

// Stats reports index introspection counters, carried forward from the
// teacher's HNSW.Stats() (see SPEC_FULL.md's "Stats/introspection"
// supplemented feature).
type Stats struct {
	TotalNodes   int
	ActiveNodes  int
	DeletedNodes int
	TotalEdges   int
	MaxLevel     int
	EntryPoint   int
}

// Stats computes introspection counters over the current graph.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	st.EntryPoint = s.entryPoint
	for _, nd := range s.nodes {
		if nd == nil {
			continue
		}
		st.TotalNodes++
		if nd.deleted {
			st.DeletedNodes++
			continue
		}
		st.ActiveNodes++
		if nd.level > st.MaxLevel {
			st.MaxLevel = nd.level
		}
		for _, lvl := range nd.neighbors {
			st.TotalEdges += len(lvl)
		}
	}
	return st
}

// MarkDeleted is a test-only soft delete (§1 Non-goals: "dynamic
// deletions ... a deletion path exists only as a test surface"),
// grounded on the teacher's HNSW.Delete. It tombstones the node; search
// and harvesting skip deleted nodes.
func (s *Store) MarkDeleted(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.nodes) || s.nodes[id] == nil {
		return chuterrors.Wrap(chuterrors.CodeOutOfRangeIndex, "hpi.MarkDeleted", chuterrors.ErrOutOfBounds)
	}
	s.nodes[id].deleted = true
	if s.entryPoint == id {
		s.entryPoint = -1
		s.entryLevel = -1
		for _, nd := range s.nodes {
			if nd != nil && !nd.deleted && (s.entryPoint == -1 || nd.level > s.entryLevel) {
				s.entryPoint = nd.id
				s.entryLevel = nd.level
			}
		}
	}
	return nil
}

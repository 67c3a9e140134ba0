package hpi

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildParallel inserts every id in ids into the index (§2, §5
// "Scheduling model"). Each id is given a deterministic (level,
// sequence) pair before any goroutine touches the graph, so the result
// depends only on (ids, workers, seed), never on how goroutines happen
// to get scheduled (§9: "For a fixed thread count and fixed RNG seed,
// both the HPI build and the MSF output are bit-for-bit reproducible").
//
// Level sampling is the only part that actually runs across workers:
// id i is always sampled by worker (i % workers)'s RNG stream
// (mixed from the base seed, §4.B/§9), a fixed assignment by position
// in ids rather than by whichever worker happens to dequeue it first.
// Sequence numbers are reserved as one contiguous block up front and
// handed out in ids order. The graph mutation itself (component E) is
// then applied strictly in ids order: the Store's insertion mutex
// already serialises it end to end (§4.E), so nothing is lost by
// making that order explicit instead of leaving it to whichever
// goroutine wins the mutex race — only the RNG draws were ever
// genuinely parallel.
//
// Grounded on golang.org/x/sync/errgroup for the worker-pool/fan-in
// idiom (already a transitive dependency in the teacher's own go.mod;
// see SPEC_FULL.md's DOMAIN STACK table).
func (s *Store) BuildParallel(ids []int, workers int) ([]CandidateEdge, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	levels := make([]int, len(ids))
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			rng := workerRNG(s.params.RNGSeed, w)
			for i := w; i < len(ids); i += workers {
				levels[i] = sampleLevel(rng, s.params.LevelMultiplier, s.params.MaxLevel)
			}
			return nil
		})
	}
	_ = g.Wait() // sampleLevel never errors; Wait only synchronises completion

	base := s.reserveSequences(len(ids))

	var harvested []CandidateEdge
	for i, id := range ids {
		edges, err := s.insertSequenced(id, levels[i], base+int64(i))
		if err != nil {
			return nil, err
		}
		harvested = append(harvested, edges...)
	}
	return MergeHarvests([][]CandidateEdge{harvested}), nil
}

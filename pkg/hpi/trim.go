package hpi

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// trimCandidate is one candidate in a trim job, carrying exactly the
// fields the scorer's comparator needs (§4.F: "Pure function of
// (candidate id, its sequence, distance, cap) lists").
type trimCandidate struct {
	id       int
	sequence int64
	distance float32
}

// trimJob is produced by the executor's staging phase for every target
// whose neighbour list would exceed its level cap (§4.E step 2).
type trimJob struct {
	target     int
	level      int
	candidates []trimCandidate
}

// scoreTrim ranks a trim job by (distance asc, sequence asc) and
// truncates to cap (§4.F). It holds no lock and touches no shared
// state, so it is safe to run across jobs in parallel.
func scoreTrim(job trimJob, cap int) []int {
	cands := make([]trimCandidate, len(job.candidates))
	copy(cands, job.candidates)
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].distance != cands[j].distance {
			return cands[i].distance < cands[j].distance
		}
		return cands[i].sequence < cands[j].sequence
	})
	if len(cands) > cap {
		cands = cands[:cap]
	}
	ids := make([]int, len(cands))
	for i, c := range cands {
		ids[i] = c.id
	}
	return ids
}

// trimKey identifies a trim job's (target, level) pair.
type trimKey struct {
	target int
	level  int
}

// scoreTrimsParallel scores every job concurrently, off the graph lock,
// with one errgroup goroutine per job (§4.F "Runs in parallel across
// trim jobs without holding the graph lock"; see SPEC_FULL.md's DOMAIN
// STACK entry for golang.org/x/sync/errgroup).
func scoreTrimsParallel(jobs []trimJob, capOf func(level int) int) map[trimKey][]int {
	results := make([]([]int), len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = scoreTrim(job, capOf(job.level))
			return nil
		})
	}
	_ = g.Wait() // scoreTrim never errors; Wait only synchronises completion

	out := make(map[trimKey][]int, len(jobs))
	for i, job := range jobs {
		out[trimKey{target: job.target, level: job.level}] = results[i]
	}
	return out
}

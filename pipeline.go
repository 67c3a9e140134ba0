// Package chutoro is the public entry point of the clustering core: a
// hierarchical proximity index feeds a parallel minimum spanning forest
// builder, which feeds a single-linkage hierarchy condenser and label
// extractor (§1, §2).
package chutoro

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/liliang-cn/chutoro/pkg/chuterrors"
	"github.com/liliang-cn/chutoro/pkg/corelog"
	"github.com/liliang-cn/chutoro/pkg/distance"
	"github.com/liliang-cn/chutoro/pkg/hierarchy"
	"github.com/liliang-cn/chutoro/pkg/hpi"
	"github.com/liliang-cn/chutoro/pkg/msf"
	"github.com/liliang-cn/chutoro/pkg/preflight"
)

// Logger re-exports the core's logging seam (§6.2 Logger option) so
// callers wiring their own sink don't need to import pkg/corelog.
type Logger = corelog.Logger

// Run executes the full pipeline (§6.2 "run(source, config) ->
// ClusteringResult | Error"): validate input, pre-flight the memory
// estimate, build the HPI, harvest and rewrite candidate edges to
// mutual-reachability weights, build the MSF, condense it, and extract
// labels.
func Run(source Source, config Config) (*ClusteringResult, error) {
	config = config.WithDefaults()
	log := config.Logger
	if log == nil {
		log = corelog.Nop()
	}

	n := source.Len()
	if n == 0 {
		return nil, chuterrors.Wrap(chuterrors.CodeEmptyDataset, "chutoro.Run", chuterrors.ErrEmptyDataset)
	}
	if config.MinClusterSize < 1 {
		return nil, chuterrors.Wrap(chuterrors.CodeInvalidMinClusterSize, "chutoro.Run", chuterrors.ErrInvalidMinClusterSize)
	}
	if n < config.MinClusterSize {
		return nil, chuterrors.Wrap(chuterrors.CodeInsufficientItems, "chutoro.Run", chuterrors.ErrInsufficientItems)
	}

	estimate := preflight.Estimate(n, config.HNSW.M, config.DistanceCache.MaxEntries)
	if !preflight.Fits(estimate, config.MaxBytes) {
		return nil, chuterrors.Wrap(chuterrors.CodeMemoryBudgetExceeded, "chutoro.Run",
			fmt.Errorf("%w: estimate=%d max=%d", chuterrors.ErrMemoryBudgetExceeded, estimate, *config.MaxBytes))
	}
	log.Info("preflight passed", "op", "chutoro.Run", "n", n, "estimate_bytes", estimate)

	validator, err := distance.NewValidator(source, distance.CacheConfig{MaxEntries: config.DistanceCache.MaxEntries})
	if err != nil {
		return nil, err
	}

	store, err := hpi.NewStore(n, config.HNSW.toParams(), validator, log)
	if err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}

	log.Info("building index", "op", "chutoro.Run", "workers", workers)
	harvested, err := store.BuildParallel(ids, workers)
	if err != nil {
		return nil, err
	}

	core, err := coreDistances(store, n, config.MinClusterSize, workers)
	if err != nil {
		return nil, err
	}

	msfEdges := rewriteMutualReachability(harvested, core)

	forest, err := msf.Build(n, msfEdges)
	if err != nil {
		return nil, err
	}
	log.Info("msf built", "op", "chutoro.Run", "edges", len(forest.Edges), "components", forest.ComponentCount)

	dendrogram := hierarchy.BuildDendrogram(n, forest.Edges)
	condensed := hierarchy.Condense(dendrogram, config.MinClusterSize)
	labels := hierarchy.ExtractLabels(n, condensed)

	log.Info("clustering complete", "op", "chutoro.Run", "clusters", labels.ClusterCount)
	return &ClusteringResult{Labels: labels.Values, ClusterCount: labels.ClusterCount}, nil
}

// coreDistances computes the k-th nearest neighbour distance for every
// item (k = minClusterSize, §4.H "Use by the pipeline"), bounding the
// number of in-flight queries to workers via a weighted semaphore (see
// SPEC_FULL.md's DOMAIN STACK entry for golang.org/x/sync/semaphore).
func coreDistances(store *hpi.Store, n, minClusterSize, workers int) ([]float32, error) {
	core := make([]float32, n)
	sem := semaphore.NewWeighted(int64(workers))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			d, err := store.CoreDistance(i, minClusterSize)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			core[i] = d
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return core, nil
}

// rewriteMutualReachability rewrites every harvested candidate edge's
// weight to max(d, core(u), core(v)) (§4.H "Use by the pipeline").
func rewriteMutualReachability(edges []hpi.CandidateEdge, core []float32) []msf.Edge {
	out := make([]msf.Edge, len(edges))
	for i, e := range edges {
		w := e.Distance
		if core[e.Source] > w {
			w = core[e.Source]
		}
		if core[e.Target] > w {
			w = core[e.Target]
		}
		out[i] = msf.Edge{Source: e.Source, Target: e.Target, Weight: w, Sequence: e.Sequence}
	}
	return out
}

package hierarchy

import (
	"math"

	"golang.org/x/sync/errgroup"
)

type eventKind int

const (
	pointLeaf eventKind = iota
	childLink
)

// clusterEvent is one event on a condensed cluster's timeline: either a
// point leaving the cluster as noise-relative-to-this-cluster, or a
// child cluster being spun off at a split (§3 "Condensed cluster").
type clusterEvent struct {
	kind   eventKind
	item   int // valid iff kind == pointLeaf
	child  int // valid iff kind == childLink
	size   int // valid iff kind == childLink
	lambda float64
}

// cluster is one node of the condensed tree (§4.I).
type cluster struct {
	id          int
	parent      int // -1 for a tree root
	birthLambda float64
	stability   float64
	size        int
	events      []clusterEvent
	children    []int
}

// Condensed is the full condensed-cluster pool produced by Condense.
type Condensed struct {
	clusters []cluster
}

// lambdaOf converts an MSF edge weight to the condenser's λ scale:
// λ = 1/weight for weight>0, +∞ for weight=0 (§3).
func lambdaOf(weight float32) float64 {
	if weight <= 0 {
		return math.Inf(1)
	}
	return 1 / float64(weight)
}

// Condense walks the dendrogram and produces condensed clusters
// parameterised by minClusterSize (MCS), per §4.I.
//
// Disconnected components are independent of one another (a root's
// condensed subtree never references another root's clusters), so
// each qualifying root is condensed in its own local *Condensed on a
// worker from an errgroup.Group, mirroring the teacher's worker-pool
// dispatch shape. The merge back into one global, globally-indexed
// Condensed walks d.roots in its fixed order, not goroutine completion
// order, so the result is identical regardless of scheduling.
func Condense(d *Dendrogram, minClusterSize int) *Condensed {
	locals := make([]*Condensed, len(d.roots))

	var g errgroup.Group
	for i, rootID := range d.roots {
		if d.nodes[rootID].size < minClusterSize {
			continue // entire component is smaller than MCS: every point is noise
		}
		g.Go(func() error {
			local := &Condensed{}
			root := local.newCluster(-1, 0, d.nodes[rootID].size)
			local.descend(d, rootID, root, minClusterSize)
			locals[i] = local
			return nil
		})
	}
	_ = g.Wait() // descend is pure computation over its own local tree; it never fails

	c := &Condensed{}
	for _, local := range locals {
		if local == nil {
			continue
		}
		c.absorb(local)
	}
	return c
}

// absorb appends another Condensed's clusters, rebasing every internal
// id (own id, parent, children, child-link events) by the receiver's
// current size so the two id spaces don't collide.
func (c *Condensed) absorb(other *Condensed) {
	offset := len(c.clusters)
	for _, cl := range other.clusters {
		rebased := cl
		rebased.id += offset
		if rebased.parent != -1 {
			rebased.parent += offset
		}
		if len(cl.children) > 0 {
			rebased.children = make([]int, len(cl.children))
			for i, ch := range cl.children {
				rebased.children[i] = ch + offset
			}
		}
		rebased.events = make([]clusterEvent, len(cl.events))
		for i, e := range cl.events {
			if e.kind == childLink {
				e.child += offset
			}
			rebased.events[i] = e
		}
		c.clusters = append(c.clusters, rebased)
	}
}

func (c *Condensed) newCluster(parent int, birth float64, size int) int {
	id := len(c.clusters)
	c.clusters = append(c.clusters, cluster{id: id, parent: parent, birthLambda: birth, size: size})
	return id
}

func (c *Condensed) emitPoint(clusterID, item int, lambda float64) {
	cl := &c.clusters[clusterID]
	cl.events = append(cl.events, clusterEvent{kind: pointLeaf, item: item, lambda: lambda})
	cl.stability += lambda - cl.birthLambda
}

// descend processes one dendrogram node as part of clusterID's subtree
// (§4.I). Leaves terminate the recursion as point events; internal
// nodes split into a "both survive", "one survives", or "neither
// survives" case.
func (c *Condensed) descend(d *Dendrogram, nodeID, clusterID, mcs int) {
	node := d.nodes[nodeID]
	if node.isLeaf {
		// A point that survives all the way down to being its own
		// dendrogram leaf never merges again, so it "leaves" at the
		// limit: lambda = +Inf (original_source's weight_to_lambda(0.0)).
		c.emitPoint(clusterID, node.item, math.Inf(1))
		return
	}

	left, right := d.nodes[node.left], d.nodes[node.right]
	splitLambda := lambdaOf(node.weight)
	leftBig, rightBig := left.size >= mcs, right.size >= mcs

	switch {
	case leftBig && rightBig:
		cl := &c.clusters[clusterID]
		// left.size+right.size, not cl.size: a one-survives split upstream
		// (case below) can shed points from clusterID's subtree without
		// updating cl.size, so cl.size may exceed what's actually still
		// live here. Matches single_linkage.rs's per-child
		// record_stability_increment(parent, lambda, left_size/right_size).
		cl.stability += (splitLambda - cl.birthLambda) * float64(left.size+right.size)
		childA := c.newCluster(clusterID, splitLambda, left.size)
		childB := c.newCluster(clusterID, splitLambda, right.size)
		c.clusters[clusterID].children = append(c.clusters[clusterID].children, childA, childB)
		c.clusters[clusterID].events = append(c.clusters[clusterID].events,
			clusterEvent{kind: childLink, child: childA, size: left.size, lambda: splitLambda},
			clusterEvent{kind: childLink, child: childB, size: right.size, lambda: splitLambda},
		)
		c.descend(d, node.left, childA, mcs)
		c.descend(d, node.right, childB, mcs)

	case leftBig || rightBig:
		bigID, smallID := node.left, node.right
		if rightBig {
			bigID, smallID = node.right, node.left
		}
		for _, item := range leavesOf(d, smallID) {
			c.emitPoint(clusterID, item, splitLambda)
		}
		c.descend(d, bigID, clusterID, mcs)

	default:
		for _, item := range leavesOf(d, node.left) {
			c.emitPoint(clusterID, item, splitLambda)
		}
		for _, item := range leavesOf(d, node.right) {
			c.emitPoint(clusterID, item, splitLambda)
		}
	}
}

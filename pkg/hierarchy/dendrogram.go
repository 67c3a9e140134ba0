// Package hierarchy implements components I and J: the single-linkage
// hierarchy condenser that turns a minimum spanning forest into a
// condensed cluster tree, and the label extractor that selects a
// maximal antichain of stable clusters and assigns a label to every
// item (§4.I, §4.J).
//
// Dendrogram construction (this file) is written fresh in the same
// explicit, struct-and-slice idiom the rest of this module uses; the
// condenser and label extractor follow single_linkage.rs's
// condense_cluster and select_stable_clusters_inner (see DESIGN.md).
package hierarchy

import (
	"sort"

	"github.com/liliang-cn/chutoro/pkg/msf"
)

// dendroNode is one node of the single-linkage dendrogram: either an
// original item leaf (size 1, weight 0) or an internal merge node
// created by one MSF edge, whose size is the sum of its two children's
// sizes (§4.I, §3 "Condensed cluster").
type dendroNode struct {
	size   int
	weight float32
	isLeaf bool
	item   int // valid iff isLeaf
	left   int // child dendro node index, -1 if leaf
	right  int
}

// Dendrogram is the full single-linkage merge tree for every item
// 0..n-1, plus the root node of each disjoint component (the forest may
// have produced more than one component, §8 scenario S6).
type Dendrogram struct {
	nodes []dendroNode
	roots []int
}

func edgeLess(a, b msf.Edge) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	return a.Sequence < b.Sequence
}

// simpleUnionFind is a plain sequential disjoint-set used only to track
// which dendrogram node currently represents each item's component
// while replaying MSF merges; it has none of pkg/msf's concurrency
// concerns, since BuildDendrogram runs single-threaded over an already
// built forest.
type simpleUnionFind struct {
	parent []int
	rank   []int
}

func newSimpleUnionFind(n int) *simpleUnionFind {
	uf := &simpleUnionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *simpleUnionFind) find(id int) int {
	root := id
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[id] != root {
		uf.parent[id], id = root, uf.parent[id]
	}
	return root
}

func (uf *simpleUnionFind) union(a, b int) int {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return ra
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
	return ra
}

// BuildDendrogram replays the MSF's union-find merges in non-decreasing
// weight order (§4.I): item leaves start as size-1 nodes at weight 0,
// and every accepted edge creates one new internal node joining the two
// components it connects.
func BuildDendrogram(n int, edges []msf.Edge) *Dendrogram {
	sorted := make([]msf.Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool { return edgeLess(sorted[i], sorted[j]) })

	nodes := make([]dendroNode, n, n+len(sorted))
	for i := 0; i < n; i++ {
		nodes[i] = dendroNode{size: 1, isLeaf: true, item: i, left: -1, right: -1}
	}

	uf := newSimpleUnionFind(n)
	current := make([]int, n) // item -> dendro node index of its component's current top
	for i := range current {
		current[i] = i
	}

	for _, e := range sorted {
		ru, rv := uf.find(e.Source), uf.find(e.Target)
		if ru == rv {
			continue // already merged by an earlier, lower- or equal-weight edge
		}
		nu, nv := current[ru], current[rv]
		newID := len(nodes)
		nodes = append(nodes, dendroNode{
			size:   nodes[nu].size + nodes[nv].size,
			weight: e.Weight,
			left:   nu,
			right:  nv,
		})
		merged := uf.union(ru, rv)
		current[merged] = newID
	}

	seen := make(map[int]bool)
	var roots []int
	for i := 0; i < n; i++ {
		rep := current[uf.find(i)]
		if !seen[rep] {
			seen[rep] = true
			roots = append(roots, rep)
		}
	}

	return &Dendrogram{nodes: nodes, roots: roots}
}

func leavesOf(d *Dendrogram, nodeID int) []int {
	n := d.nodes[nodeID]
	if n.isLeaf {
		return []int{n.item}
	}
	return append(leavesOf(d, n.left), leavesOf(d, n.right)...)
}

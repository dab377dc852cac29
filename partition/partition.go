// Package partition implements the two vertex-partitioning schemes the
// operators rely on to run safely in parallel: Jones-Plassmann-style
// greedy graph coloring (Swap's strict independent set) and a fast
// hash-based partitioner with greedy cut refinement (Coarsen's Phase 1
// thread blocks). Both take a narrow adjacency view rather than a
// *mesh.Mesh, mirroring the teacher's partitions package, which builds
// its element/partition maps from plain slices rather than a live store.
package partition

import "sort"

// Graph is the read-only adjacency view coloring and partitioning need.
// mesh.Mesh's NNList method alone satisfies this via a thin adapter, kept
// here to avoid an import of mesh.
type Graph interface {
	NNodes() int64
	NNList(v int64) []int32
}

// Coloring maps each vertex to a color in [0, MaxColor], adjacent vertices
// always receiving different colors.
type Coloring struct {
	Color    []int32
	MaxColor int32
}

// GreedyColor runs a Jones-Plassmann-style pass: process vertices in
// descending (priority, vertex index) order, where priority is a
// caller-supplied per-vertex random-ish key and equal priorities are broken
// by local vertex index, not by global id, and assign each
// vertex the smallest color not already used by an already-colored
// neighbor. active restricts coloring to a subset of vertices (e.g. the
// vertices Swap still has marked); nil means all vertices.
func GreedyColor(g Graph, priority []float64, active []bool) Coloring {
	n := g.NNodes()
	order := make([]int64, 0, n)
	for v := int64(0); v < n; v++ {
		if active == nil || active[v] {
			order = append(order, v)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		vi, vj := order[i], order[j]
		if priority[vi] != priority[vj] {
			return priority[vi] > priority[vj]
		}
		return vi > vj // deterministic tie-break by descending vertex index
	})

	color := make([]int32, n)
	for i := range color {
		color[i] = -1
	}
	maxColor := int32(-1)
	used := make(map[int32]struct{})

	for _, v := range order {
		for k := range used {
			delete(used, k)
		}
		for _, u := range g.NNList(v) {
			if c := color[u]; c >= 0 {
				used[c] = struct{}{}
			}
		}
		c := int32(0)
		for {
			if _, taken := used[c]; !taken {
				break
			}
			c++
		}
		color[v] = c
		if c > maxColor {
			maxColor = c
		}
	}
	return Coloring{Color: color, MaxColor: maxColor}
}

// LargestActiveColorClass returns the active vertices of the color with the
// most active members, the independent set Swap consumes for one
// marked-vertex pass.
func LargestActiveColorClass(c Coloring, active []bool) []int64 {
	counts := make(map[int32]int)
	for v, col := range c.Color {
		if col >= 0 && (active == nil || active[v]) {
			counts[col]++
		}
	}
	best := int32(-1)
	bestCount := 0
	for col, n := range counts {
		if n > bestCount {
			best, bestCount = col, n
		}
	}
	if best < 0 {
		return nil
	}
	out := make([]int64, 0, bestCount)
	for v, col := range c.Color {
		if col == best && (active == nil || active[v]) {
			out = append(out, int64(v))
		}
	}
	return out
}

// FastPartition assigns every vertex to one of W workers by hash(v) mod W,
// then runs greedy refinement passes that move a vertex to a neighboring
// partition when doing so strictly reduces the number of dynamic edges
// (edges with at least one dynamic endpoint) cut between partitions.
// dynamic reports whether a vertex is currently a live coarsen candidate;
// correctness of the caller does not depend on partition quality, only on
// every vertex having *some* assignment.
func FastPartition(g Graph, workers int, dynamic []bool) []int32 {
	n := g.NNodes()
	if workers < 1 {
		workers = 1
	}
	part := make([]int32, n)
	for v := int64(0); v < n; v++ {
		part[v] = int32(hash64(uint64(v)) % uint64(workers))
	}

	const maxRefinePasses = 4
	for pass := 0; pass < maxRefinePasses; pass++ {
		moved := false
		for v := int64(0); v < n; v++ {
			if dynamic != nil && !dynamic[v] {
				continue
			}
			cutBy := make(map[int32]int)
			for _, u := range g.NNList(v) {
				if dynamic != nil && !dynamic[v] && !dynamic[u] {
					continue
				}
				cutBy[part[u]]++
			}
			current := part[v]
			currentCut := len(g.NNList(v)) - cutBy[current]
			bestPart, bestCut := current, currentCut
			for p, count := range cutBy {
				cut := len(g.NNList(v)) - count
				if cut < bestCut {
					bestPart, bestCut = p, cut
				}
			}
			if bestPart != current {
				part[v] = bestPart
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return part
}

// hash64 is a small fixed-output mixing hash (splitmix64's finalizer),
// good enough for load-balancing hash(v) mod W without pulling in an
// external hashing dependency for a single 64-bit integer.
func hash64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

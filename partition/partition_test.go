package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anisomesh/meshadapt/partition"
)

// pathGraph is a simple line graph 0-1-2-3-4, used to exercise coloring
// and partitioning without pulling in the mesh package.
type pathGraph struct{ n int64 }

func (g pathGraph) NNodes() int64 { return g.n }
func (g pathGraph) NNList(v int64) []int32 {
	var out []int32
	if v > 0 {
		out = append(out, int32(v-1))
	}
	if v < g.n-1 {
		out = append(out, int32(v+1))
	}
	return out
}

func TestGreedyColorProducesProperColoring(t *testing.T) {
	g := pathGraph{n: 6}
	priority := make([]float64, 6)
	c := partition.GreedyColor(g, priority, nil)

	for v := int64(0); v < g.n; v++ {
		for _, u := range g.NNList(v) {
			assert.NotEqual(t, c.Color[v], c.Color[u])
		}
	}
	assert.LessOrEqual(t, c.MaxColor, int32(2)) // greedy uses at most maxDegree+1 = 3 colors on a path
}

func TestLargestActiveColorClassIsIndependent(t *testing.T) {
	g := pathGraph{n: 6}
	priority := make([]float64, 6)
	c := partition.GreedyColor(g, priority, nil)
	indep := partition.LargestActiveColorClass(c, nil)

	set := make(map[int64]bool, len(indep))
	for _, v := range indep {
		set[v] = true
	}
	for _, v := range indep {
		for _, u := range g.NNList(v) {
			assert.False(t, set[int64(u)])
		}
	}
}

func TestFastPartitionCoversEveryVertex(t *testing.T) {
	g := pathGraph{n: 10}
	dynamic := make([]bool, 10)
	for i := range dynamic {
		dynamic[i] = true
	}
	part := partition.FastPartition(g, 3, dynamic)
	assert.Len(t, part, 10)
	for _, p := range part {
		assert.GreaterOrEqual(t, p, int32(0))
		assert.Less(t, p, int32(3))
	}
}

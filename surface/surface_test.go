package surface_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisomesh/meshadapt/surface"
)

// fakeMesh is a minimal surface.MeshReader backing a unit square split
// along its (0,0)-(1,1) diagonal, with a distinct nonzero tag on each of
// edges (2,0), (0,1), (3,0) and (0,2).
type fakeMesh struct {
	coords [][2]float64
	elems  [][3]int32
	bnds   [][3]int32
}

func newFakeSquare() *fakeMesh {
	return &fakeMesh{
		coords: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		elems: [][3]int32{
			{0, 1, 2},
			{0, 2, 3},
		},
		bnds: [][3]int32{
			{0, 1, 2}, // edge0=(1,2) untagged, edge1=(2,0) tag1, edge2=(0,1) tag2
			{0, 3, 4}, // edge0=(2,3) untagged, edge1=(3,0) tag3, edge2=(0,2) tag4
		},
	}
}

func (f *fakeMesh) NElements() int64 { return int64(len(f.elems)) }
func (f *fakeMesh) Element(e int64) (int32, int32, int32, bool) {
	el := f.elems[e]
	return el[0], el[1], el[2], true
}
func (f *fakeMesh) Boundary(e int64) (int32, int32, int32) {
	b := f.bnds[e]
	return b[0], b[1], b[2]
}
func (f *fakeMesh) Coords(v int64) (float64, float64) {
	c := f.coords[v]
	return c[0], c[1]
}

func TestBoundaryOracleDetectsCorner(t *testing.T) {
	m := newFakeSquare()
	o := surface.NewBoundaryOracle(m)

	// vertex 0 touches tag1 (edge (2,0)) and tag2 (edge (0,1)), two
	// non-collinear boundary patches -> corner.
	assert.True(t, o.IsCornerVertex(0))
}

func TestBoundaryOracleVertexOnOneTaggedEdge(t *testing.T) {
	m := newFakeSquare()
	o := surface.NewBoundaryOracle(m)
	// vertex 2 sits on edge1 of elem0 (tag 1) and edge2 of elem1 (tag 4),
	// both the same (0,2) diagonal, so it carries boundary facets; the two
	// facets are collinear, so it is not a corner. Only ContainsNode is
	// checked here.
	assert.True(t, o.ContainsNode(2))
}

func TestBoundaryOracleCollapseMergesFacets(t *testing.T) {
	m := newFakeSquare()
	o := surface.NewBoundaryOracle(m)
	require.True(t, o.ContainsNode(1))
	o.Collapse(1, 2)
	assert.False(t, o.ContainsNode(1))
}

package swap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/halo"
	"github.com/anisomesh/meshadapt/mesh"
	"github.com/anisomesh/meshadapt/swap"
)

// buildBadDiagonal builds a rhombus split along its long diagonal (1,3),
// producing two thin triangles, so a flip to the short diagonal (0,2)
// strictly improves quality.
func buildBadDiagonal(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.NewMesh(halo.SingleProcess{}, mesh.Config{Workers: 1, Buckets: 1})
	m.Reserve(4, 2)

	identity := geom.Metric{M11: 1, M22: 1}
	pts := []geom.Point{{X: 0, Y: 0}, {X: 0.5, Y: -2}, {X: 1, Y: 0}, {X: 0.5, Y: 2}}
	for i, p := range pts {
		m.AppendVertex(p, identity, int64(i), 0)
	}
	// Diagonal (1,3) makes two long thin triangles; diagonal (0,2) is better.
	m.AppendElement([3]int32{0, 1, 3}, [3]int32{0, 0, 1})
	m.AppendElement([3]int32{1, 2, 3}, [3]int32{1, 0, 0})
	m.SetNNList(0, []int32{1, 3})
	m.SetNNList(1, []int32{0, 2, 3})
	m.SetNNList(2, []int32{1, 3})
	m.SetNNList(3, []int32{0, 1, 2})

	require.NoError(t, m.BakeOrientation())
	return m
}

func TestSwapImprovesWorstQualityPair(t *testing.T) {
	m := buildBadDiagonal(t)
	op := swap.New(m, swap.Params{}, 1)
	require.NoError(t, op.Swap())
	assert.Contains(t, m.NNList(0), int32(2))
	assert.NoError(t, m.Verify())
}

func TestSwapUngatedIsDefault(t *testing.T) {
	p := swap.Params{}
	assert.False(t, p.GateOnQMin)
}

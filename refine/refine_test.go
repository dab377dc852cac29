package refine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/halo"
	"github.com/anisomesh/meshadapt/mesh"
	"github.com/anisomesh/meshadapt/refine"
)

func buildUnitSquare(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.NewMesh(halo.SingleProcess{}, mesh.Config{Workers: 1, Buckets: 1})
	m.Reserve(4, 2)

	identity := geom.Metric{M11: 1, M22: 1}
	pts := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for i, p := range pts {
		m.AppendVertex(p, identity, int64(i), 0)
	}
	m.AppendElement([3]int32{0, 1, 2}, [3]int32{0, 0, 1})
	m.AppendElement([3]int32{0, 2, 3}, [3]int32{0, 1, 0})
	m.SetNNList(0, []int32{1, 2, 3})
	m.SetNNList(1, []int32{0, 2})
	m.SetNNList(2, []int32{0, 1, 3})
	m.SetNNList(3, []int32{0, 2})

	require.NoError(t, m.BakeOrientation())
	return m
}

func TestRefineSplitsLongEdges(t *testing.T) {
	m := buildUnitSquare(t)
	op := refine.New(m, refine.Params{LMax: 0.5}, 1)

	progressed, err := op.Refine()
	require.NoError(t, err)
	assert.True(t, progressed)
	assert.Greater(t, m.NNodes(), int64(4))
	assert.NoError(t, m.Verify())
}

func TestRefineNoOpBelowThreshold(t *testing.T) {
	m := buildUnitSquare(t)
	op := refine.New(m, refine.Params{LMax: 10}, 1)

	progressed, err := op.Refine()
	require.NoError(t, err)
	assert.False(t, progressed)
	assert.Equal(t, int64(4), m.NNodes())
}

func TestRefineToFixedPointConverges(t *testing.T) {
	m := buildUnitSquare(t)
	op := refine.New(m, refine.Params{LMax: 0.3}, 2)

	require.NoError(t, op.RefineToFixedPoint(10))
	assert.NoError(t, m.Verify())

	nv := m.NNodes()
	verify := refine.New(m, refine.Params{LMax: 0.3}, 2)
	progressed, err := verify.Refine()
	require.NoError(t, err)
	assert.False(t, progressed)
	assert.Equal(t, nv, m.NNodes())
}

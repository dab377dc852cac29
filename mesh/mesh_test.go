package mesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/halo"
	"github.com/anisomesh/meshadapt/mesh"
)

// buildUnitSquare builds the canonical two-triangle unit square used
// throughout the operator tests: (0,0) (1,0) (1,1) (0,1), split along the
// (0,0)-(1,1) diagonal.
func buildUnitSquare(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.NewMesh(halo.SingleProcess{}, mesh.Config{Workers: 2, Buckets: 4})
	m.Reserve(4, 2)

	pts := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	identity := geom.Metric{M11: 1, M12: 0, M22: 1}
	for i, p := range pts {
		id := m.AppendVertex(p, identity, int64(i), 0)
		require.Equal(t, int64(i), id)
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

func TestNewMeshStartsEmpty(t *testing.T) {
	m := mesh.NewMesh(halo.SingleProcess{}, mesh.Config{})
	assert.Equal(t, int64(0), m.NNodes())
	assert.Equal(t, int64(0), m.NElements())
}

func TestAppendVertexAssignsSequentialIDs(t *testing.T) {
	m := mesh.NewMesh(halo.SingleProcess{}, mesh.Config{})
	m.Reserve(3, 0)
	id0 := m.AppendVertex(geom.Point{X: 0, Y: 0}, geom.Metric{M11: 1, M22: 1}, 0, 0)
	id1 := m.AppendVertex(geom.Point{X: 1, Y: 0}, geom.Metric{M11: 1, M22: 1}, 1, 0)
	assert.Equal(t, int64(0), id0)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), m.NNodes())
}

func TestBuildUnitSquareVerifies(t *testing.T) {
	m := buildUnitSquare(t)
	assert.NoError(t, m.Verify())
}

func TestElementAccessors(t *testing.T) {
	m := buildUnitSquare(t)
	n0, n1, n2, ok := m.Element(0)
	require.True(t, ok)
	assert.Equal(t, [3]int32{0, 1, 2}, [3]int32{n0, n1, n2})
}

func TestNNListReturnsDefensiveCopy(t *testing.T) {
	m := buildUnitSquare(t)
	nn := m.NNList(0)
	nn[0] = 99
	assert.NotEqual(t, int32(99), m.NNList(0)[0])
}

func TestCalcEdgeLengthUnderIdentityMetricIsEuclidean(t *testing.T) {
	m := buildUnitSquare(t)
	assert.InDelta(t, 1.0, m.CalcEdgeLength(0, 1), 1e-12)
}

func TestEraseElementTombstonesAndUpdatesNEList(t *testing.T) {
	m := buildUnitSquare(t)
	m.EraseElement(1)
	_, _, _, ok := m.Element(1)
	assert.False(t, ok)
	for _, e := range m.NEList(3) {
		assert.NotEqual(t, int32(1), e)
	}
}

func TestVerifyDetectsDanglingNNListReference(t *testing.T) {
	m := buildUnitSquare(t)
	m.AddNN(0, 3) // duplicate is harmless
	m.SetNNList(1, []int32{0, 2, 3})
	err := m.Verify()
	require.Error(t, err)
	var verr *mesh.VerifyError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "I2-nnlist-symmetry")
}

func TestDefragmentDropsTombstonesAndRemaps(t *testing.T) {
	m := buildUnitSquare(t)
	m.EraseElement(1)
	m.SetNNList(3, nil)
	m.SetNNList(0, []int32{1, 2})
	m.SetNNList(2, []int32{0, 1})
	m.EraseVertex(3)

	var perm []int64
	require.NoError(t, m.Defragment(&perm))

	assert.Equal(t, int64(3), m.NNodes())
	assert.Equal(t, int64(1), m.NElements())
	assert.Equal(t, int64(-1), perm[3])
	assert.NoError(t, m.Verify())
}

func TestDeferredCommitAppliesQueuedEdits(t *testing.T) {
	m := buildUnitSquare(t)
	m.DeferAddNN(1, 3, 0)
	require.NoError(t, m.CommitAllDeferred())
	assert.Contains(t, m.NNList(1), int32(3))
}

func TestHaloDelegation(t *testing.T) {
	m := buildUnitSquare(t)
	assert.True(t, m.IsOwned(0))
	assert.False(t, m.IsHalo(0))
	assert.False(t, m.IsRecvHalo(0))
}

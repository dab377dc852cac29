package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityMetric() Metric {
	return Metric{M11: 1, M12: 0, M22: 1}
}

func TestAreaPositiveOrientation(t *testing.T) {
	k := NewKernel(1)
	x0 := Point{0, 0}
	x1 := Point{1, 0}
	x2 := Point{0, 1}

	a, err := k.AreaChecked(x0, x1, x2)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, a, 1e-12)
}

func TestAreaRejectsInvertedElement(t *testing.T) {
	k := NewKernel(1)
	x0 := Point{0, 0}
	x1 := Point{0, 1}
	x2 := Point{1, 0}

	_, err := k.AreaChecked(x0, x1, x2)
	assert.ErrorIs(t, err, ErrNonPositiveArea)
}

func TestLengthMReducesToEuclideanUnderIdentity(t *testing.T) {
	k := NewKernel(1)
	x0 := Point{0, 0}
	x1 := Point{3, 4}
	m := identityMetric()

	got := k.LengthM(x0, x1, m, m)
	assert.InDelta(t, 5.0, got, 1e-12)
}

func TestLengthMSymmetric(t *testing.T) {
	k := NewKernel(1)
	x0 := Point{1, 2}
	x1 := Point{4, 6}
	m0 := Metric{M11: 2, M12: 0.1, M22: 1.5}
	m1 := Metric{M11: 1, M12: -0.2, M22: 3}

	fwd := k.LengthM(x0, x1, m0, m1)
	rev := k.LengthM(x1, x0, m1, m0)
	assert.InDelta(t, fwd, rev, 1e-12)
}

func TestLipnikovPeaksAtEquilateral(t *testing.T) {
	k := NewKernel(1)
	m := identityMetric()

	x0 := Point{0, 0}
	x1 := Point{1, 0}
	x2 := Point{0.5, math.Sqrt(3) / 2}

	q, err := k.Lipnikov(x0, x1, x2, m, m, m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, q, 1e-9)
}

func TestLipnikovDegradesForSliverTriangle(t *testing.T) {
	k := NewKernel(1)
	m := identityMetric()

	x0 := Point{0, 0}
	x1 := Point{1, 0}
	x2 := Point{0.5, 0.01}

	q, err := k.Lipnikov(x0, x1, x2, m, m, m)
	require.NoError(t, err)
	assert.Less(t, q, 0.1)
}

func TestLipnikovFailsOnDegenerateElement(t *testing.T) {
	k := NewKernel(1)
	m := identityMetric()
	x0 := Point{0, 0}
	x1 := Point{1, 0}
	x2 := Point{2, 0}

	_, err := k.Lipnikov(x0, x1, x2, m, m, m)
	assert.ErrorIs(t, err, ErrNonPositiveArea)
}

func TestIsSPD(t *testing.T) {
	assert.True(t, IsSPD(identityMetric()))
	assert.False(t, IsSPD(Metric{M11: 1, M12: 2, M22: 1}))
	assert.False(t, IsSPD(Metric{M11: -1, M12: 0, M22: 1}))
}

func TestMetricHasNaN(t *testing.T) {
	assert.False(t, identityMetric().HasNaN())
	assert.True(t, Metric{M11: math.NaN(), M12: 0, M22: 1}.HasNaN())
}

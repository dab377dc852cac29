// Package geom implements the pure geometric kernels the mesh operators
// build on: signed triangle area, metric-induced edge length, and the
// Lipnikov anisotropic quality functional. Every function is parameterised
// by a Kernel, which pins down the orientation sign convention for the
// mesh it was built for.
package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNonPositiveArea is returned when a proposed or existing triangle has
// signed area at or below zero once the mesh's orientation sign has been
// applied. Callers treat this as "reject the candidate", never as fatal.
var ErrNonPositiveArea = errors.New("geom: non-positive element area")

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Metric is a symmetric positive-definite 2x2 tensor stored as its three
// distinct entries, matching the data model's {m11, m12, m22} layout.
type Metric struct {
	M11, M12, M22 float64
}

// Lerp linearly interpolates componentwise between two metrics.
func (m Metric) Lerp(n Metric, weight float64) Metric {
	return Metric{
		M11: m.M11 + weight*(n.M11-m.M11),
		M12: m.M12 + weight*(n.M12-m.M12),
		M22: m.M22 + weight*(n.M22-m.M22),
	}
}

// HasNaN reports whether any component of the metric is NaN, the guard
// Refine's midpoint interpolation runs before accepting a new vertex.
func (m Metric) HasNaN() bool {
	return math.IsNaN(m.M11) || math.IsNaN(m.M12) || math.IsNaN(m.M22)
}

func (m Metric) symDense() *mat.SymDense {
	return mat.NewSymDense(2, []float64{m.M11, m.M12, m.M12, m.M22})
}

// Determinant returns det(M) = m11*m22 - m12^2.
func (m Metric) Determinant() float64 {
	return m.M11*m.M22 - m.M12*m.M12
}

// IsSPD reports whether M is symmetric positive-definite, checked via its
// eigenvalues rather than trusting the determinant/trace shortcut, since
// the eigensolver is also what a caller reaches for when it needs the
// principal stretch directions of the metric.
func IsSPD(m Metric) bool {
	var eig mat.EigenSym
	if ok := eig.Factorize(m.symDense(), false); !ok {
		return false
	}
	for _, v := range eig.Values(nil) {
		if v <= 0 {
			return false
		}
	}
	return true
}

// Kernel bakes in the orientation sign so that "positive area" means the
// same thing to every operator that shares this mesh. The sign is chosen
// once, from the first live element at mesh construction, per the data
// model's baked-orientation rule.
type Kernel struct {
	sign float64
}

// NewKernel returns a Kernel that treats raw shoelace areas of the given
// sign as positive area, i.e. sign is +1 if the reference triangle already winds
// counter-clockwise, -1 otherwise.
func NewKernel(sign float64) *Kernel {
	if sign < 0 {
		return &Kernel{sign: -1}
	}
	return &Kernel{sign: 1}
}

// Area returns the signed area of triangle (x0,x1,x2) under the kernel's
// orientation convention. It never returns an error itself; callers compare
// the result against zero (or against ErrNonPositiveArea via AreaChecked).
func (k *Kernel) Area(x0, x1, x2 Point) float64 {
	return k.sign * 0.5 * ((x1.X-x0.X)*(x2.Y-x0.Y) - (x2.X-x0.X)*(x1.Y-x0.Y))
}

// AreaChecked returns the signed area, or ErrNonPositiveArea if it is not
// strictly positive, the shape every element-inversion check in the
// operators wants.
func (k *Kernel) AreaChecked(x0, x1, x2 Point) (float64, error) {
	a := k.Area(x0, x1, x2)
	if a <= 0 {
		return a, ErrNonPositiveArea
	}
	return a, nil
}

// LengthM computes the metric edge length between x0 and x1 using the
// arithmetic mean of the two endpoint metrics: sqrt(d^T * ((M0+M1)/2) * d).
// The quadratic form is evaluated through gonum's SymDense/VecDense rather
// than by hand, matching the linear-algebra-through-gonum convention used
// throughout the element package this core was adapted from.
func (k *Kernel) LengthM(x0, x1 Point, m0, m1 Metric) float64 {
	avg := Metric{
		M11: 0.5 * (m0.M11 + m1.M11),
		M12: 0.5 * (m0.M12 + m1.M12),
		M22: 0.5 * (m0.M22 + m1.M22),
	}
	return quadraticFormLength(x1.Sub(x0), avg)
}

// SampledLength computes sqrt(d^T * M * d) against a single metric, the
// variant Refine's midpoint-weight formula samples once at each endpoint
// (as opposed to LengthM's two-endpoint average used for L_max/L_low
// gating).
func (k *Kernel) SampledLength(x0, x1 Point, m Metric) float64 {
	return quadraticFormLength(x1.Sub(x0), m)
}

func quadraticFormLength(d Point, m Metric) float64 {
	sym := m.symDense()
	v := mat.NewVecDense(2, []float64{d.X, d.Y})
	var mv mat.VecDense
	mv.MulVec(sym, v)
	quad := v.At(0, 0)*mv.At(0, 0) + v.At(1, 0)*mv.At(1, 0)
	if quad < 0 {
		quad = 0
	}
	return math.Sqrt(quad)
}

// Lipnikov computes the anisotropic element quality functional in (0,1],
// peaked at the metric-equilateral triangle (a=b=c=1 in metric space). Each
// of the three metric edge lengths a, b, c blends the metrics of its own
// two endpoints via LengthM, so all three vertex metrics contribute.
//
// quality = 4*sqrt(3) * area / (a^2 + b^2 + c^2)
//
// This is the scale-invariant isoperimetric-style shape functional: for any
// triangle a^2+b^2+c^2 >= 4*sqrt(3)*area with equality iff the triangle is
// equilateral, so the ratio is always in (0,1] and reaches 1 exactly at the
// metric-equilateral simplex.
//
// area is the Euclidean signed area, not a metric-space area; under a
// spatially varying metric this makes the functional invariant in edge
// length but not exactly invariant in area, so quality still drifts
// slightly across a strongly anisotropic field. DESIGN.md records this as
// an accepted approximation rather than a metric-space area transform.
func (k *Kernel) Lipnikov(x0, x1, x2 Point, m0, m1, m2 Metric) (float64, error) {
	area, err := k.AreaChecked(x0, x1, x2)
	if err != nil {
		return 0, err
	}

	a := k.LengthM(x1, x2, m1, m2)
	b := k.LengthM(x0, x2, m0, m2)
	c := k.LengthM(x0, x1, m0, m1)

	sumSq := a*a + b*b + c*c
	if sumSq == 0 {
		return 0, nil
	}

	const fourRootThree = 4 * 1.7320508075688772
	return fourRootThree * area / sumSq, nil
}

// Package refine implements edge-bisection refinement: split every edge
// longer than L_max, retemplate the incident triangles, and repeat to a
// fixed point. The per-worker sweep and deferred-commit shape mirrors the
// teacher's kernel-dispatch-then-barrier pattern, reimagined over CPU
// goroutines via the shared parallel and deferred packages.
package refine

import (
	"errors"
	"fmt"
	"math"

	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/parallel"
)

// ErrOrientationViolation is returned in debug mode when a retemplated
// element does not have positive signed area.
var ErrOrientationViolation = errors.New("refine: retemplated element has non-positive area")

// ErrDegenerateMetric is returned when midpoint metric interpolation
// produces a NaN component, per spec.md §7's fatal-diagnostic requirement.
var ErrDegenerateMetric = errors.New("refine: interpolated metric has NaN component")

// Mesh is the subset of *mesh.Mesh refine needs.
type Mesh interface {
	NNodes() int64
	NElements() int64
	NNList(v int64) []int32
	NEList(v int64) []int32
	Element(e int64) (n0, n1, n2 int32, ok bool)
	Boundary(e int64) (b0, b1, b2 int32)
	Point(v int64) geom.Point
	Metric(v int64) geom.Metric
	GID(v int64) int64
	Kernel() *geom.Kernel

	Reserve(nVerts, nElems int)
	AppendVertex(x geom.Point, m geom.Metric, gid int64, owner int32) int64
	AppendElement(n [3]int32, b [3]int32) int64
	SetElement(e int64, n [3]int32, b [3]int32)
	SetNNList(v int64, neighbors []int32)
	AddNN(u, v int64)
	RemNN(u, v int64)
	DeferAddNN(u, v int64, worker int)
	DeferRemNN(u, v int64, worker int)
	DeferAddNE(v, e int64, worker int)
	DeferRemNE(v, e int64, worker int)
	CommitAllDeferred() error
}

// Params holds the single length threshold refine gates on and a debug
// switch for the post-retemplate orientation check.
type Params struct {
	LMax      float64
	DebugMode bool
}

// Operator runs refinement over a mesh.
type Operator struct {
	mesh    Mesh
	params  Params
	workers int
}

// New constructs a refine Operator.
func New(m Mesh, params Params, workers int) *Operator {
	if workers < 1 {
		workers = 1
	}
	return &Operator{mesh: m, params: params, workers: workers}
}

type splitEdge struct {
	u, v  int64
	newID int64
}

// Refine performs a single split-and-retemplate pass and reports whether
// any edge was split.
func (op *Operator) Refine() (bool, error) {
	splits, err := op.findAndAllocateSplits()
	if err != nil {
		return false, err
	}
	if len(splits) == 0 {
		return false, nil
	}

	edgeNewVertex := make(map[[2]int64]int64, len(splits))
	for _, s := range splits {
		edgeNewVertex[key(s.u, s.v)] = s.newID
		op.mesh.SetNNList(s.newID, []int32{int32(s.u), int32(s.v)})
		op.mesh.RemNN(s.u, s.v)
		op.mesh.RemNN(s.v, s.u)
		op.mesh.AddNN(s.u, s.newID)
		op.mesh.AddNN(s.v, s.newID)
	}

	nOrigElements := op.mesh.NElements()
	if err := op.retemplateAll(nOrigElements, edgeNewVertex); err != nil {
		return false, err
	}
	if err := op.mesh.CommitAllDeferred(); err != nil {
		return false, err
	}

	if op.params.DebugMode {
		if err := op.checkOrientation(); err != nil {
			return true, err
		}
	}
	return true, nil
}

// checkOrientation asserts every live element has positive signed area
// under the mesh's baked orientation, the debug-mode sanity check spec.md
// §4.4 step 6 calls for after a retemplate pass.
func (op *Operator) checkOrientation() error {
	n := op.mesh.NElements()
	for e := int64(0); e < n; e++ {
		n0, n1, n2, ok := op.mesh.Element(e)
		if !ok {
			continue
		}
		area := op.mesh.Kernel().Area(op.mesh.Point(int64(n0)), op.mesh.Point(int64(n1)), op.mesh.Point(int64(n2)))
		if area <= 0 {
			return ErrOrientationViolation
		}
	}
	return nil
}

// RefineToFixedPoint repeats Refine until a pass makes no split, or
// maxIter passes have run (0 means unbounded, though spec-observed
// practice is 3-5 passes).
func (op *Operator) RefineToFixedPoint(maxIter int) error {
	for i := 0; maxIter == 0 || i < maxIter; i++ {
		progressed, err := op.Refine()
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
	return nil
}

// findAndAllocateSplits sweeps every vertex's neighbor list, visiting each
// undirected edge exactly once via the gid(u) < gid(v) rule, and allocates
// new vertex ids for every edge exceeding L_max.
func (op *Operator) findAndAllocateSplits() ([]splitEdge, error) {
	n := op.mesh.NNodes()
	type found struct {
		u, v int64
	}
	perWorker := make([][]found, op.workers)

	_ = parallel.Run(op.workers, func(w int) error {
		var local []found
		for v := int64(w); v < n; v += int64(op.workers) {
			gv := op.mesh.GID(v)
			for _, u32 := range op.mesh.NNList(v) {
				u := int64(u32)
				if op.mesh.GID(u) <= gv {
					continue
				}
				if op.mesh.Kernel().LengthM(op.mesh.Point(v), op.mesh.Point(u), op.mesh.Metric(v), op.mesh.Metric(u)) > op.params.LMax {
					local = append(local, found{u: v, v: u})
				}
			}
		}
		perWorker[w] = local
		return nil
	})

	var all []found
	for _, l := range perWorker {
		all = append(all, l...)
	}
	if len(all) == 0 {
		return nil, nil
	}

	op.mesh.Reserve(int(op.mesh.NNodes())+len(all), int(op.mesh.NElements())+2*len(all))

	splits := make([]splitEdge, len(all))
	for i, f := range all {
		mu, mv := op.mesh.Metric(f.u), op.mesh.Metric(f.v)
		xu, xv := op.mesh.Point(f.u), op.mesh.Point(f.v)
		lu := op.mesh.Kernel().SampledLength(xu, xv, mu)
		lv := op.mesh.Kernel().SampledLength(xu, xv, mv)
		weight := 1.0 / (1.0 + sqrtRatio(lu, lv))

		newX := geom.Point{X: xu.X + weight*(xv.X-xu.X), Y: xu.Y + weight*(xv.Y-xu.Y)}
		newM := mu.Lerp(mv, weight)
		if newM.HasNaN() {
			return nil, fmt.Errorf("%w: edge (%d,%d) weight %g", ErrDegenerateMetric, f.u, f.v, weight)
		}

		gid := op.mesh.NNodes() // this loop runs single-threaded, so NNodes() is the id AppendVertex is about to hand out
		id := op.mesh.AppendVertex(newX, newM, gid, 0)
		splits[i] = splitEdge{u: f.u, v: f.v, newID: id}
	}
	return splits, nil
}

func sqrtRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if r < 0 {
		r = 0
	}
	return math.Sqrt(r)
}

func key(u, v int64) [2]int64 {
	if u < v {
		return [2]int64{u, v}
	}
	return [2]int64{v, u}
}

// Package coarsen implements edge-collapse coarsening: for each candidate
// vertex too close to a neighbor, collapse it onto that neighbor without
// inverting or over-lengthening any surviving element edge. It plays the
// role a mesh-adaptation "operator" package plays in the teacher's
// kernel-dispatch model, but drives its own goroutine pool via the shared
// parallel package instead of dispatching device kernels.
package coarsen

import (
	"errors"

	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/parallel"
	"github.com/anisomesh/meshadapt/partition"
)

// ErrStaleCandidate names the case where a vertex's cached collapse target
// was invalidated by a neighboring collapse between choose_target and
// collapse. The driver does not return it: a stale target is reset to
// stateStale and recomputed on a later pass.
var ErrStaleCandidate = errors.New("coarsen: candidate target is stale")

const (
	stateInactive = -1
	stateStale    = -2
)

// Params holds the two metric-space length thresholds that bound a
// collapse, plus the degenerate-area-ratio floor.
type Params struct {
	LLow                float64
	LMax                float64
	DegenerateAreaRatio float64
}

// DefaultDegenerateAreaRatio is the area-ratio floor below which a
// candidate collapse is rejected as inverting or degenerating an element.
const DefaultDegenerateAreaRatio = 1e-3

// Mesh is the subset of *mesh.Mesh coarsen needs: adjacency, geometry, and
// the deferred-ops surface, kept narrow so this package never imports
// mesh and mesh never imports coarsen.
type Mesh interface {
	NNodes() int64
	NNList(v int64) []int32
	NEList(v int64) []int32
	Element(e int64) (n0, n1, n2 int32, ok bool)
	Boundary(e int64) (b0, b1, b2 int32)
	Point(v int64) geom.Point
	Metric(v int64) geom.Metric
	IsVertexErased(v int64) bool
	IsOwned(v int64) bool
	IsRecvHalo(v int64) bool
	Kernel() *geom.Kernel
	CalcEdgeLength(u, v int64) float64
	GID(v int64) int64
	ApplyAddNE(u int64, e int64)

	SetElement(e int64, n [3]int32, b [3]int32)
	SetNNList(v int64, neighbors []int32)
	AddNN(u, v int64)
	RemNN(u, v int64)
	EraseVertex(v int64)
	EraseElement(e int64)
}

// SurfaceOracle is Coarsen's boundary-topology collaborator; surface's
// BoundaryOracle satisfies it.
type SurfaceOracle interface {
	IsCornerVertex(v int64) bool
	IsCollapsible(v, neighbor int64) bool
	Collapse(v, t int64)
	ContainsNode(v int64) bool
}

// Operator runs coarsening over a mesh with a fixed surface oracle and
// parameter set.
type Operator struct {
	mesh    Mesh
	surface SurfaceOracle
	params  Params
	workers int

	target []int64 // per-vertex cached choose_target result, or state* sentinel
}

// New constructs a coarsen Operator. If params.DegenerateAreaRatio is
// zero, DefaultDegenerateAreaRatio is used.
func New(m Mesh, s SurfaceOracle, params Params, workers int) *Operator {
	if params.DegenerateAreaRatio == 0 {
		params.DegenerateAreaRatio = DefaultDegenerateAreaRatio
	}
	if workers < 1 {
		workers = 1
	}
	return &Operator{mesh: m, surface: s, params: params, workers: workers}
}

// nnodesGraph adapts Mesh to partition.Graph.
type nnodesGraph struct{ m Mesh }

func (g nnodesGraph) NNodes() int64          { return g.m.NNodes() }
func (g nnodesGraph) NNList(v int64) []int32 { return g.m.NNList(v) }

// Coarsen runs the two-phase parallel driver to a fixed point: Phase 1
// collapses every dynamic vertex whose neighbors all share its worker's
// partition, repeated until no worker makes progress; Phase 2 mops up any
// vertex Phase 1 could not touch because it straddled a partition
// boundary.
func (op *Operator) Coarsen() error {
	n := int(op.mesh.NNodes())
	op.target = make([]int64, n)
	for v := 0; v < n; v++ {
		if len(op.mesh.NNList(int64(v))) == 0 {
			op.target[v] = stateInactive
		} else {
			op.target[v] = stateStale
		}
	}

	if err := op.phase1(); err != nil {
		return err
	}
	return op.phase2()
}

// phase1 alternates a single-threaded setup step (recompute stale
// targets, repartition) with a parallel collapse step, rather than
// folding both into parallel.RunUntilFixedPoint's per-worker closure:
// every worker would otherwise recompute the identical stale targets and
// FastPartition call redundantly, and worse, all workers would write
// op.target concurrently during the recompute, an unsynchronized race.
// Each pass's collapse step is still race-free because part[] assigns
// every vertex to exactly one worker.
func (op *Operator) phase1() error {
	for {
		dynamic := make([]bool, op.mesh.NNodes())
		for v := range op.target {
			if op.target[v] == stateStale {
				op.target[v] = op.chooseTarget(int64(v))
			}
			dynamic[v] = op.target[v] >= 0
		}

		part := partition.FastPartition(nnodesGraph{op.mesh}, op.workers, dynamic)

		// Every worker only ever writes op.target[v] for v in its own
		// partition slice, which keeps that part of the pass race-free.
		// A collapse also invalidates t and t's neighbors' cached
		// targets (spec.md §4.3 step 5), but those vertices can belong
		// to any partition, so each worker records them in its own
		// queue instead of writing op.target directly; the queues are
		// merged into op.target single-threaded once every worker has
		// returned.
		progressFlags := make([]bool, op.workers)
		staleQueues := make([][]int64, op.workers)
		err := parallel.Run(op.workers, func(worker int) error {
			progressed := false
			var stale []int64
			for v := range op.target {
				if int(part[v]) != worker {
					continue
				}
				t := op.target[v]
				if t < 0 {
					continue
				}
				if op.mesh.IsVertexErased(t) {
					op.target[v] = stateStale
					continue
				}
				if !op.mesh.IsOwned(int64(v)) || op.mesh.IsRecvHalo(int64(v)) {
					continue
				}
				if op.crossesPartitionBoundary(int64(v), part, worker) {
					continue
				}
				if op.mesh.IsVertexErased(int64(v)) {
					continue
				}
				op.collapse(int64(v), t)
				op.target[v] = stateInactive
				stale = append(stale, t)
				for _, w := range op.mesh.NNList(t) {
					stale = append(stale, int64(w))
				}
				progressed = true
			}
			staleQueues[worker] = stale
			progressFlags[worker] = progressed
			return nil
		})
		if err != nil {
			return err
		}

		for _, q := range staleQueues {
			for _, w := range q {
				if op.target[w] != stateInactive {
					op.target[w] = stateStale
				}
			}
		}

		any := false
		for _, p := range progressFlags {
			if p {
				any = true
				break
			}
		}
		if !any {
			return nil
		}
	}
}

// phase2 is single-threaded, so a collapse's re-marking of t and its
// neighbors as stale can be applied directly: no concurrent writer to
// race with, and a later index in this same pass will pick up the
// recompute when it's reached.
func (op *Operator) phase2() error {
	for v := range op.target {
		if op.target[v] == stateStale {
			op.target[v] = op.chooseTarget(int64(v))
		}
		t := op.target[v]
		if t < 0 {
			continue
		}
		if op.mesh.IsVertexErased(t) {
			op.target[v] = stateStale
			continue
		}
		if op.mesh.IsVertexErased(int64(v)) {
			continue
		}
		if !op.mesh.IsOwned(int64(v)) || op.mesh.IsRecvHalo(int64(v)) {
			continue
		}
		op.collapse(int64(v), t)
		op.target[v] = stateInactive
		if op.target[t] != stateInactive {
			op.target[t] = stateStale
		}
		for _, w32 := range op.mesh.NNList(t) {
			w := int64(w32)
			if op.target[w] != stateInactive {
				op.target[w] = stateStale
			}
		}
	}
	return nil
}

func (op *Operator) crossesPartitionBoundary(v int64, part []int32, worker int) bool {
	for _, w := range op.mesh.NNList(v) {
		if int(part[w]) != worker {
			return true
		}
	}
	return false
}

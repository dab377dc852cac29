// Package swap implements the 2D diagonal edge-flip operator: for each
// interior edge shared by two triangles, flip it when doing so improves
// the worse of the two elements' quality. Concurrency is driven by a
// greedy-colored independent set from the partition package, mirroring
// the teacher's habit of pushing scheduling policy into a shared package
// rather than duplicating it per operator.
package swap

import (
	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/parallel"
	"github.com/anisomesh/meshadapt/partition"
)

// Mesh is the subset of *mesh.Mesh swap needs.
type Mesh interface {
	NNodes() int64
	NNList(v int64) []int32
	NEList(v int64) []int32
	Element(e int64) (n0, n1, n2 int32, ok bool)
	Boundary(e int64) (b0, b1, b2 int32)
	Point(v int64) geom.Point
	Metric(v int64) geom.Metric
	Kernel() *geom.Kernel
	IsOwned(v int64) bool
	IsHalo(v int64) bool

	SetElement(e int64, n [3]int32, b [3]int32)
	DeferAddNN(u, v int64, worker int)
	DeferRemNN(u, v int64, worker int)
	DeferAddNE(v, e int64, worker int)
	DeferRemNE(v, e int64, worker int)
	CommitAllDeferred() error
}

// Params holds the quality floor and the gating-mode switch.
type Params struct {
	QMin       float64
	GateOnQMin bool
}

// Operator runs edge-flipping over a mesh.
type Operator struct {
	mesh    Mesh
	params  Params
	workers int
}

// New constructs a swap Operator.
func New(m Mesh, params Params, workers int) *Operator {
	if workers < 1 {
		workers = 1
	}
	return &Operator{mesh: m, params: params, workers: workers}
}

type graphAdapter struct{ m Mesh }

func (g graphAdapter) NNodes() int64          { return g.m.NNodes() }
func (g graphAdapter) NNList(v int64) []int32 { return g.m.NNList(v) }

// Swap runs marked-vertex passes to a fixed point: greedily color the
// vertex graph restricted to marked vertices, take the largest active color
// class as this pass's independent set, try every edge whose lower-indexed
// endpoint is in that class, re-mark the four vertices of every accepted
// flip, and repeat until no vertex remains marked.
func (op *Operator) Swap() error {
	n := op.mesh.NNodes()
	marked := make([]bool, n)
	for v := int64(0); v < n; v++ {
		marked[v] = true // every vertex starts eligible for edge examination
	}

	for {
		anyMarked := false
		for _, m := range marked {
			if m {
				anyMarked = true
				break
			}
		}
		if !anyMarked {
			return nil
		}

		priority := make([]float64, n)
		for v := int64(0); v < n; v++ {
			priority[v] = float64(v)
		}
		coloring := partition.GreedyColor(graphAdapter{op.mesh}, priority, marked)
		indep := partition.LargestActiveColorClass(coloring, marked)
		if len(indep) == 0 {
			return nil
		}

		indepSet := make(map[int64]bool, len(indep))
		for _, v := range indep {
			indepSet[v] = true
			marked[v] = false
		}

		if err := op.processIndependentSet(indep, marked); err != nil {
			return err
		}
		if err := op.mesh.CommitAllDeferred(); err != nil {
			return err
		}
	}
}

func (op *Operator) processIndependentSet(indep []int64, marked []bool) error {
	return parallel.Run(op.workers, func(w int) error {
		for i := w; i < len(indep); i += op.workers {
			v := indep[i]
			if op.mesh.IsHalo(v) || !op.mesh.IsOwned(v) {
				continue
			}
			for _, u32 := range op.mesh.NNList(v) {
				u := int64(u32)
				if u < v {
					continue // each undirected edge examined once, by its lower-indexed endpoint
				}
				op.tryFlip(v, u, marked, w)
			}
		}
		return nil
	})
}

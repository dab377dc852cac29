// Package mesh implements the shared-memory mesh store: element-node list,
// coordinates, per-vertex metric, NNList/NEList adjacency, boundary tags,
// vertex/element tombstones, and defragmentation. Coarsen, Refine, and Swap
// hold a non-owning reference to a Mesh and mutate it through this API,
// either directly (single-threaded regions) or via the deferred-ops buffer
// (parallel regions).
package mesh

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/anisomesh/meshadapt/deferred"
	"github.com/anisomesh/meshadapt/geom"
	"github.com/anisomesh/meshadapt/halo"
)

// Tombstone marks a deleted element's first node slot, per the data
// model's "tombstoned with n0 < 0" rule.
const Tombstone int32 = -1

// ErrNoLiveElement is returned by BakeOrientation when the mesh has no
// live element to derive an orientation sign from.
var ErrNoLiveElement = errors.New("mesh: no live element to bake orientation from")

// ErrNotReserved is a programmer error: AppendVertex/AppendElement was
// called without a prior Reserve large enough to hold the new id. Per
// spec.md §7, this is a fatal diagnostic, not a runtime input error.
var ErrNotReserved = errors.New("mesh: append exceeds reserved capacity")

// Element is a triple of vertex indices in a fixed orientation (signed
// area > 0 once live), plus the boundary tag opposite each vertex.
type Element struct {
	N        [3]int32
	Boundary [3]int32
}

// IsLive reports whether the element has not been tombstoned.
func (e Element) IsLive() bool { return e.N[0] >= 0 }

// Mesh owns all vertex and element storage. NNList/NEList are owned here
// too, mutated directly in single-threaded regions or through the deferred
// buffer during parallel regions.
type Mesh struct {
	mu sync.RWMutex // exclusive during Reserve; shared during Append

	coords  []geom.Point
	metrics []geom.Metric
	gid     []int64
	owner   []int32
	vErased []bool

	elements []Element

	nn [][]int32
	ne [][]int32

	nNodes    atomic.Int64
	nElements atomic.Int64

	kernel *geom.Kernel
	halo   halo.Oracle

	deferred *deferred.Buffer
}

// Config sizes the deferred-ops buffer's worker/bucket dimensions at
// construction, mirroring the teacher's builder.Config{...} literal-config
// convention rather than a fluent options API.
type Config struct {
	Workers int
	Buckets int
}

// NewMesh constructs an empty mesh backed by the given halo oracle. Vertex
// and element storage must be sized with Reserve, then populated with
// AppendVertex/AppendElement, before BakeOrientation and any operator run.
func NewMesh(h halo.Oracle, cfg Config) *Mesh {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Buckets < 1 {
		cfg.Buckets = 1
	}
	return &Mesh{
		halo:     h,
		deferred: deferred.New(cfg.Workers, cfg.Buckets),
	}
}

// NNodes returns the high-water vertex count, including tombstoned slots.
func (m *Mesh) NNodes() int64 { return m.nNodes.Load() }

// NElements returns the high-water element count, including tombstones.
func (m *Mesh) NElements() int64 { return m.nElements.Load() }

// Coords returns vertex v's coordinates.
func (m *Mesh) Coords(v int64) (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.coords[v]
	return p.X, p.Y
}

// Point returns vertex v's coordinates as a geom.Point.
func (m *Mesh) Point(v int64) geom.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coords[v]
}

// Metric returns vertex v's metric tensor.
func (m *Mesh) Metric(v int64) geom.Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics[v]
}

// GID returns vertex v's global id, the deterministic tie-break key used
// throughout the operators.
func (m *Mesh) GID(v int64) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gid[v]
}

// Owner returns vertex v's owning rank, used by the halo oracle and by
// operators that must not let a worker mutate a vertex it does not own.
func (m *Mesh) Owner(v int64) int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner[v]
}

// Element returns element e's three vertex ids and whether it is live.
func (m *Mesh) Element(e int64) (n0, n1, n2 int32, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el := m.elements[e]
	return el.N[0], el.N[1], el.N[2], el.IsLive()
}

// Boundary returns element e's three boundary tags, bi opposite vertex ni.
func (m *Mesh) Boundary(e int64) (b0, b1, b2 int32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el := m.elements[e]
	return el.Boundary[0], el.Boundary[1], el.Boundary[2]
}

// NNList returns a copy of vertex v's neighbor list. Copying keeps callers
// from observing (or corrupting) the live adjacency slice while another
// goroutine commits deferred edits against it.
func (m *Mesh) NNList(v int64) []int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.nn[v]
	out := make([]int32, len(src))
	copy(out, src)
	return out
}

// NEList returns a copy of vertex v's incident element list.
func (m *Mesh) NEList(v int64) []int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.ne[v]
	out := make([]int32, len(src))
	copy(out, src)
	return out
}

// IsVertexErased reports whether v has been logically deleted.
func (m *Mesh) IsVertexErased(v int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vErased[v]
}

// Kernel returns the geometry kernel with this mesh's baked orientation.
func (m *Mesh) Kernel() *geom.Kernel { return m.kernel }

// CalcEdgeLength delegates to the geometry kernel's metric length.
func (m *Mesh) CalcEdgeLength(u, v int64) float64 {
	xu, yu := m.Coords(u)
	xv, yv := m.Coords(v)
	return m.kernel.LengthM(geom.Point{X: xu, Y: yu}, geom.Point{X: xv, Y: yv}, m.Metric(u), m.Metric(v))
}

// IsOwned delegates to the halo oracle.
func (m *Mesh) IsOwned(v int64) bool { return m.halo.IsOwned(v) }

// IsHalo delegates to the halo oracle.
func (m *Mesh) IsHalo(v int64) bool { return m.halo.IsHalo(v) }

// IsRecvHalo delegates to the halo oracle's receive-halo predicate, used by
// Coarsen to skip edges crossing a receive-halo boundary.
func (m *Mesh) IsRecvHalo(v int64) bool { return m.halo.RecvHaloContains(v) }

// BakeOrientation captures the sign of the first live element's raw
// shoelace area and bakes it into the mesh's geometry kernel, per the data
// model's "orientation baked in, not configurable" rule. It must run once,
// after the initial import populates elements, before any operator call.
func (m *Mesh) BakeOrientation() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.elements {
		if !e.IsLive() {
			continue
		}
		raw := geom.NewKernel(1).Area(m.coords[e.N[0]], m.coords[e.N[1]], m.coords[e.N[2]])
		sign := 1.0
		if raw < 0 {
			sign = -1
		}
		m.kernel = geom.NewKernel(sign)
		return nil
	}
	return ErrNoLiveElement
}

func (m *Mesh) String() string {
	return fmt.Sprintf("mesh{nodes=%d elements=%d}", m.NNodes(), m.NElements())
}

// Package surface implements the boundary/surface oracle: corner detection
// and the is_collapsible predicate that keeps Coarsen from distorting
// boundary topology. It is a collaborator supplied to the Coarsen operator,
// not a dependency of the Mesh store itself.
package surface

import "math"

// MeshReader is the narrow read-only view of mesh connectivity the
// boundary oracle needs. mesh.Mesh satisfies it structurally; this package
// never imports mesh, avoiding an import cycle.
type MeshReader interface {
	NElements() int64
	Element(e int64) (n0, n1, n2 int32, ok bool)
	Boundary(e int64) (b0, b1, b2 int32)
	Coords(v int64) (x, y float64)
}

// Oracle answers boundary-topology questions the way spec.md's §4.3 and §6
// describe: corner detection, collapsibility, patch merging on collapse,
// and surface membership.
type Oracle interface {
	IsCornerVertex(v int64) bool
	IsCollapsible(v, neighbor int64) bool
	Collapse(v, t int64)
	ContainsNode(v int64) bool
}

// facet records one boundary edge incident to a vertex: which patch it
// belongs to and the edge's unit direction, used to detect non-collinear
// patches meeting at a vertex.
type facet struct {
	tag       int32
	dirX      float64
	dirY      float64
}

// BoundaryOracle is the default single-process Oracle, built once from a
// mesh snapshot and then kept in sync as Coarsen merges vertices.
type BoundaryOracle struct {
	mesh MeshReader
	// cosCornerThreshold is the cosine of the minimum angle between two
	// differently-tagged boundary edges at a vertex for it to count as a
	// corner. 1-1e-6 means "not collinear to within a tiny tolerance".
	cosCornerThreshold float64
	facets             map[int64][]facet
}

// NewBoundaryOracle scans every element's boundary tags and builds the
// per-vertex facet table corner detection and collapsibility need.
func NewBoundaryOracle(m MeshReader) *BoundaryOracle {
	o := &BoundaryOracle{
		mesh:               m,
		cosCornerThreshold: 1 - 1e-6,
		facets:             make(map[int64][]facet),
	}
	o.rebuild()
	return o
}

func (o *BoundaryOracle) rebuild() {
	n := o.mesh.NElements()
	for e := int64(0); e < n; e++ {
		n0, n1, n2, ok := o.mesh.Element(e)
		if !ok {
			continue
		}
		b0, b1, b2 := o.mesh.Boundary(e)
		// Edge i is opposite vertex i; edge 0 is (n1,n2), edge 1 is
		// (n0,n2), edge 2 is (n0,n1) -- matches the ENList/edgeNumber
		// convention the refine operator also uses.
		o.addFacet(int64(n1), int64(n2), b0)
		o.addFacet(int64(n2), int64(n0), b1)
		o.addFacet(int64(n0), int64(n1), b2)
	}
}

func (o *BoundaryOracle) addFacet(a, b int64, tag int32) {
	if tag == 0 {
		return
	}
	ax, ay := o.mesh.Coords(a)
	bx, by := o.mesh.Coords(b)
	dx, dy := bx-ax, by-ay
	norm := math.Hypot(dx, dy)
	if norm > 0 {
		dx, dy = dx/norm, dy/norm
	}
	f := facet{tag: tag, dirX: dx, dirY: dy}
	o.facets[a] = append(o.facets[a], f)
	o.facets[b] = append(o.facets[b], facet{tag: tag, dirX: -dx, dirY: -dy})
}

// ContainsNode reports whether v carries any boundary facet.
func (o *BoundaryOracle) ContainsNode(v int64) bool {
	return len(o.facets[v]) > 0
}

func (o *BoundaryOracle) tags(v int64) map[int32]struct{} {
	fs := o.facets[v]
	if len(fs) == 0 {
		return nil
	}
	set := make(map[int32]struct{}, len(fs))
	for _, f := range fs {
		set[f.tag] = struct{}{}
	}
	return set
}

// IsCornerVertex reports whether v is incident to at least two distinct
// boundary patches whose facet directions are not collinear at v.
func (o *BoundaryOracle) IsCornerVertex(v int64) bool {
	fs := o.facets[v]
	if len(fs) < 2 {
		return false
	}
	for i := 0; i < len(fs); i++ {
		for j := i + 1; j < len(fs); j++ {
			if fs[i].tag == fs[j].tag {
				continue
			}
			dot := fs[i].dirX*fs[j].dirX + fs[i].dirY*fs[j].dirY
			if math.Abs(dot) < o.cosCornerThreshold {
				return true
			}
		}
	}
	return false
}

// IsCollapsible reports whether v may be collapsed onto neighbor without
// distorting the boundary: corners never move, and a boundary vertex may
// only collapse onto a vertex that shares at least one of its patches, so
// the surviving vertex is never pulled off the surface it was on.
func (o *BoundaryOracle) IsCollapsible(v, neighbor int64) bool {
	if o.IsCornerVertex(v) {
		return false
	}
	vTags := o.tags(v)
	if vTags == nil {
		return true
	}
	nTags := o.tags(neighbor)
	for t := range vTags {
		if _, ok := nTags[t]; ok {
			return true
		}
	}
	return false
}

// Collapse merges v's facet membership into t's, the surface-side half of
// a coarsen collapse. It must only be called when both v and t already lie
// on the surface (ContainsNode true for both), matching spec.md §4.3 step 2.
func (o *BoundaryOracle) Collapse(v, t int64) {
	o.facets[t] = append(o.facets[t], o.facets[v]...)
	delete(o.facets, v)
}

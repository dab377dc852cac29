package mesh

import (
	"fmt"
	"strings"
)

// InvariantViolation names one broken invariant and the offending id, so
// callers can report exactly which vertex/element failed which check
// instead of a single opaque "mesh is broken" error.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (v InvariantViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Invariant, v.Detail)
}

// VerifyError collects every InvariantViolation Verify found in one pass.
type VerifyError struct {
	Violations []InvariantViolation
}

func (e *VerifyError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return fmt.Sprintf("mesh: %d invariant violation(s):\n%s", len(e.Violations), strings.Join(lines, "\n"))
}

// Verify checks the invariants spec.md §3 requires hold between operator
// calls: live elements have positive area under the baked orientation
// (I1), NNList/NEList symmetry (I2/I3-ish adjacency consistency), and that
// every live element's vertices are themselves live (I4). It never mutates
// the mesh and is meant to run in tests and between fixed-point passes,
// not on every operator call.
func (m *Mesh) Verify() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var violations []InvariantViolation

	for e, el := range m.elements {
		if !el.IsLive() {
			continue
		}
		for _, v := range el.N {
			if m.vErased[v] {
				violations = append(violations, InvariantViolation{
					Invariant: "I4-live-element-live-vertices",
					Detail:    fmt.Sprintf("element %d references erased vertex %d", e, v),
				})
			}
			if !containsInt32(m.ne[v], int32(e)) {
				violations = append(violations, InvariantViolation{
					Invariant: "I3-nelist-consistency",
					Detail:    fmt.Sprintf("element %d references vertex %d, but vertex %d's NEList omits it", e, v, v),
				})
			}
		}
		area := m.kernel.Area(m.coords[el.N[0]], m.coords[el.N[1]], m.coords[el.N[2]])
		if area <= 0 {
			violations = append(violations, InvariantViolation{
				Invariant: "I1-positive-area",
				Detail:    fmt.Sprintf("element %d has non-positive area %g under baked orientation", e, area),
			})
		}
	}

	for v := range m.coords {
		if m.vErased[v] {
			if len(m.nn[v]) != 0 {
				violations = append(violations, InvariantViolation{
					Invariant: "I2-erased-vertex-empty-nnlist",
					Detail:    fmt.Sprintf("erased vertex %d still has %d neighbors", v, len(m.nn[v])),
				})
			}
			continue
		}
		for _, u := range m.nn[v] {
			if !containsInt32(m.nn[u], int32(v)) {
				violations = append(violations, InvariantViolation{
					Invariant: "I2-nnlist-symmetry",
					Detail:    fmt.Sprintf("vertex %d lists %d as a neighbor but not vice versa", v, u),
				})
			}
		}
		for _, e := range m.ne[v] {
			el := m.elements[e]
			if !el.IsLive() || !containsInt32Elem(el.N, int32(v)) {
				violations = append(violations, InvariantViolation{
					Invariant: "I3-nelist-consistency",
					Detail:    fmt.Sprintf("vertex %d lists element %d, which is not live or does not reference it", v, e),
				})
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &VerifyError{Violations: violations}
}

func containsInt32(s []int32, v int32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func containsInt32Elem(n [3]int32, v int32) bool {
	return n[0] == v || n[1] == v || n[2] == v
}

// Defragment compacts live vertices and elements to a dense prefix,
// dropping tombstoned slots, and writes the old-id -> new-id permutation
// into mapOut (mapOut[old] == -1 for erased vertices). This is the
// compaction step spec.md §7 describes after a batch of Coarsen/Refine
// passes has accumulated tombstones.
func (m *Mesh) Defragment(mapOut *[]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldNVerts := len(m.coords)
	perm := make([]int64, oldNVerts)

	newCoords := m.coords[:0:0]
	newMetrics := m.metrics[:0:0]
	newGID := m.gid[:0:0]
	newOwner := m.owner[:0:0]
	newErased := m.vErased[:0:0]
	newNN := m.nn[:0:0]
	newNE := m.ne[:0:0]

	next := int64(0)
	for old := 0; old < oldNVerts; old++ {
		if m.vErased[old] {
			perm[old] = -1
			continue
		}
		perm[old] = next
		next++
		newCoords = append(newCoords, m.coords[old])
		newMetrics = append(newMetrics, m.metrics[old])
		newGID = append(newGID, m.gid[old])
		newOwner = append(newOwner, m.owner[old])
		newErased = append(newErased, false)
		newNN = append(newNN, m.nn[old])
		newNE = append(newNE, m.ne[old])
	}

	remap := func(s []int32) []int32 {
		out := s[:0]
		for _, v := range s {
			nv := perm[v]
			if nv < 0 {
				continue
			}
			out = append(out, int32(nv))
		}
		return out
	}
	for i := range newNN {
		newNN[i] = remap(newNN[i])
	}

	oldNElems := len(m.elements)
	newElements := m.elements[:0:0]
	for old := 0; old < oldNElems; old++ {
		el := m.elements[old]
		if !el.IsLive() {
			continue
		}
		remapped := Element{
			N:        [3]int32{int32(perm[el.N[0]]), int32(perm[el.N[1]]), int32(perm[el.N[2]])},
			Boundary: el.Boundary,
		}
		newElements = append(newElements, remapped)
	}
	for i := range newNE {
		newNE[i] = newNE[i][:0]
	}
	for e, el := range newElements {
		for _, v := range el.N {
			newNE[v] = append(newNE[v], int32(e))
		}
	}

	m.coords = newCoords
	m.metrics = newMetrics
	m.gid = newGID
	m.owner = newOwner
	m.vErased = newErased
	m.nn = newNN
	m.ne = newNE
	m.elements = newElements
	m.nNodes.Store(int64(len(newCoords)))
	m.nElements.Store(int64(len(newElements)))

	if mapOut != nil {
		*mapOut = perm
	}
	return nil
}

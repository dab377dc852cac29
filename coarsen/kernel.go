package coarsen

import "sort"

// chooseTarget implements choose_target(v): pick a collapse target among
// v's short edges, or report -1 (inactive, never worth revisiting) or -2
// (recompute later, e.g. a neighboring collapse changed v's patch).
func (op *Operator) chooseTarget(v int64) int64 {
	nn := op.mesh.NNList(v)
	if len(nn) == 0 {
		return stateInactive
	}
	if op.surface.IsCornerVertex(v) || !op.mesh.IsOwned(v) {
		return stateInactive
	}

	type candidate struct {
		length float64
		gid    int64
		id     int64
	}
	var candidates []candidate
	for _, w32 := range nn {
		w := int64(w32)
		if op.mesh.IsRecvHalo(w) {
			continue
		}
		l := op.mesh.CalcEdgeLength(v, w)
		if l >= op.params.LLow {
			continue
		}
		if !op.surface.IsCollapsible(v, w) {
			continue
		}
		candidates = append(candidates, candidate{length: l, gid: op.mesh.GID(w), id: w})
	}
	if len(candidates) == 0 {
		return stateInactive
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].length != candidates[j].length {
			return candidates[i].length < candidates[j].length
		}
		return candidates[i].gid < candidates[j].gid
	})

	for _, c := range candidates {
		if op.isValidTarget(v, c.id) {
			return c.id
		}
	}
	return stateStale
}

// isValidTarget implements steps 3a-3c of choose_target: no inversion or
// degeneration among surviving elements, and no surviving edge lengthened
// past L_max.
func (op *Operator) isValidTarget(v, t int64) bool {
	disappearing := intersect(op.mesh.NEList(v), op.mesh.NEList(t))

	for _, e := range op.mesh.NEList(v) {
		if containsInt64(disappearing, e) {
			continue
		}
		n0, n1, n2, ok := op.mesh.Element(e)
		if !ok {
			continue
		}
		orig := op.mesh.Kernel().Area(op.mesh.Point(int64(n0)), op.mesh.Point(int64(n1)), op.mesh.Point(int64(n2)))
		n0r, n1r, n2r := replaceVertex(n0, n1, n2, int32(v), int32(t))
		newArea := op.mesh.Kernel().Area(op.mesh.Point(int64(n0r)), op.mesh.Point(int64(n1r)), op.mesh.Point(int64(n2r)))
		if orig == 0 {
			return false
		}
		if newArea/orig <= op.params.DegenerateAreaRatio {
			return false
		}
	}

	for _, w32 := range op.mesh.NNList(v) {
		w := int64(w32)
		if w == t {
			continue
		}
		if op.mesh.CalcEdgeLength(t, w) > op.params.LMax {
			return false
		}
	}
	return true
}

// collapse implements collapse(v, t): erase the disappearing elements,
// merge boundary topology and surface facets, repoint v's remaining
// incident elements and neighbors onto t, and tombstone v.
func (op *Operator) collapse(v, t int64) {
	disappearing := intersect(op.mesh.NEList(v), op.mesh.NEList(t))
	for _, e := range disappearing {
		op.inheritBoundaryOnCollapse(e, v, t)
		op.mesh.EraseElement(e)
	}

	if op.surface.ContainsNode(v) && op.surface.ContainsNode(t) {
		op.surface.Collapse(v, t)
	}

	for _, e := range op.mesh.NEList(v) {
		if containsInt64(disappearing, e) {
			continue
		}
		n0, n1, n2, ok := op.mesh.Element(e)
		if !ok {
			continue
		}
		b0, b1, b2 := op.mesh.Boundary(e)
		nn0, nn1, nn2 := replaceVertex(n0, n1, n2, int32(v), int32(t))
		op.mesh.SetElement(e, [3]int32{nn0, nn1, nn2}, [3]int32{b0, b1, b2})
		op.mesh.ApplyAddNE(t, e)
	}

	newPatch := op.nodePatch(t, v)
	inPatch := make(map[int64]bool, len(newPatch))
	for _, w := range newPatch {
		inPatch[w] = true
	}

	for _, w32 := range op.mesh.NNList(v) {
		w := int64(w32)
		if w == t {
			continue
		}
		if inPatch[w] {
			op.mesh.RemNN(w, v)
			op.mesh.RemNN(w, t)
			op.mesh.AddNN(w, t)
		} else {
			op.mesh.RemNN(w, v)
			op.mesh.AddNN(w, t)
			op.mesh.AddNN(t, w)
		}
	}
	op.mesh.SetNNList(t, newPatch)

	op.mesh.EraseVertex(v)
}

// nodePatch recomputes t's neighbor set from its (post-collapse) incident
// elements, excluding t itself and the vertex being removed.
func (op *Operator) nodePatch(t, removed int64) []int32 {
	seen := map[int32]struct{}{}
	var out []int32
	for _, e := range op.mesh.NEList(t) {
		n0, n1, n2, ok := op.mesh.Element(e)
		if !ok {
			continue
		}
		for _, n := range [3]int32{n0, n1, n2} {
			if int64(n) == t || int64(n) == removed {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// inheritBoundaryOnCollapse gives the two surviving edges of a
// disappearing element the boundary tag of the edge opposite the merged
// vertex, per spec.md §4.3 step 1. e itself is tombstoned by the caller
// right after this returns, so the tag has to land on whichever other
// element shares each surviving edge, not on e.
func (op *Operator) inheritBoundaryOnCollapse(e, v, t int64) {
	n0, n1, n2, ok := op.mesh.Element(e)
	if !ok {
		return
	}
	b0, b1, b2 := op.mesh.Boundary(e)
	n := [3]int32{n0, n1, n2}
	b := [3]int32{b0, b1, b2}

	vIdx, tIdx := -1, -1
	for i, x := range n {
		if int64(x) == v {
			vIdx = i
		}
		if int64(x) == t {
			tIdx = i
		}
	}
	if vIdx < 0 || tIdx < 0 {
		return
	}
	oppositeOfMerged := 3 - vIdx - tIdx
	w := int64(n[oppositeOfMerged])
	tag := b[oppositeOfMerged]
	if tag == 0 {
		return
	}
	op.setEdgeTagAcross(e, t, w, tag)
	op.setEdgeTagAcross(e, v, w, tag)
}

// setEdgeTagAcross finds the element other than from that shares edge
// (a,b) -- at most one, on a manifold mesh -- and sets its boundary tag
// for that edge.
func (op *Operator) setEdgeTagAcross(from, a, b int64, tag int32) {
	shared := intersect(op.mesh.NEList(a), op.mesh.NEList(b))
	for _, e := range shared {
		if e == from {
			continue
		}
		n0, n1, n2, ok := op.mesh.Element(e)
		if !ok {
			continue
		}
		n := [3]int32{n0, n1, n2}
		bb0, bb1, bb2 := op.mesh.Boundary(e)
		bt := [3]int32{bb0, bb1, bb2}
		for i, x := range n {
			if int64(x) != a && int64(x) != b {
				bt[i] = tag
			}
		}
		op.mesh.SetElement(e, n, bt)
	}
}

func intersect(a, b []int32) []int64 {
	set := make(map[int32]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	var out []int64
	for _, x := range b {
		if _, ok := set[x]; ok {
			out = append(out, int64(x))
		}
	}
	return out
}

func containsInt64(s []int64, v int64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func replaceVertex(n0, n1, n2, from, to int32) (int32, int32, int32) {
	if n0 == from {
		n0 = to
	}
	if n1 == from {
		n1 = to
	}
	if n2 == from {
		n2 = to
	}
	return n0, n1, n2
}

package swap

// tryFlip examines interior edge (u,v), shared by the two triangles whose
// third vertices are n and m, and flips it if doing so strictly improves
// the worse-quality element. Refused conditions (halo endpoint, an edge not
// shared by exactly two elements or touching a tombstoned element, equal
// third vertices) are silently skipped; the NNList relation of the four
// vertices is not rechecked.
func (op *Operator) tryFlip(u, v int64, marked []bool, worker int) {
	if op.mesh.IsHalo(u) || op.mesh.IsHalo(v) {
		return
	}

	e0, e1, ok := op.findSharedElements(u, v)
	if !ok {
		return
	}
	n, ok := op.thirdVertex(e0, u, v)
	if !ok {
		return
	}
	m, ok := op.thirdVertex(e1, u, v)
	if !ok || m == n {
		return
	}

	qOld := minQuality(op.qualityOf(u, v, n), op.qualityOf(v, u, m))
	if op.params.GateOnQMin && qOld >= op.params.QMin {
		return
	}

	qNew := minQuality(op.qualityOf(n, m, v), op.qualityOf(n, u, m))
	if qNew <= qOld {
		return
	}

	b0u, b0v, _ := op.edgeTagsOf(e0, u, v, n)
	b1v, b1u, _ := op.edgeTagsOf(e1, v, u, m)

	// T0' = (n, m, v): edge (n,m) is new/interior, (m,v) inherits old T1's
	// (v,m) edge tag, (v,n) inherits from old T0's (v,n) edge.
	op.mesh.SetElement(e0, [3]int32{int32(n), int32(m), int32(v)}, [3]int32{b1u, b0u, 0})
	// T1' = (n, u, m): (u,m) inherits old T1's (u,m) edge tag, (m,n) new/interior,
	// (n,u) inherits old T0's (u,n) edge tag.
	op.mesh.SetElement(e1, [3]int32{int32(n), int32(u), int32(m)}, [3]int32{b1v, 0, b0v})

	op.mesh.DeferRemNN(u, v, worker)
	op.mesh.DeferRemNN(v, u, worker)
	op.mesh.DeferAddNN(n, m, worker)
	op.mesh.DeferAddNN(m, n, worker)

	op.mesh.DeferRemNE(u, e0, worker)
	op.mesh.DeferAddNE(n, e1, worker)
	op.mesh.DeferRemNE(v, e1, worker)
	op.mesh.DeferAddNE(m, e0, worker)

	markVertex(marked, u)
	markVertex(marked, v)
	markVertex(marked, n)
	markVertex(marked, m)
}

func markVertex(marked []bool, v int64) {
	if int(v) < len(marked) {
		marked[v] = true
	}
}

// findSharedElements returns the (at most two) elements incident to both u
// and v. Interior edges have exactly two; boundary edges have one, which
// is not swappable.
func (op *Operator) findSharedElements(u, v int64) (int64, int64, bool) {
	neU := op.mesh.NEList(u)
	set := make(map[int32]bool, len(neU))
	for _, e := range neU {
		set[e] = true
	}
	var shared []int64
	for _, e := range op.mesh.NEList(v) {
		if set[e] {
			shared = append(shared, int64(e))
		}
	}
	if len(shared) != 2 {
		return 0, 0, false
	}
	return shared[0], shared[1], true
}

// thirdVertex returns element e's vertex that is neither u nor v.
func (op *Operator) thirdVertex(e, u, v int64) (int64, bool) {
	n0, n1, n2, ok := op.mesh.Element(e)
	if !ok {
		return 0, false
	}
	for _, n := range [3]int32{n0, n1, n2} {
		if int64(n) != u && int64(n) != v {
			return int64(n), true
		}
	}
	return 0, false
}

// edgeTagsOf returns element e's boundary tags reindexed to the caller's
// (a, b, c) vertex order, i.e. tag[i] is the tag opposite vertex i in that
// order.
func (op *Operator) edgeTagsOf(e, a, b, c int64) (ta, tb, tc int32) {
	n0, n1, n2, ok := op.mesh.Element(e)
	if !ok {
		return 0, 0, 0
	}
	b0, b1, b2 := op.mesh.Boundary(e)
	n := [3]int32{n0, n1, n2}
	bs := [3]int32{b0, b1, b2}
	// boundary[i] is opposite n[i]; find returns the tag opposite vertex v.
	find := func(v int64) int32 {
		for i, x := range n {
			if int64(x) == v {
				return bs[i]
			}
		}
		return 0
	}
	return find(a), find(b), find(c)
}

func (op *Operator) qualityOf(a, b, c int64) float64 {
	q, err := op.mesh.Kernel().Lipnikov(
		op.mesh.Point(a), op.mesh.Point(b), op.mesh.Point(c),
		op.mesh.Metric(a), op.mesh.Metric(b), op.mesh.Metric(c),
	)
	if err != nil {
		return 0
	}
	return q
}

func minQuality(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

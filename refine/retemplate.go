package refine

import "github.com/anisomesh/meshadapt/parallel"

// retemplateAll walks every original element (ids [0, nOrig)), determines
// how many of its three edges were split, and dispatches to the matching
// k=1/2/3 template. All adjacency edits go through the deferred buffer so
// concurrent workers never race on NNList/NEList.
func (op *Operator) retemplateAll(nOrig int64, edgeNewVertex map[[2]int64]int64) error {
	return parallel.Run(op.workers, func(w int) error {
		for e := int64(w); e < nOrig; e += int64(op.workers) {
			n0, n1, n2, ok := op.mesh.Element(e)
			if !ok {
				continue
			}
			b0, b1, b2 := op.mesh.Boundary(e)
			n := [3]int32{n0, n1, n2}
			b := [3]int32{b0, b1, b2}

			// edge i is opposite vertex i: edge0=(n1,n2), edge1=(n2,n0), edge2=(n0,n1)
			s0, has0 := edgeNewVertex[key(int64(n1), int64(n2))]
			s1, has1 := edgeNewVertex[key(int64(n2), int64(n0))]
			s2, has2 := edgeNewVertex[key(int64(n0), int64(n1))]

			k := 0
			if has0 {
				k++
			}
			if has1 {
				k++
			}
			if has2 {
				k++
			}

			switch k {
			case 0:
				// unaffected
			case 1:
				op.templateOneSplit(e, n, b, has0, s0, has1, s1, has2, s2, w)
			case 2:
				op.templateTwoSplit(e, n, b, has0, s0, has1, s1, has2, s2, w)
			case 3:
				op.templateThreeSplit(e, n, b, s0, s1, s2, w)
			}
		}
		return nil
	})
}

// templateOneSplit handles a single split edge: two sub-triangles sharing
// the new vertex, replacing the original element in place and appending
// one new element.
func (op *Operator) templateOneSplit(e int64, n [3]int32, b [3]int32, has0 bool, s0 int64, has1 bool, s1 int64, has2 bool, s2 int64, worker int) {
	// tagFarB is the original tag opposite farA (edge oppVert-farB);
	// tagFarA is the original tag opposite farB (edge oppVert-farA).
	var newV, oppVert, farA, farB, tagSplit, tagFarB, tagFarA int32
	switch {
	case has0: // edge (n1,n2) split; opposite vertex n0
		newV, oppVert, farA, farB, tagSplit, tagFarB, tagFarA = int32(s0), n[0], n[1], n[2], b[0], b[1], b[2]
	case has1: // edge (n2,n0) split; opposite vertex n1
		newV, oppVert, farA, farB, tagSplit, tagFarB, tagFarA = int32(s1), n[1], n[2], n[0], b[1], b[2], b[0]
	default: // edge (n0,n1) split; opposite vertex n2
		newV, oppVert, farA, farB, tagSplit, tagFarB, tagFarA = int32(s2), n[2], n[0], n[1], b[2], b[0], b[1]
	}

	// The two sub-triangles (oppVert, farA, newV) and (oppVert, newV,
	// farB) each get one half of the split edge's tag on their outer
	// side, keep the original un-split edge's tag on the edge that
	// survives unchanged, and leave the new shared internal edge
	// (oppVert, newV) interior.
	op.mesh.SetElement(e, [3]int32{oppVert, farA, newV}, [3]int32{tagSplit, 0, tagFarA})
	newE := op.mesh.AppendElement([3]int32{oppVert, newV, farB}, [3]int32{tagSplit, tagFarB, 0})

	op.mesh.DeferAddNE(int64(oppVert), newE, worker)
	op.mesh.DeferAddNE(int64(newV), newE, worker)
	op.mesh.DeferAddNE(int64(newV), e, worker)
	op.mesh.DeferAddNE(int64(farB), newE, worker)
	op.mesh.DeferRemNE(int64(farB), e, worker)

	op.mesh.DeferAddNN(int64(oppVert), int64(newV), worker)
	op.mesh.DeferAddNN(int64(newV), int64(oppVert), worker)
}

// templateTwoSplit handles two split edges: three sub-triangles. v_off is
// the vertex opposite the one un-split edge; the diagonal tie-break picks
// whichever of the two candidate diagonals is metrically shorter.
func (op *Operator) templateTwoSplit(e int64, n [3]int32, b [3]int32, has0 bool, s0 int64, has1 bool, s1 int64, has2 bool, s2 int64, worker int) {
	// Rotate so that vOff is the vertex opposite the one un-split edge.
	var a, c, vOff int32
	var newAC, newCVoff int64
	var tagAOpp, tagCOpp int32 // tag of the edge opposite a, and opposite c, in the original element

	switch {
	case !has0: // edge0=(n1,n2) unsplit -> vOff = n0
		a, c, vOff = n[1], n[2], n[0]
		newAC, newCVoff = s2, s1 // (n0,n1)=edge2 split -> new vtx on (a,vOff); (n2,n0)=edge1 split -> new vtx on (c,vOff)
		tagAOpp, tagCOpp = b[0], b[1]
	case !has1: // edge1=(n2,n0) unsplit -> vOff = n1
		a, c, vOff = n[2], n[0], n[1]
		newAC, newCVoff = s0, s2
		tagAOpp, tagCOpp = b[1], b[2]
	default: // edge2=(n0,n1) unsplit -> vOff = n2
		a, c, vOff = n[0], n[1], n[2]
		newAC, newCVoff = s1, s0
		tagAOpp, tagCOpp = b[2], b[0]
	}

	// newAC sits on edge (a, vOff); newCVoff sits on edge (c, vOff). The
	// diagonal tie-break compares the two candidate diagonals across the
	// quad left after cutting off the corner triangle at vOff, and picks
	// the metrically shorter one.
	lenDiag1 := op.mesh.Kernel().LengthM(op.mesh.Point(newAC), op.mesh.Point(int64(c)), op.mesh.Metric(newAC), op.mesh.Metric(int64(c)))
	lenDiag2 := op.mesh.Kernel().LengthM(op.mesh.Point(newCVoff), op.mesh.Point(int64(a)), op.mesh.Metric(newCVoff), op.mesh.Metric(int64(a)))
	shortDiagIsFirst := lenDiag1 <= lenDiag2

	corner := [3]int32{vOff, int32(newAC), int32(newCVoff)}
	op.mesh.SetElement(e, corner, [3]int32{0, 0, 0})

	var e1, e2 [3]int32
	var b1, b2 [3]int32
	if shortDiagIsFirst {
		e1 = [3]int32{int32(newAC), c, int32(newCVoff)}
		b1 = [3]int32{tagCOpp, 0, 0}
		e2 = [3]int32{a, int32(newAC), int32(newCVoff)}
		b2 = [3]int32{0, 0, tagAOpp}
	} else {
		e1 = [3]int32{a, int32(newAC), c}
		b1 = [3]int32{tagCOpp, 0, tagAOpp}
		e2 = [3]int32{a, c, int32(newCVoff)}
		b2 = [3]int32{0, 0, 0}
	}

	ne1 := op.mesh.AppendElement(e1, b1)
	ne2 := op.mesh.AppendElement(e2, b2)

	// vOff already lists e from before the split; only the two new
	// vertices need it added.
	op.mesh.DeferAddNE(int64(newAC), e, worker)
	op.mesh.DeferAddNE(int64(newCVoff), e, worker)
	for _, v := range e1 {
		op.mesh.DeferAddNE(int64(v), ne1, worker)
	}
	for _, v := range e2 {
		op.mesh.DeferAddNE(int64(v), ne2, worker)
	}
	op.mesh.DeferRemNE(int64(a), e, worker)
	op.mesh.DeferRemNE(int64(c), e, worker)

	op.mesh.DeferAddNN(int64(newAC), int64(newCVoff), worker)
	op.mesh.DeferAddNN(int64(newCVoff), int64(newAC), worker)
	op.mesh.DeferAddNN(int64(a), int64(c), worker)
	op.mesh.DeferAddNN(int64(c), int64(a), worker)
}

// templateThreeSplit handles three split edges: one central triangle
// (interior on all sides) plus three corner triangles, each inheriting
// its parent edge's tag on its outer side.
func (op *Operator) templateThreeSplit(e int64, n [3]int32, b [3]int32, s0, s1, s2 int64, worker int) {
	m0, m1, m2 := int32(s0), int32(s1), int32(s2) // midpoints of edge0=(n1,n2), edge1=(n2,n0), edge2=(n0,n1)

	central := [3]int32{m0, m1, m2}
	corner0 := [3]int32{n[0], m2, m1} // at n0, between edges2 and 1
	corner1 := [3]int32{n[1], m0, m2}
	corner2 := [3]int32{n[2], m1, m0}

	op.mesh.SetElement(e, central, [3]int32{0, 0, 0})
	nc0 := op.mesh.AppendElement(corner0, [3]int32{0, b[1], b[2]})
	nc1 := op.mesh.AppendElement(corner1, [3]int32{0, b[2], b[0]})
	nc2 := op.mesh.AppendElement(corner2, [3]int32{0, b[0], b[1]})

	for _, v := range central {
		op.mesh.DeferAddNE(int64(v), e, worker)
	}
	for _, v := range corner0 {
		op.mesh.DeferAddNE(int64(v), nc0, worker)
	}
	for _, v := range corner1 {
		op.mesh.DeferAddNE(int64(v), nc1, worker)
	}
	for _, v := range corner2 {
		op.mesh.DeferAddNE(int64(v), nc2, worker)
	}
	for _, v := range n {
		op.mesh.DeferRemNE(int64(v), e, worker)
	}

	op.mesh.DeferAddNN(int64(m0), int64(m1), worker)
	op.mesh.DeferAddNN(int64(m1), int64(m0), worker)
	op.mesh.DeferAddNN(int64(m1), int64(m2), worker)
	op.mesh.DeferAddNN(int64(m2), int64(m1), worker)
	op.mesh.DeferAddNN(int64(m2), int64(m0), worker)
	op.mesh.DeferAddNN(int64(m0), int64(m2), worker)
}

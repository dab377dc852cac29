package mesh

import "github.com/anisomesh/meshadapt/geom"

// Reserve grows vertex and element storage to the given high-water sizes.
// It is the single-threaded, barriered resize spec.md §3/§5 requires
// before any worker calls AppendVertex/AppendElement; callers run it
// between parallel phases, never concurrently with Append*.
func (m *Mesh) Reserve(nVerts, nElems int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if nVerts > len(m.coords) {
		grow := nVerts - len(m.coords)
		m.coords = append(m.coords, make([]geom.Point, grow)...)
		m.metrics = append(m.metrics, make([]geom.Metric, grow)...)
		m.gid = append(m.gid, make([]int64, grow)...)
		m.owner = append(m.owner, make([]int32, grow)...)
		m.vErased = append(m.vErased, make([]bool, grow)...)
		m.nn = append(m.nn, make([][]int32, grow)...)
		m.ne = append(m.ne, make([][]int32, grow)...)
	}
	if nElems > len(m.elements) {
		grow := nElems - len(m.elements)
		m.elements = append(m.elements, make([]Element, grow)...)
	}
}

// AppendVertex allocates a new live vertex id by atomic fetch-and-add and
// writes its coordinate/metric/global-id/owner into the pre-reserved slot.
// Safe to call concurrently, provided Reserve already covers the
// resulting id.
func (m *Mesh) AppendVertex(x geom.Point, mtr geom.Metric, gid int64, owner int32) int64 {
	id := m.nNodes.Add(1) - 1

	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(id) >= len(m.coords) {
		panic(ErrNotReserved)
	}
	m.coords[id] = x
	m.metrics[id] = mtr
	m.gid[id] = gid
	m.owner[id] = owner
	m.vErased[id] = false
	return id
}

// AppendElement allocates a new live element id by atomic fetch-and-add
// and writes its node/boundary triples into the pre-reserved slot.
func (m *Mesh) AppendElement(n [3]int32, b [3]int32) int64 {
	id := m.nElements.Add(1) - 1

	m.mu.RLock()
	defer m.mu.RUnlock()
	if int(id) >= len(m.elements) {
		panic(ErrNotReserved)
	}
	m.elements[id] = Element{N: n, Boundary: b}
	for _, v := range n {
		m.ne[v] = append(m.ne[v], int32(id))
	}
	return id
}

// SetElement overwrites an existing element slot in place, used by Refine
// and Swap to retemplate an element without allocating a new id.
func (m *Mesh) SetElement(e int64, n [3]int32, b [3]int32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.elements[e] = Element{N: n, Boundary: b}
}

// SetNNList overwrites vertex v's neighbor list wholesale, used when an
// operator has already computed the correct patch (e.g. coarsen's target
// vertex after a collapse).
func (m *Mesh) SetNNList(v int64, neighbors []int32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.nn[v] = neighbors
}

// AddNN inserts v into u's neighbor list directly, for single-threaded
// regions where the deferred buffer is unnecessary.
func (m *Mesh) AddNN(u, v int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.nn[u] = append(m.nn[u], int32(v))
}

// RemNN removes the first occurrence of v from u's neighbor list.
func (m *Mesh) RemNN(u, v int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.nn[u] = removeInt32(m.nn[u], int32(v))
}

// EraseVertex tombstones v: clears its NNList and marks it inactive. The
// caller is responsible for having already repointed every neighbor's
// back-reference away from v.
func (m *Mesh) EraseVertex(v int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.nn[v] = nil
	m.vErased[v] = true
}

// EraseElement tombstones e and removes it from the NEList of its (former)
// three vertices.
func (m *Mesh) EraseElement(e int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el := m.elements[e]
	if !el.IsLive() {
		return
	}
	for _, v := range el.N {
		m.ne[v] = removeInt32(m.ne[v], int32(e))
	}
	m.elements[e] = Element{N: [3]int32{Tombstone, Tombstone, Tombstone}}
}

func removeInt32(s []int32, v int32) []int32 {
	for i, x := range s {
		if x == v {
			s[i] = s[len(s)-1]
			return s[:len(s)-1]
		}
	}
	return s
}

// --- Deferred-ops buffer wrappers ---
//
// These forward to the internal deferred.Buffer, giving the Mesh the
// defer_add_nn/defer_rem_nn/defer_add_ne/defer_rem_ne/commit_deferred
// surface spec.md §4.2 and §4.7 describe as part of the Mesh's contract.

// DeferAddNN queues "insert v into NNList[u]" for the barrier commit.
func (m *Mesh) DeferAddNN(u, v int64, worker int) { m.deferred.DeferAddNN(u, v, worker) }

// DeferRemNN queues "remove v from NNList[u]".
func (m *Mesh) DeferRemNN(u, v int64, worker int) { m.deferred.DeferRemNN(u, v, worker) }

// DeferAddNE queues "insert e into NEList[v]".
func (m *Mesh) DeferAddNE(v, e int64, worker int) { m.deferred.DeferAddNE(v, e, worker) }

// DeferRemNE queues "remove e from NEList[v]".
func (m *Mesh) DeferRemNE(v, e int64, worker int) { m.deferred.DeferRemNE(v, e, worker) }

// CommitAllDeferred commits every bucket concurrently (buckets are
// disjoint vertex ranges, so this is race-free) and blocks until done.
func (m *Mesh) CommitAllDeferred() error { return m.deferred.CommitAll(m) }

// ApplyAddNN, ApplyRemNN, ApplyAddNE, ApplyRemNE implement deferred.Sink;
// they perform the actual slice mutation and must only be called from a
// commit phase that owns exclusive access to the affected bucket.

func (m *Mesh) ApplyAddNN(u, v int64) {
	m.nn[u] = append(m.nn[u], int32(v))
}

func (m *Mesh) ApplyRemNN(u, v int64) {
	m.nn[u] = removeInt32(m.nn[u], int32(v))
}

func (m *Mesh) ApplyAddNE(u int64, e int64) {
	m.ne[u] = append(m.ne[u], int32(e))
}

func (m *Mesh) ApplyRemNE(u int64, e int64) {
	m.ne[u] = removeInt32(m.ne[u], int32(e))
}

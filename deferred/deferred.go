// Package deferred implements the per-worker deferred-edit queues that let
// Refine and Swap edit NNList/NEList during a parallel region without
// racing on the shared adjacency containers. Edits are queued during the
// parallel pass and applied in a single-threaded (or bucket-parallel)
// commit phase, the ACM-style "deferred operations" pattern spec.md §9
// calls out in place of fine-grained locking.
package deferred

import "golang.org/x/sync/errgroup"

// Kind identifies which adjacency edit a queued Edit performs.
type Kind uint8

const (
	AddNN Kind = iota
	RemNN
	AddNE
	RemNE
)

// Edit is one queued adjacency mutation. For AddNN/RemNN, U is the vertex
// whose NNList is edited and V is the neighbor added or removed. For
// AddNE/RemNE, U is the vertex whose NEList is edited and E is the element
// id added or removed.
type Edit struct {
	Kind Kind
	U    int64
	V    int64
	E    int64
}

// Sink is the subset of mesh.Mesh's mutation API a commit needs. Kept
// narrow and defined on the consumer side (this package) so mesh does not
// need to import deferred, and deferred does not need to import mesh.
type Sink interface {
	ApplyAddNN(u, v int64)
	ApplyRemNN(u, v int64)
	ApplyAddNE(u int64, e int64)
	ApplyRemNE(u int64, e int64)
}

// Buffer is a bank of W*B queues, bucketed by (worker, bucket(vertex)) so
// that commits can be parallelised across buckets: two different buckets
// never touch the same vertex's adjacency lists.
type Buffer struct {
	workers int
	buckets int
	queues  [][]Edit
}

// New allocates a Buffer for the given worker count and bucketing factor.
func New(workers, buckets int) *Buffer {
	if workers < 1 {
		workers = 1
	}
	if buckets < 1 {
		buckets = 1
	}
	return &Buffer{
		workers: workers,
		buckets: buckets,
		queues:  make([][]Edit, workers*buckets),
	}
}

func (b *Buffer) bucket(v int64) int {
	m := v % int64(b.buckets)
	if m < 0 {
		m += int64(b.buckets)
	}
	return int(m)
}

func (b *Buffer) slot(worker int, v int64) int {
	return worker*b.buckets + b.bucket(v)
}

// DeferAddNN queues "insert v into NNList[u]", owned by u's bucket.
func (b *Buffer) DeferAddNN(u, v int64, worker int) {
	s := b.slot(worker, u)
	b.queues[s] = append(b.queues[s], Edit{Kind: AddNN, U: u, V: v})
}

// DeferRemNN queues "remove v from NNList[u]".
func (b *Buffer) DeferRemNN(u, v int64, worker int) {
	s := b.slot(worker, u)
	b.queues[s] = append(b.queues[s], Edit{Kind: RemNN, U: u, V: v})
}

// DeferAddNE queues "insert e into NEList[v]".
func (b *Buffer) DeferAddNE(v int64, e int64, worker int) {
	s := b.slot(worker, v)
	b.queues[s] = append(b.queues[s], Edit{Kind: AddNE, U: v, E: e})
}

// DeferRemNE queues "remove e from NEList[v]".
func (b *Buffer) DeferRemNE(v int64, e int64, worker int) {
	s := b.slot(worker, v)
	b.queues[s] = append(b.queues[s], Edit{Kind: RemNE, U: v, E: e})
}

// CommitSlot applies and clears exactly one (worker, bucket) queue.
func (b *Buffer) CommitSlot(worker, bucket int, sink Sink) {
	s := worker*b.buckets + bucket
	for _, e := range b.queues[s] {
		apply(sink, e)
	}
	b.queues[s] = b.queues[s][:0]
}

// CommitBucket applies every worker's queue for one bucket, in worker
// order. Different buckets own disjoint vertex ranges, so CommitBucket
// calls for different buckets never race.
func (b *Buffer) CommitBucket(bucket int, sink Sink) {
	for w := 0; w < b.workers; w++ {
		b.CommitSlot(w, bucket, sink)
	}
}

// CommitAll runs CommitBucket for every bucket concurrently via errgroup,
// the barrier phase every operator calls once its parallel region ends.
func (b *Buffer) CommitAll(sink Sink) error {
	var g errgroup.Group
	for bucket := 0; bucket < b.buckets; bucket++ {
		bucket := bucket
		g.Go(func() error {
			b.CommitBucket(bucket, sink)
			return nil
		})
	}
	return g.Wait()
}

// Buckets reports the bucketing factor, so callers can size loops over
// CommitBucket/CommitSlot without reaching into internals.
func (b *Buffer) Buckets() int { return b.buckets }

// Workers reports the configured worker count.
func (b *Buffer) Workers() int { return b.workers }

func apply(sink Sink, e Edit) {
	switch e.Kind {
	case AddNN:
		sink.ApplyAddNN(e.U, e.V)
	case RemNN:
		sink.ApplyRemNN(e.U, e.V)
	case AddNE:
		sink.ApplyAddNE(e.U, e.E)
	case RemNE:
		sink.ApplyRemNE(e.U, e.E)
	}
}

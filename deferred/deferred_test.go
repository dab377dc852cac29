package deferred_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisomesh/meshadapt/deferred"
)

// fakeSink guards its slices with a mutex: CommitAll runs buckets
// concurrently, and unlike the real mesh (where buckets touch disjoint
// vertex slots) this fake has no per-bucket storage to exploit.
type fakeSink struct {
	mu           sync.Mutex
	addNN, remNN [][2]int64
	addNE, remNE [][2]int64
}

func (f *fakeSink) ApplyAddNN(u, v int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addNN = append(f.addNN, [2]int64{u, v})
}
func (f *fakeSink) ApplyRemNN(u, v int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remNN = append(f.remNN, [2]int64{u, v})
}
func (f *fakeSink) ApplyAddNE(u, e int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addNE = append(f.addNE, [2]int64{u, e})
}
func (f *fakeSink) ApplyRemNE(u, e int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remNE = append(f.remNE, [2]int64{u, e})
}

func TestCommitSlotAppliesAndClears(t *testing.T) {
	b := deferred.New(1, 4)
	b.DeferAddNN(0, 10, 0)
	b.DeferRemNE(0, 20, 0)

	sink := &fakeSink{}
	b.CommitSlot(0, 0, sink)

	assert.Equal(t, [][2]int64{{0, 10}}, sink.addNN)
	assert.Equal(t, [][2]int64{{0, 20}}, sink.remNE)

	sink2 := &fakeSink{}
	b.CommitSlot(0, 0, sink2)
	assert.Empty(t, sink2.addNN)
}

func TestCommitAllCoversEveryBucket(t *testing.T) {
	b := deferred.New(2, 4)
	for v := int64(0); v < 8; v++ {
		b.DeferAddNN(v, v+100, int(v)%2)
	}
	sink := &fakeSink{}
	require.NoError(t, b.CommitAll(sink))
	assert.Len(t, sink.addNN, 8)
}

package parallel_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anisomesh/meshadapt/parallel"
)

func TestRunInvokesEveryWorkerOnce(t *testing.T) {
	var seen [4]atomic.Int32
	err := parallel.Run(4, func(w int) error {
		seen[w].Add(1)
		return nil
	})
	require.NoError(t, err)
	for i := range seen {
		assert.Equal(t, int32(1), seen[i].Load())
	}
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := parallel.Run(3, func(w int) error {
		if w == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunUntilFixedPointStopsWhenNoProgress(t *testing.T) {
	var passes atomic.Int32
	err := parallel.RunUntilFixedPoint(2, 0, func(w int) (bool, error) {
		n := passes.Add(1)
		return n <= 4, nil // first two passes (2 workers each) report progress, then stop
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, passes.Load(), int32(8))
}

func TestRunUntilFixedPointRespectsMaxPasses(t *testing.T) {
	var passes atomic.Int32
	err := parallel.RunUntilFixedPoint(1, 3, func(w int) (bool, error) {
		passes.Add(1)
		return true, nil // always progresses; maxPasses must cut it off
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), passes.Load())
}

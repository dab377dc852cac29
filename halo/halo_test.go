package halo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anisomesh/meshadapt/halo"
)

func TestSingleProcessOwnsEverything(t *testing.T) {
	var o halo.Oracle = halo.SingleProcess{}
	assert.True(t, o.IsOwned(42))
	assert.False(t, o.IsHalo(42))
	assert.False(t, o.RecvHaloContains(42))
}

package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat64StaysOpenOpen(t *testing.T) {
	s := NewStream(7, 42, 0)
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestStreamIsDeterministic(t *testing.T) {
	a := NewStream(3, 99, 5)
	b := NewStream(3, 99, 5)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestDifferentThreadIDsDiverge(t *testing.T) {
	a := NewStream(1, 99, 5)
	b := NewStream(2, 99, 5)
	same := true
	for i := 0; i < 8; i++ {
		if a.Float64() != b.Float64() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestDifferentGlobalCounterDiverges(t *testing.T) {
	a := NewStream(1, 99, 0)
	b := NewStream(1, 99, 1)
	assert.NotEqual(t, a.Float64(), b.Float64())
}

func TestU01OpenOpenBounds(t *testing.T) {
	assert.Greater(t, u01OpenOpen64(0), 0.0)
	assert.Less(t, u01OpenOpen64(^uint64(0)), 1.0)
	assert.Greater(t, u01OpenOpen32(0), 0.0)
	assert.Less(t, u01OpenOpen32(^uint32(0)), 1.0)
}

package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSize() Size {
	return Size{Nt: 4, Nx: 4, Ny: 4, Nz: 4}
}

func TestNoSplitIndexBijective(t *testing.T) {
	s := testSize()
	for idx := 0; idx < s.Volume(); idx++ {
		site := s.SiteFromNoSplitIndex(idx)
		assert.Equal(t, idx, s.NoSplitIndex(site))
	}
}

func TestFullSplitIndexBijective(t *testing.T) {
	s := testSize()
	seen := make(map[int]bool)
	for idx := 0; idx < s.Volume(); idx++ {
		site := s.SiteFromFullSplitIndex(idx)
		got := s.FullSplitIndex(site)
		assert.Equal(t, idx, got)
		assert.False(t, seen[got], "duplicate index %d", got)
		seen[got] = true
	}
}

func TestFullSplitIndexPutsEvenBeforeOdd(t *testing.T) {
	s := testSize()
	half := s.Volume() / 2
	for idx := 0; idx < half; idx++ {
		site := s.SiteFromFullSplitIndex(idx)
		assert.Zero(t, site.Parity())
	}
	for idx := half; idx < s.Volume(); idx++ {
		site := s.SiteFromFullSplitIndex(idx)
		assert.Equal(t, 1, site.Parity())
	}
}

func TestTimesliceSplitIndexBijective(t *testing.T) {
	s := testSize()
	seen := make(map[int]bool)
	for idx := 0; idx < s.Volume(); idx++ {
		site := s.SiteFromTimesliceSplitIndex(idx)
		got := s.TimesliceSplitIndex(site)
		assert.Equal(t, idx, got)
		assert.False(t, seen[got])
		seen[got] = true
	}
}

func TestNeighbourPeriodic(t *testing.T) {
	s := testSize()
	site := Site{0, 0, 0, 0}
	down := s.Neighbour(site, 1, false)
	assert.Equal(t, Site{0, 3, 0, 0}, down)
	up := s.Neighbour(down, 1, true)
	assert.Equal(t, site, up)
}

func TestParity(t *testing.T) {
	assert.Equal(t, 0, Site{0, 0, 0, 0}.Parity())
	assert.Equal(t, 1, Site{1, 0, 0, 0}.Parity())
	assert.Equal(t, 0, Site{1, 1, 0, 0}.Parity())
}

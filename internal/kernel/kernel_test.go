package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/pattern"
	"github.com/latticeqcd/gofix/internal/update"
)

func testField() *GaugeField {
	size := lattice.Size{Nt: 4, Nx: 2, Ny: 2, Nz: 2}
	return NewGaugeField(size, pattern.GpuPattern{Size: size})
}

func TestIdentityFieldHasMaximalGff(t *testing.T) {
	f := testField()
	q := GaugeQuality(f, Landau)
	assert.InDelta(t, 1.0, q.Gff, 1e-9)
	assert.InDelta(t, 0.0, q.Theta, 1e-9)
}

func TestSweepPreservesUnitarity(t *testing.T) {
	f := testField()
	pool := workerpool.New(2)
	policy := update.Overrelaxation{Omega: 1.7}

	Sweep(f, Landau, 0, policy, 1, 0, pool)
	Sweep(f, Landau, 1, policy, 1, 1, pool)

	for idx := 0; idx < f.Size.Volume(); idx++ {
		site := f.Size.SiteFromNoSplitIndex(idx)
		for mu := 0; mu < Ndim; mu++ {
			link := f.GetLink(site, mu)
			assert.Less(t, link.UnitarityDefect(), 1e-6)
		}
	}
}

func TestMicrocanonicalSweepDoesNotDecreaseGff(t *testing.T) {
	f := testField()
	pool := workerpool.New(2)

	// Perturb away from identity with a mild random transform first.
	Sweep(f, Landau, 0, update.RandomTransform{}, 7, 0, pool)
	Sweep(f, Landau, 1, update.RandomTransform{}, 7, 1, pool)

	before := GaugeQuality(f, Landau)

	Sweep(f, Landau, 0, update.Microcanonical{}, 7, 2, pool)
	Sweep(f, Landau, 1, update.Microcanonical{}, 7, 3, pool)

	after := GaugeQuality(f, Landau)
	assert.GreaterOrEqual(t, after.Gff, before.Gff-1e-9)
}

func TestCoulombSweepLeavesTemporalLinksUntouched(t *testing.T) {
	f := testField()
	pool := workerpool.New(2)

	site := lattice.Site{0, 0, 0, 0}
	before := f.GetLink(site, 0)

	Sweep(f, Coulomb, 0, update.RandomTransform{}, 11, 0, pool)
	Sweep(f, Coulomb, 1, update.RandomTransform{}, 11, 1, pool)

	after := f.GetLink(site, 0)
	require.Equal(t, before, after)
}

func TestMAGSweepPreservesUnitarity(t *testing.T) {
	f := testField()
	pool := workerpool.New(2)
	Sweep(f, MAG, 0, update.Microcanonical{}, 3, 0, pool)
	Sweep(f, MAG, 1, update.Microcanonical{}, 3, 1, pool)

	for idx := 0; idx < f.Size.Volume(); idx++ {
		site := f.Size.SiteFromNoSplitIndex(idx)
		for mu := 0; mu < Ndim; mu++ {
			assert.Less(t, f.GetLink(site, mu).UnitarityDefect(), 1e-6)
		}
	}
}

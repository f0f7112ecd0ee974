// Package kernel implements the per-site subgroup-sweep and gauge-quality
// kernels: the checkerboard inner loop that every algorithm policy and
// every gauge type shares, grounded on
// original_source/src/gaugefixing/GaugeFixingSubgroupStep.hxx (contribution
// tables) and MAGKernelsSU3.hxx (the gauge-quality accumulation and the
// apply<Algorithm> call convention every policy is driven through).
package kernel

import (
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/pattern"
	"github.com/latticeqcd/gofix/internal/su3"
)

// Ndim is the number of spacetime directions.
const Ndim = 4

// GaugeField is the gauge-field array: a flat []float64 slab addressed
// through a Pattern, exactly as the source's Real* plus access-pattern
// template parameter. Link reads/writes go through GetLink/SetLink so
// callers never touch Data directly.
type GaugeField struct {
	Size    lattice.Size
	Pattern pattern.Pattern
	Data    []float64
}

// NewGaugeField allocates a slab initialized to the identity link at every
// site and direction.
func NewGaugeField(size lattice.Size, pat pattern.Pattern) *GaugeField {
	const componentsPerLink = 2 * 3 * 2 // 2 stored rows * 3 colors * re/im
	n := size.Volume() * Ndim * componentsPerLink
	f := &GaugeField{Size: size, Pattern: pat, Data: make([]float64, n)}
	for idx := 0; idx < size.Volume(); idx++ {
		site := size.SiteFromNoSplitIndex(idx)
		for mu := 0; mu < Ndim; mu++ {
			f.SetLink(site, mu, su3.IdentityLink)
		}
	}
	return f
}

// GetLink reads the top two rows of the link at (site, mu).
func (f *GaugeField) GetLink(site lattice.Site, mu int) su3.Link2x3 {
	var l su3.Link2x3
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			re := f.Data[f.Pattern.GetIndex(site, mu, i, j, false)]
			im := f.Data[f.Pattern.GetIndex(site, mu, i, j, true)]
			l.Rows[i][j] = complex(re, im)
		}
	}
	return l
}

// SetLink writes the top two rows of l at (site, mu); the third row is
// never persisted, only ever reconstructed on read.
func (f *GaugeField) SetLink(site lattice.Site, mu int, l su3.Link2x3) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			f.Data[f.Pattern.GetIndex(site, mu, i, j, false)] = real(l.Rows[i][j])
			f.Data[f.Pattern.GetIndex(site, mu, i, j, true)] = imag(l.Rows[i][j])
		}
	}
}

// ReprojectAll restores unitarity of every link in the field.
func (f *GaugeField) ReprojectAll() {
	for idx := 0; idx < f.Size.Volume(); idx++ {
		site := f.Size.SiteFromNoSplitIndex(idx)
		for mu := 0; mu < Ndim; mu++ {
			f.SetLink(site, mu, f.GetLink(site, mu).Reproject())
		}
	}
}

// Package pattern implements the link-access patterns: pure functions
// mapping (site, direction, row, col, re/im) to a linear offset into the
// gauge-field array, so the same logical link can be stored however suits
// the caller (plain lexicographic, GPU-style parity-split, timeslice-local).
//
// Every pattern also exposes GetIndexByUnique, re-routing from the
// canonical lexicographic (site, mu, i, j, re/im) index that StandardPattern
// itself produces — required for converting between on-disk formats and the
// in-memory pattern on load/save.
package pattern

import "github.com/latticeqcd/gofix/internal/lattice"

// Nc is the number of colors (SU(3)).
const Nc = 3

// Ndim is the number of spacetime directions.
const Ndim = 4

// Pattern maps a link coordinate to a linear offset in a flat []float64
// gauge-field array.
type Pattern interface {
	GetIndex(site lattice.Site, mu, i, j int, im bool) int
	GetIndexByUnique(unique int) int
}

func cBit(im bool) int {
	if im {
		return 1
	}
	return 0
}

// decodeUnique unpacks a canonical lexicographic (site, mu, i, j, re/im)
// index in the same order StandardPattern encodes it: re/im innermost,
// site outermost.
func decodeUnique(unique int) (im bool, i, j, mu, siteNoSplit int) {
	c := unique % 2
	unique /= 2
	j = unique % Nc
	unique /= Nc
	i = unique % Nc
	unique /= Nc
	mu = unique % Ndim
	unique /= Ndim
	siteNoSplit = unique
	return c == 1, i, j, mu, siteNoSplit
}

// StandardPattern stores links in plain (site, mu, row, col, re/im)
// lexicographic order, site outermost. Its GetIndex is, by construction,
// the canonical unique index every other pattern's GetIndexByUnique decodes.
type StandardPattern struct {
	Size lattice.Size
}

func (p StandardPattern) GetIndex(site lattice.Site, mu, i, j int, im bool) int {
	idx := p.Size.NoSplitIndex(site)
	return (((idx*Ndim+mu)*Nc+i)*Nc + j) * 2 + cBit(im)
}

func (p StandardPattern) GetIndexByUnique(unique int) int {
	return unique
}

// GpuPattern is the default pattern: (mu, row, col, re/im, site) outermost
// to innermost, site in parity-split (checkerboard) order, so that all
// links of a given direction/component are contiguous and the two parity
// halves of a site's own run are contiguous sub-ranges.
type GpuPattern struct {
	Size lattice.Size
}

func (p GpuPattern) GetIndex(site lattice.Site, mu, i, j int, im bool) int {
	return p.Size.FullSplitIndex(site) + p.Size.Volume()*(cBit(im)+2*(j+Nc*(i+Nc*mu)))
}

func (p GpuPattern) GetIndexByUnique(unique int) int {
	im, i, j, mu, siteNoSplit := decodeUnique(unique)
	site := p.Size.SiteFromNoSplitIndex(siteNoSplit)
	return p.GetIndex(site, mu, i, j, im)
}

// GpuLandauPattern uses the same priority order as GpuPattern; kept as a
// distinct type because the source keeps it as a separate class dedicated
// to the Landau-gauge device kernels.
type GpuLandauPattern struct {
	Size lattice.Size
}

func (p GpuLandauPattern) GetIndex(site lattice.Site, mu, i, j int, im bool) int {
	return p.Size.FullSplitIndex(site) + p.Size.Volume()*(cBit(im)+2*(j+Nc*(i+Nc*mu)))
}

func (p GpuLandauPattern) GetIndexByUnique(unique int) int {
	im, i, j, mu, siteNoSplit := decodeUnique(unique)
	site := p.Size.SiteFromNoSplitIndex(siteNoSplit)
	return p.GetIndex(site, mu, i, j, im)
}

// GpuTimeslicePattern lays out (t, mu, row, col, re/im, space-site)
// outermost to innermost: the space-site part is parity-split within its
// own timeslice so that per-timeslice (Coulomb gauge) kernels get the same
// checkerboard contiguity GpuPattern gives the full lattice.
type GpuTimeslicePattern struct {
	Size lattice.Size
}

func (p GpuTimeslicePattern) GetIndex(site lattice.Site, mu, i, j int, im bool) int {
	tsVol := p.Size.TimesliceVolume()
	spaceIdx := p.Size.IndexWithinTimeslice(site)
	return spaceIdx + tsVol*(cBit(im)+2*(j+Nc*(i+Nc*(mu+Ndim*site[0]))))
}

func (p GpuTimeslicePattern) GetIndexByUnique(unique int) int {
	im, i, j, mu, siteNoSplit := decodeUnique(unique)
	site := p.Size.SiteFromNoSplitIndex(siteNoSplit)
	return p.GetIndex(site, mu, i, j, im)
}

// GpuPatternTimesliceParityPriority lays out (t, parity, mu, row, col,
// re/im, space-site) outermost to innermost. The "parity" bucket is not the
// coordinate-sum parity used elsewhere in this package: it is the raw,
// non-split spatial index divided by half the timeslice volume, exactly as
// the source computes it — a cheap partition the device kernels rely on
// being stable, not a recomputation of true checkerboard parity.
type GpuPatternTimesliceParityPriority struct {
	Size lattice.Size
}

func (p GpuPatternTimesliceParityPriority) GetIndex(site lattice.Site, mu, i, j int, im bool) int {
	tsVol := p.Size.TimesliceVolume()
	half := tsVol / 2
	timesliceSize := tsVol * Ndim * Nc * Nc * 2
	raw := p.Size.RawTimesliceIndex(site)
	parity := raw / half
	offset := raw % half
	return offset + half*(cBit(im)+2*(j+Nc*(i+Nc*(mu+Ndim*parity)))) + site[0]*timesliceSize
}

func (p GpuPatternTimesliceParityPriority) GetIndexByUnique(unique int) int {
	im, i, j, mu, siteNoSplit := decodeUnique(unique)
	site := p.Size.SiteFromNoSplitIndex(siteNoSplit)
	return p.GetIndex(site, mu, i, j, im)
}

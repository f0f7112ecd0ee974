package kernel

import (
	"math"

	"github.com/latticeqcd/gofix/hwy/contrib/vec"
	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/rng"
	"github.com/latticeqcd/gofix/internal/update"
)

// Sweep runs one Cabibbo-Marinari sweep over a single parity class: for
// every site of that parity and every SU(2) subgroup, accumulate A and
// apply the policy's update. Sites of one parity never share a link, so
// every worker goroutine in the pool touches disjoint memory and no
// synchronization beyond the pool's own fan-out/fan-in is needed.
//
// seed and globalCounter key the per-site RNG stream exactly as the
// source's PhiloxWrapper contract requires: seed is fixed for a run,
// globalCounter must advance by the caller once per sweep invocation so
// repeated sweeps draw independent numbers.
func Sweep(f *GaugeField, gt GaugeType, parity int, policy update.Policy, seed int32, globalCounter uint32, pool *workerpool.Pool) {
	half := f.Size.Volume() / 2
	base := 0
	if parity == 1 {
		base = half
	}

	pool.ParallelFor(half, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			idx := base + k
			site := f.Size.SiteFromFullSplitIndex(idx)
			stream := rng.NewStream(int32(idx), seed, globalCounter)
			for _, pair := range subgroupPairs {
				a := f.Contribution(gt, site, pair[0], pair[1])
				q := policy.Apply(a, stream)
				f.ApplyUpdate(gt, site, pair[0], pair[1], q)
			}
		}
	})
}

// SweepRange is Sweep restricted to sites whose time coordinate lies in
// [tMin, tMax). A distributed node sweeps its interior timeslices while its
// boundary timeslices wait on a halo exchange, then sweeps the boundary
// alone once the halo lands; both calls share the same globalCounter so the
// RNG stream a site draws from never depends on which range call touched it.
func SweepRange(f *GaugeField, gt GaugeType, parity int, tMin, tMax int, policy update.Policy, seed int32, globalCounter uint32, pool *workerpool.Pool) {
	half := f.Size.Volume() / 2
	base := 0
	if parity == 1 {
		base = half
	}

	pool.ParallelFor(half, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			idx := base + k
			site := f.Size.SiteFromFullSplitIndex(idx)
			if site[0] < tMin || site[0] >= tMax {
				continue
			}
			stream := rng.NewStream(int32(idx), seed, globalCounter)
			for _, pair := range subgroupPairs {
				a := f.Contribution(gt, site, pair[0], pair[1])
				q := policy.Apply(a, stream)
				f.ApplyUpdate(gt, site, pair[0], pair[1], q)
			}
		}
	})
}

// Quality holds the reduced gauge-fixing functional value and precision for
// a full field.
type Quality struct {
	Gff   float64
	Theta float64
}

// GaugeQuality computes (Gff, theta) reduced over every site, normalized by
// Nc*Ndim*|Lambda| and Nc*|Lambda| respectively. Gff and the MAG precision
// bilinear are grounded on MAGKernelsSU3::generateGaugeQualityPerSite; the
// Landau/Coulomb precision is the standard discretized divergence of the
// lattice vector potential, its exact per-site kernel file not having
// survived distillation.
func GaugeQuality(f *GaugeField, gt GaugeType) Quality {
	vol := f.Size.Volume()
	gffs := make([]float64, vol)
	thetas := make([]float64, vol)

	for idx := 0; idx < vol; idx++ {
		site := f.Size.SiteFromNoSplitIndex(idx)
		if gt == MAG {
			gffs[idx], thetas[idx] = f.magQualityPerSite(site)
		} else {
			gffs[idx], thetas[idx] = f.landauQualityPerSite(gt, site)
		}
	}

	const nc = 3
	gffSum := vec.BaseSum(gffs)
	thetaSum := vec.BaseSum(thetas)
	return Quality{
		Gff:   gffSum / float64(nc*Ndim*vol),
		Theta: thetaSum / float64(nc*vol),
	}
}

// GaugeQualitySum returns the unnormalized (gff, theta) sums over every
// site whose time coordinate lies in [tMin, tMax), for a distributed node
// to combine with its peers' partial sums before normalizing by the global
// volume.
func GaugeQualitySum(f *GaugeField, gt GaugeType, tMin, tMax int) (gffSum, thetaSum float64) {
	for t := tMin; t < tMax; t++ {
		for idx := 0; idx < f.Size.TimesliceVolume(); idx++ {
			site := f.Size.SiteFromNoSplitIndex(t*f.Size.TimesliceVolume() + idx)
			var gff, theta float64
			if gt == MAG {
				gff, theta = f.magQualityPerSite(site)
			} else {
				gff, theta = f.landauQualityPerSite(gt, site)
			}
			gffSum += gff
			thetaSum += theta
		}
	}
	return gffSum, thetaSum
}

func (f *GaugeField) landauQualityPerSite(gt GaugeType, site lattice.Site) (gff, theta float64) {
	var divergence [3][3]complex128
	for mu := 0; mu < Ndim; mu++ {
		if !activeDirection(gt, mu) {
			continue
		}
		up := f.GetLink(site, mu).Full()
		for a := 0; a < 3; a++ {
			gff += real(up[a][a])
		}

		nsite := f.Size.Neighbour(site, mu, false)
		dw := f.GetLink(nsite, mu).Full()

		upAH := tracelessAntiHermitian(up)
		dwAH := tracelessAntiHermitian(dw)
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				divergence[a][b] += upAH[a][b] - dwAH[a][b]
			}
		}
	}

	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			theta += absSq(divergence[a][b])
		}
	}
	return gff, theta
}

func (f *GaugeField) magQualityPerSite(site lattice.Site) (gff, theta float64) {
	var xAbs [3]float64
	var xRe, xIm [3]float64

	for mu := 0; mu < Ndim; mu++ {
		up := f.GetLink(site, mu).Full()
		for a := 0; a < 3; a++ {
			gff += absSq(up[a][a])
		}

		for _, pair := range subgroupPairs {
			i, j := pair[0], pair[1]
			k := i + j - 1

			m := f.GetLink(site, mu).SubgroupMatrix(i, j)
			c := m[0][0]*conjc(m[1][0]) - m[0][1]*conjc(m[1][1])
			xRe[k] += real(c)
			xIm[k] += imag(c)

			nsite := f.Size.Neighbour(site, mu, false)
			mh := hermitian2x2(f.GetLink(nsite, mu).SubgroupMatrix(i, j))
			ch := mh[0][0]*conjc(mh[1][0]) - mh[0][1]*conjc(mh[1][1])
			xRe[k] += real(ch)
			xIm[k] += imag(ch)
		}
	}

	for k := 0; k < 3; k++ {
		xAbs[k] = math.Hypot(xRe[k], xIm[k])
	}
	theta = xAbs[0] + xAbs[1] + xAbs[2]
	return gff, theta
}

func hermitian2x2(m [2][2]complex128) [2][2]complex128 {
	return [2][2]complex128{
		{conjc(m[0][0]), conjc(m[1][0])},
		{conjc(m[0][1]), conjc(m[1][1])},
	}
}

func tracelessAntiHermitian(m [3][3]complex128) [3][3]complex128 {
	var ah [3][3]complex128
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			ah[a][b] = (m[a][b] - conjc(m[b][a])) / 2
		}
	}
	var trace complex128
	for a := 0; a < 3; a++ {
		trace += ah[a][a]
	}
	trace /= 3
	for a := 0; a < 3; a++ {
		ah[a][a] -= trace
	}
	return ah
}

package kernel

import (
	"math"

	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/su3"
)

// GaugeType selects which gauge-fixing functional a sweep targets. Kept as
// a tagged enum switched on in the hot per-site loop rather than runtime
// polymorphism, per the source's own structure.
type GaugeType int

const (
	Landau GaugeType = iota
	Coulomb
	U1xU1
	MAG
)

// subgroupPairs enumerates the three SU(2) subgroups of SU(3): (i,j) with
// i<j.
var subgroupPairs = [3][2]int{{0, 1}, {0, 2}, {1, 2}}

func activeDirection(gt GaugeType, mu int) bool {
	return gt != Coulomb || mu != 0
}

// Contribution accumulates A, the interaction quaternion for subgroup
// (i,j) at site, summing the forward links owned by site and the backward
// links owned by site's neighbours, as the contribution table in
// GaugeFixingSubgroupStep.hxx prescribes for each gauge type.
func (f *GaugeField) Contribution(gt GaugeType, site lattice.Site, i, j int) su3.Quaternion {
	if gt == MAG {
		return f.magContribution(site, i, j)
	}

	var sum su3.Quaternion
	for mu := 0; mu < Ndim; mu++ {
		if !activeDirection(gt, mu) {
			continue
		}
		fwd := f.GetLink(site, mu).SubgroupQuaternion(i, j)
		nsite := f.Size.Neighbour(site, mu, false)
		bwd := f.GetLink(nsite, mu).SubgroupQuaternion(i, j)
		addForward(&sum, fwd, gt)
		addBackward(&sum, bwd, gt)
	}
	return sum
}

// addForward adds the forward link's contribution: the full quaternion
// conjugate for Landau/Coulomb, only the (A0,A3) plane for U(1)xU(1).
func addForward(sum *su3.Quaternion, q su3.Quaternion, gt GaugeType) {
	sum.A0 += q.A0
	if gt == U1xU1 {
		sum.A3 -= q.A3
		return
	}
	sum.A1 -= q.A1
	sum.A2 -= q.A2
	sum.A3 -= q.A3
}

// addBackward adds the backward (neighbour-owned) link's contribution:
// direct, unconjugated.
func addBackward(sum *su3.Quaternion, q su3.Quaternion, gt GaugeType) {
	sum.A0 += q.A0
	if gt == U1xU1 {
		sum.A3 += q.A3
		return
	}
	sum.A1 += q.A1
	sum.A2 += q.A2
	sum.A3 += q.A3
}

// magContribution implements the MAG bilinear accumulation: rather than
// converting each link's subgroup block straight to a quaternion, it
// accumulates the diagonal-dominance scalar A0 and the complex off-diagonal
// bilinear (A1, A2) directly from the 2x2 blocks, then applies the MAG
// pre-update transform before the update policy ever sees A.
func (f *GaugeField) magContribution(site lattice.Site, i, j int) su3.Quaternion {
	var a0, a1, a2 float64
	for mu := 0; mu < Ndim; mu++ {
		fwd := f.GetLink(site, mu).SubgroupMatrix(i, j)
		a0 += magDiagonal(fwd)
		c := fwd[0][0]*conjc(fwd[1][0]) - fwd[0][1]*conjc(fwd[1][1])
		a1 += imag(c)
		a2 += real(c)

		nsite := f.Size.Neighbour(site, mu, false)
		bwd := f.GetLink(nsite, mu).SubgroupMatrix(i, j)
		a0 += magDiagonal(bwd)
		c2 := conjc(bwd[0][0])*bwd[0][1] - conjc(bwd[1][0])*bwd[1][1]
		a1 += imag(c2)
		a2 += real(c2)
	}
	a1 *= magOffDiagonalFactor
	a2 *= magOffDiagonalFactor
	a0 = a0 + math.Sqrt(a0*a0+a1*a1+a2*a2)
	return su3.Quaternion{A0: a0, A1: a1, A2: a2, A3: 0}
}

// magOffDiagonalFactor weights the off-diagonal bilinear (A1, A2) against
// the diagonal A0 in the MAG accumulator.
const magOffDiagonalFactor = 2.0

func magDiagonal(m [2][2]complex128) float64 {
	return absSq(m[0][0]) - absSq(m[0][1]) - absSq(m[1][0]) + absSq(m[1][1])
}

func absSq(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}

func conjc(c complex128) complex128 { return complex(real(c), -imag(c)) }

// ApplyUpdate multiplies the update quaternion q into every link that fed
// Contribution: forward links left-multiplied by q, backward links
// right-multiplied by q's conjugate, matching leftSubgroupMult/
// rightSubgroupMult(hermitian) in the source.
func (f *GaugeField) ApplyUpdate(gt GaugeType, site lattice.Site, i, j int, q su3.Quaternion) {
	qc := q.Conj()
	for mu := 0; mu < Ndim; mu++ {
		if !activeDirection(gt, mu) {
			continue
		}
		link := f.GetLink(site, mu)
		f.SetLink(site, mu, link.ApplySubgroup(i, j, q, true))

		nsite := f.Size.Neighbour(site, mu, false)
		nlink := f.GetLink(nsite, mu)
		f.SetLink(nsite, mu, nlink.ApplySubgroup(i, j, qc, false))
	}
}

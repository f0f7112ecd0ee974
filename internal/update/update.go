// Package update implements the per-site SU(2) subgroup update policies:
// given the accumulated interaction quaternion for one subgroup of one
// link, each policy produces the SU(2) element the kernel then left- and
// right-multiplies into the link. The policies are grounded on the
// stochastic-relaxation update (a direct port of the source's blend-or-hold
// formula) and on the algorithm prose for the others, since only the
// stochastic-relaxation source file survived distillation; the others are
// standard, well-known formulations of the same named algorithms.
package update

import (
	"math"

	"github.com/latticeqcd/gofix/internal/rng"
	"github.com/latticeqcd/gofix/internal/su3"
)

// Policy turns the accumulated interaction quaternion A of one subgroup
// into the SU(2) element to apply.
type Policy interface {
	Apply(a su3.Quaternion, stream *rng.Stream) su3.Quaternion
}

// Overrelaxation squares the normalized interaction direction (the full
// microcanonical reflection) and interpolates it toward the identity by
// weight Omega-1. Omega must lie in (1,2): at Omega near 1 the result is
// almost the full reflection (reducing to Microcanonical), at Omega near 2
// it is almost a no-op.
type Overrelaxation struct {
	Omega float64
}

func (o Overrelaxation) Apply(a su3.Quaternion, _ *rng.Stream) su3.Quaternion {
	a = a.Normalize()
	q := a.Mul(a)
	return slerp(q, su3.Identity, o.Omega-1)
}

// Microcanonical reflects the interaction direction: q = a*a/|a|^2, a pure
// angle-doubling with no stochastic component and no change in action.
type Microcanonical struct{}

func (Microcanonical) Apply(a su3.Quaternion, _ *rng.Stream) su3.Quaternion {
	a = a.Normalize()
	return a.Mul(a)
}

// SimulatedAnnealing draws a Boltzmann-weighted random SU(2) element biased
// toward the (normalized) interaction direction a, at temperature T: small
// T concentrates the draw near a (like Microcanonical), large T approaches
// a uniform RandomTransform.
type SimulatedAnnealing struct {
	Temperature float64
}

func (sa SimulatedAnnealing) Apply(a su3.Quaternion, stream *rng.Stream) su3.Quaternion {
	kappa := a.Norm() / sa.Temperature
	dir := a.Normalize()

	x := stream.Float64()
	a0 := 1.0
	if kappa > 1e-12 {
		a0 = 1.0 + math.Log(x+(1.0-x)*math.Exp(-2.0*kappa))/kappa
	}
	if a0 < -1 {
		a0 = -1
	}
	if a0 > 1 {
		a0 = 1
	}
	rho := math.Sqrt(math.Max(0, 1-a0*a0))

	u1, u2 := stream.Float64(), stream.Float64()
	cosTheta := 2*(u1*u2) - 1
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * stream.Float64()

	draw := su3.Quaternion{
		A0: a0,
		A1: rho * sinTheta * math.Cos(phi),
		A2: rho * sinTheta * math.Sin(phi),
		A3: rho * cosTheta,
	}
	return rotateToward(draw, dir)
}

// StochasticRelaxation applies the Microcanonical reflection with
// probability P, otherwise leaves A unchanged, then renormalizes: a direct
// port of the source's branchless (rand>=p)*identity + (rand<p)*reflection
// blend, expressed as an explicit branch since Go has no benefit from the
// CUDA-style predicated-multiply idiom.
type StochasticRelaxation struct {
	P float64
}

func (sr StochasticRelaxation) Apply(a su3.Quaternion, stream *rng.Stream) su3.Quaternion {
	a = a.Normalize()
	draw := stream.Float64()
	if draw < sr.P {
		return a.Mul(a)
	}
	return a
}

// RandomTransform ignores A and draws a uniformly-distributed SU(2)
// element, used both for the optional pre-sweep random gauge transform and
// as the Temperature-to-infinity limit of SimulatedAnnealing.
type RandomTransform struct{}

func (RandomTransform) Apply(_ su3.Quaternion, stream *rng.Stream) su3.Quaternion {
	cosTheta := 2*stream.Float64() - 1
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * stream.Float64()
	a0 := 2*stream.Float64() - 1
	rho := math.Sqrt(math.Max(0, 1-a0*a0))
	return su3.Quaternion{
		A0: a0,
		A1: rho * sinTheta * math.Cos(phi),
		A2: rho * sinTheta * math.Sin(phi),
		A3: rho * cosTheta,
	}.Normalize()
}

// slerp spherically interpolates between unit quaternions qa (t=0) and qb
// (t=1); falls back to linear interpolation when the two are nearly
// parallel, to avoid dividing by a near-zero sine.
func slerp(qa, qb su3.Quaternion, t float64) su3.Quaternion {
	dot := qa.A0*qb.A0 + qa.A1*qb.A1 + qa.A2*qb.A2 + qa.A3*qb.A3
	if dot < 0 {
		qb = su3.Quaternion{A0: -qb.A0, A1: -qb.A1, A2: -qb.A2, A3: -qb.A3}
		dot = -dot
	}
	if dot > 0.9995 {
		return lerp(qa, qb, t).Normalize()
	}
	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta0 := math.Sin(theta0)
	s0 := math.Cos(theta) - dot*math.Sin(theta)/sinTheta0
	s1 := math.Sin(theta) / sinTheta0
	return su3.Quaternion{
		A0: s0*qa.A0 + s1*qb.A0,
		A1: s0*qa.A1 + s1*qb.A1,
		A2: s0*qa.A2 + s1*qb.A2,
		A3: s0*qa.A3 + s1*qb.A3,
	}
}

func lerp(qa, qb su3.Quaternion, t float64) su3.Quaternion {
	return su3.Quaternion{
		A0: qa.A0 + t*(qb.A0-qa.A0),
		A1: qa.A1 + t*(qb.A1-qa.A1),
		A2: qa.A2 + t*(qb.A2-qa.A2),
		A3: qa.A3 + t*(qb.A3-qa.A3),
	}
}

// rotateToward re-expresses a draw taken around the north pole (A0 axis) in
// the frame where "north" is dir instead, by rotating dir onto the north
// pole's quaternion axis and applying the inverse to draw.
func rotateToward(draw, dir su3.Quaternion) su3.Quaternion {
	return dir.Mul(draw)
}

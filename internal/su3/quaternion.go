// Package su3 provides the complex/quaternion/SU(2)/SU(3) primitives the
// gauge-fixing kernels are built on: a four-real quaternion with SU(2)
// semantics, and an SU(3) link stored as its top two rows with the third
// reconstructed from orthogonality.
package su3

import "github.com/latticeqcd/gofix/hwy/contrib/vec"

// Quaternion is a four-real representation (a0, a1, a2, a3) with real part
// a0. It embeds into SU(3) via two row/column indices (i, j), i<j, through
// SubgroupMatrix/ApplySubgroup on Link2x3.
type Quaternion struct {
	A0, A1, A2, A3 float64
}

// Identity is the quaternion corresponding to the 2x2 identity matrix.
var Identity = Quaternion{A0: 1}

func (q Quaternion) array() [4]float64 {
	return [4]float64{q.A0, q.A1, q.A2, q.A3}
}

func fromArray(a [4]float64) Quaternion {
	return Quaternion{A0: a[0], A1: a[1], A2: a[2], A3: a[3]}
}

// Norm returns the Euclidean norm sqrt(a0^2+a1^2+a2^2+a3^2).
func (q Quaternion) Norm() float64 {
	a := q.array()
	return vec.BaseNorm(a[:])
}

// Normalize returns q scaled to unit norm. The zero quaternion is returned
// unchanged.
func (q Quaternion) Normalize() Quaternion {
	a := q.array()
	vec.BaseNormalize(a[:])
	return fromArray(a)
}

// Conj returns the quaternion conjugate (a0, -a1, -a2, -a3), i.e. the
// hermitian conjugate of the corresponding SU(2) matrix.
func (q Quaternion) Conj() Quaternion {
	return Quaternion{A0: q.A0, A1: -q.A1, A2: -q.A2, A3: -q.A3}
}

// Mul returns the Hamilton product q*r.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		A0: q.A0*r.A0 - q.A1*r.A1 - q.A2*r.A2 - q.A3*r.A3,
		A1: q.A0*r.A1 + q.A1*r.A0 + q.A2*r.A3 - q.A3*r.A2,
		A2: q.A0*r.A2 - q.A1*r.A3 + q.A2*r.A0 + q.A3*r.A1,
		A3: q.A0*r.A3 + q.A1*r.A2 - q.A2*r.A1 + q.A3*r.A0,
	}
}

// SU2Matrix builds the 2x2 special-unitary matrix
//
//	[ a0+i*a3   a2+i*a1 ]
//	[-a2+i*a1   a0-i*a3 ]
//
// corresponding to q. Exactly unitary with determinant 1 only when q is
// unit-norm.
func (q Quaternion) SU2Matrix() [2][2]complex128 {
	return [2][2]complex128{
		{complex(q.A0, q.A3), complex(q.A2, q.A1)},
		{complex(-q.A2, q.A1), complex(q.A0, -q.A3)},
	}
}

package su3

import (
	"math"

	"github.com/latticeqcd/gofix/hwy/contrib/vec"
)

// Link2x3 is an SU(3) link matrix stored as its top two rows; the third row
// is a derived quantity, reconstructed from orthogonality whenever a full
// 3x3 view is needed. Writebacks only ever persist the first two rows.
type Link2x3 struct {
	Rows [2][3]complex128
}

// IdentityLink is the SU(3) identity link.
var IdentityLink = Link2x3{Rows: [2][3]complex128{
	{1, 0, 0},
	{0, 1, 0},
}}

// ReconstructThird computes the third row as the conjugated cross product of
// the first two rows, so the result completes an orthonormal, determinant-1
// frame.
func (l Link2x3) ReconstructThird() [3]complex128 {
	r0, r1 := l.Rows[0], l.Rows[1]
	cross := [3]complex128{
		r0[1]*r1[2] - r0[2]*r1[1],
		r0[2]*r1[0] - r0[0]*r1[2],
		r0[0]*r1[1] - r0[1]*r1[0],
	}
	return [3]complex128{conj(cross[0]), conj(cross[1]), conj(cross[2])}
}

func conj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// Full returns all three rows of the matrix, reconstructing the third.
func (l Link2x3) Full() [3][3]complex128 {
	return [3][3]complex128{l.Rows[0], l.Rows[1], l.ReconstructThird()}
}

// FromFull discards the third row, keeping only the first two.
func FromFull(m [3][3]complex128) Link2x3 {
	return Link2x3{Rows: [2][3]complex128{m[0], m[1]}}
}

// Trace returns tr(U), reconstructing the third row if needed.
func (l Link2x3) Trace() complex128 {
	m := l.Full()
	return m[0][0] + m[1][1] + m[2][2]
}

// SubgroupQuaternion extracts the nearest-SU(2) quaternion of the (i,j) 2x2
// block of the matrix (projectSU2 in the original): diagonal entries feed
// (a0,a3), off-diagonal entries feed (a2,a1).
func (l Link2x3) SubgroupQuaternion(i, j int) Quaternion {
	return l.SubgroupMatrixQuaternion(l.SubgroupMatrix(i, j))
}

// SubgroupMatrixQuaternion projects an arbitrary 2x2 complex matrix onto the
// nearest SU(2) quaternion (same convention as SubgroupQuaternion, factored
// out so the MAG kernel can reuse it on matrices it built up itself).
func (l Link2x3) SubgroupMatrixQuaternion(m [2][2]complex128) Quaternion {
	q := Quaternion{
		A0: real(m[0][0]) + real(m[1][1]),
		A1: imag(m[0][1]) + imag(m[1][0]),
		A2: real(m[0][1]) - real(m[1][0]),
		A3: imag(m[0][0]) - imag(m[1][1]),
	}
	return q.Normalize()
}

// SubgroupMatrix returns the 2x2 block U[{i,j},{i,j}].
func (l Link2x3) SubgroupMatrix(i, j int) [2][2]complex128 {
	m := l.Full()
	return [2][2]complex128{
		{m[i][i], m[i][j]},
		{m[j][i], m[j][j]},
	}
}

// ApplySubgroup multiplies the SU(2) matrix of q into the link, restricted
// to rows {i,j} (left==true) or columns {i,j} (left==false).
func (l Link2x3) ApplySubgroup(i, j int, q Quaternion, left bool) Link2x3 {
	m := l.Full()
	su2 := q.SU2Matrix()
	if left {
		ri, rj := m[i], m[j]
		var newRi, newRj [3]complex128
		for k := 0; k < 3; k++ {
			newRi[k] = su2[0][0]*ri[k] + su2[0][1]*rj[k]
			newRj[k] = su2[1][0]*ri[k] + su2[1][1]*rj[k]
		}
		m[i], m[j] = newRi, newRj
	} else {
		for k := 0; k < 3; k++ {
			ci, cj := m[k][i], m[k][j]
			m[k][i] = ci*su2[0][0] + cj*su2[1][0]
			m[k][j] = ci*su2[0][1] + cj*su2[1][1]
		}
	}
	return FromFull(m)
}

// Reproject restores unitarity by Gram-Schmidt: the first row is normalized,
// the second is orthogonalized against it and normalized, the third row
// stays a derived quantity.
func (l Link2x3) Reproject() Link2x3 {
	r0 := toFloats(l.Rows[0][:])
	vec.BaseNormalize(r0)
	row0 := fromFloats(r0)

	proj := complexDot(l.Rows[1][:], row0)
	r1raw := make([]complex128, 3)
	for i := range r1raw {
		r1raw[i] = l.Rows[1][i] - proj*row0[i]
	}
	r1 := toFloats(r1raw)
	vec.BaseNormalize(r1)
	row1 := fromFloats(r1)

	var out Link2x3
	copy(out.Rows[0][:], row0)
	copy(out.Rows[1][:], row1)
	return out
}

// UnitarityDefect returns ||U U^dagger - I||_F, a measure of how far off the
// manifold the link has drifted since the last reprojection.
func (l Link2x3) UnitarityDefect() float64 {
	m := l.Full()
	var sum float64
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			var acc complex128
			for k := 0; k < 3; k++ {
				acc += m[a][k] * conj(m[b][k])
			}
			if a == b {
				acc -= 1
			}
			sum += real(acc)*real(acc) + imag(acc)*imag(acc)
		}
	}
	return math.Sqrt(sum)
}

// Determinant returns det(U), reconstructing the third row if needed.
func (l Link2x3) Determinant() complex128 {
	m := l.Full()
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func toFloats(v []complex128) []float64 {
	out := make([]float64, 2*len(v))
	for i, c := range v {
		out[2*i] = real(c)
		out[2*i+1] = imag(c)
	}
	return out
}

func fromFloats(f []float64) []complex128 {
	out := make([]complex128, len(f)/2)
	for i := range out {
		out[i] = complex(f[2*i], f[2*i+1])
	}
	return out
}

// complexDot returns sum(a[i] * conj(b[i])), splitting into real/imaginary
// parts and reducing each with vec.BaseDot so the reduction runs through the
// same numeric core as the rest of the package.
func complexDot(a, b []complex128) complex128 {
	n := len(a)
	rea, ima := make([]float64, n), make([]float64, n)
	reb, imb := make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		rea[i], ima[i] = real(a[i]), imag(a[i])
		reb[i], imb[i] = real(b[i]), imag(b[i])
	}
	re := vec.BaseDot(rea, reb) + vec.BaseDot(ima, imb)
	im := vec.BaseDot(ima, reb) - vec.BaseDot(rea, imb)
	return complex(re, im)
}

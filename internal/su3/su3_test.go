package su3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuaternionNormalize(t *testing.T) {
	q := Quaternion{A0: 3, A1: 4, A2: 0, A3: 0}
	n := q.Normalize()
	assert.InDelta(t, 1.0, n.Norm(), 1e-12)
	assert.InDelta(t, 0.6, n.A0, 1e-12)
	assert.InDelta(t, 0.8, n.A1, 1e-12)
}

func TestQuaternionMulIdentity(t *testing.T) {
	q := Quaternion{A0: 0.5, A1: 0.5, A2: 0.5, A3: 0.5}
	got := q.Mul(Identity)
	assert.Equal(t, q, got)
}

func TestQuaternionSU2MatrixUnitDeterminant(t *testing.T) {
	q := Quaternion{A0: 0.2, A1: 0.3, A2: 0.4, A3: 0.5}.Normalize()
	m := q.SU2Matrix()
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	assert.InDelta(t, 1.0, real(det), 1e-9)
	assert.InDelta(t, 0.0, imag(det), 1e-9)
}

func TestIdentityLinkIsUnitary(t *testing.T) {
	l := IdentityLink
	assert.InDelta(t, 0.0, l.UnitarityDefect(), 1e-12)
	det := l.Determinant()
	assert.InDelta(t, 1.0, real(det), 1e-12)
	assert.InDelta(t, 0.0, imag(det), 1e-12)
}

func TestApplySubgroupPreservesUnitarity(t *testing.T) {
	l := IdentityLink
	q := Quaternion{A0: 0.6, A1: 0.1, A2: -0.2, A3: 0.3}.Normalize()

	pairs := [][2]int{{0, 1}, {0, 2}, {1, 2}}
	for _, p := range pairs {
		l = l.ApplySubgroup(p[0], p[1], q, true)
		l = l.ApplySubgroup(p[0], p[1], q.Conj(), false)
	}

	assert.Less(t, l.UnitarityDefect(), 1e-9)
	det := l.Determinant()
	assert.InDelta(t, 1.0, real(det), 1e-8)
	assert.InDelta(t, 0.0, imag(det), 1e-8)
}

func TestReprojectRestoresUnitarityAfterDrift(t *testing.T) {
	l := IdentityLink
	// Manually perturb off the manifold.
	l.Rows[0][0] += 0.01
	l.Rows[1][1] -= 0.02

	require.Greater(t, l.UnitarityDefect(), 1e-3)
	repro := l.Reproject()
	assert.Less(t, repro.UnitarityDefect(), 1e-9)
}

func TestSubgroupQuaternionRoundTripsThroughSU2Matrix(t *testing.T) {
	q := Quaternion{A0: 0.4, A1: 0.1, A2: -0.3, A3: 0.2}.Normalize()
	m := q.SU2Matrix()
	full := [3][3]complex128{
		{m[0][0], m[0][1], 0},
		{m[1][0], m[1][1], 0},
		{0, 0, 1},
	}
	l := FromFull(full)
	got := l.SubgroupQuaternion(0, 1)
	assert.InDelta(t, q.A0, got.A0, 1e-9)
	assert.InDelta(t, q.A1, got.A1, 1e-9)
	assert.InDelta(t, q.A2, got.A2, 1e-9)
	assert.InDelta(t, q.A3, got.A3, 1e-9)
}

func TestQuaternionIdentityAfterConjMul(t *testing.T) {
	q := Quaternion{A0: 0.3, A1: -0.5, A2: 0.7, A3: 0.1}.Normalize()
	prod := q.Conj().Mul(q)
	assert.InDelta(t, 1.0, prod.A0, 1e-9)
	assert.InDelta(t, 0.0, math.Hypot(math.Hypot(prod.A1, prod.A2), prod.A3), 1e-9)
}

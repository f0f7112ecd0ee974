package ioformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/pattern"
	"github.com/latticeqcd/gofix/internal/update"
)

func randomField(t *testing.T) *kernel.GaugeField {
	size := lattice.Size{Nt: 2, Nx: 2, Ny: 2, Nz: 2}
	f := kernel.NewGaugeField(size, pattern.StandardPattern{Size: size})
	pool := workerpool.New(2)
	kernel.Sweep(f, kernel.Landau, 0, update.RandomTransform{}, 17, 0, pool)
	kernel.Sweep(f, kernel.Landau, 1, update.RandomTransform{}, 17, 1, pool)
	return f
}

func fieldsEqual(t *testing.T, a, b *kernel.GaugeField) {
	t.Helper()
	require.Equal(t, a.Size, b.Size)
	for idx := 0; idx < a.Size.Volume(); idx++ {
		site := a.Size.SiteFromNoSplitIndex(idx)
		for mu := 0; mu < kernel.Ndim; mu++ {
			la := a.GetLink(site, mu)
			lb := b.GetLink(site, mu)
			assert.InDeltaSlice(t, complexSliceTo2D(la.Full()), complexSliceTo2D(lb.Full()), 1e-9)
		}
	}
}

func complexSliceTo2D(m [3][3]complex128) []float64 {
	out := make([]float64, 0, 18)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out = append(out, real(m[i][j]), imag(m[i][j]))
		}
	}
	return out
}

func TestPlainRoundTrip(t *testing.T) {
	f := randomField(t)
	path := filepath.Join(t.TempDir(), "cfg.plain")

	require.NoError(t, Save(f, path, Plain, LoadResult{}, 0))

	size := f.Size
	loaded := kernel.NewGaugeField(size, pattern.StandardPattern{Size: size})
	_, err := Load(loaded, path, Plain, 0)
	require.NoError(t, err)

	fieldsEqual(t, f, loaded)
}

func TestHeaderonlyRoundTripPreservesHeader(t *testing.T) {
	f := randomField(t)
	path := filepath.Join(t.TempDir(), "cfg.vogt")

	header := []byte("0123456789abcdef")
	require.NoError(t, Save(f, path, Headeronly, LoadResult{Header: header}, 0))

	size := f.Size
	loaded := kernel.NewGaugeField(size, pattern.StandardPattern{Size: size})
	res, err := Load(loaded, path, Headeronly, len(header))
	require.NoError(t, err)

	assert.Equal(t, header, res.Header)
	fieldsEqual(t, f, loaded)
}

func TestQCDSTAGRoundTrip(t *testing.T) {
	f := randomField(t)
	path := filepath.Join(t.TempDir(), "cfg.qcdstag")

	require.NoError(t, Save(f, path, QCDSTAG, LoadResult{}, 0))

	size := f.Size
	loaded := kernel.NewGaugeField(size, pattern.StandardPattern{Size: size})
	_, err := Load(loaded, path, QCDSTAG, 0)
	require.NoError(t, err)

	fieldsEqual(t, f, loaded)
}

func TestILDGRoundTrip(t *testing.T) {
	f := randomField(t)
	size := f.Size

	template := filepath.Join(t.TempDir(), "template.ildg")
	writeMinimalILDGTemplate(t, template, size)

	out := filepath.Join(t.TempDir(), "out.ildg")
	require.NoError(t, os.WriteFile(out, mustReadFile(t, template), 0o644))

	// A first load establishes the LIME envelope to save back through.
	scratch := kernel.NewGaugeField(size, pattern.StandardPattern{Size: size})
	res, err := Load(scratch, template, ILDG, 0)
	require.NoError(t, err)

	require.NoError(t, Save(f, out, ILDG, res, 3))

	loaded := kernel.NewGaugeField(size, pattern.StandardPattern{Size: size})
	_, err = Load(loaded, out, ILDG, 0)
	require.NoError(t, err)

	fieldsEqual(t, f, loaded)
}

// writeMinimalILDGTemplate writes a LIME file with an ildg-binary-data
// record of the right size (content irrelevant, fully overwritten on save)
// plus an xlf-info record, matching the two record types ildg.cpp treats
// specially.
func writeMinimalILDGTemplate(t *testing.T, path string, size lattice.Size) {
	t.Helper()
	vol := size.Volume()
	payload := make([]byte, vol*kernel.Ndim*9*2*8)
	lf := &limeFile{records: []limeRecord{
		{recType: "xlf-info", mbFlag: true, meFlag: false, data: []byte("plaquette 1.0")},
		{recType: ildgBinaryRecord, mbFlag: false, meFlag: true, data: payload},
	}}
	require.NoError(t, saveLimeToPath(path, lf))
}

func mustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

package driver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/pattern"
)

func testField() *kernel.GaugeField {
	size := lattice.Size{Nt: 4, Nx: 2, Ny: 2, Nz: 2}
	return kernel.NewGaugeField(size, pattern.GpuPattern{Size: size})
}

func TestRunCompletesFullPipeline(t *testing.T) {
	field := testField()
	before := kernel.GaugeQuality(field, kernel.Landau)

	opts := Options{
		GaugeType:       kernel.Landau,
		RandomTransform: true,
		Seed:            1,
		Omega:           1.7,
		SAMax:           0.4,
		SAMin:           0.01,
		SASteps:         4,
		SAMicroupdates:  1,
		OrMaxIter:       20,
		CheckPrecision:  5,
		Reproject:       5,
		Precision:       1e-8,
		GaugeCopies:     2,
		Workers:         2,
	}

	result, err := Run(context.Background(), opts, field)
	require.NoError(t, err)
	assert.NotNil(t, result.Field)
	_ = before
}

func TestRunRejectsZeroGaugeCopies(t *testing.T) {
	field := testField()
	opts := Options{GaugeCopies: 0, SASteps: 1}
	_, err := Run(context.Background(), opts, field)
	assert.Error(t, err)
}

func TestRunRetainsHighestGffAcrossCopies(t *testing.T) {
	field := testField()
	opts := Options{
		GaugeType:      kernel.Landau,
		Seed:           5,
		Omega:          1.6,
		SAMax:          0.2,
		SAMin:          0.01,
		SASteps:        1,
		SAMicroupdates: 0,
		OrMaxIter:      5,
		CheckPrecision: 0,
		Reproject:      0,
		Precision:      1e-12,
		GaugeCopies:    3,
		Workers:        2,
	}
	result, err := Run(context.Background(), opts, field)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Quality.Gff, 0.0)

	// Copy k of the run is the same computation as a one-copy run seeded
	// with opts.Seed+k, so the retained Gff is the largest of those.
	best := math.Inf(-1)
	for k := 0; k < opts.GaugeCopies; k++ {
		single := opts
		single.GaugeCopies = 1
		single.Seed = opts.Seed + int32(k)
		r, err := Run(context.Background(), single, field)
		require.NoError(t, err)
		best = math.Max(best, r.Quality.Gff)
	}
	assert.InDelta(t, best, result.Quality.Gff, 1e-12)
}

// Package driver composes sweeps and policies into a full gauge-fixing run:
// an optional random transform, a temperature-annealed simulated-annealing
// loop, then an overrelaxation loop with periodic reprojection and
// precision checks, repeated across independent gauge copies and keeping
// the best. Grounded on spec.md's driver prose and the
// apply/generateGaugeQuality call sequence in
// original_source/src/gaugefixing/apps/MultiGPU_MPI/MultiGPU_MPI_Communicator.hxx.
package driver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/gferr"
	"github.com/latticeqcd/gofix/internal/gflog"
	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/update"
)

// Options configures one gauge-fixing run.
type Options struct {
	GaugeType        kernel.GaugeType
	RandomTransform  bool
	Seed             int32
	Omega            float64 // overrelaxation parameter, (1,2)
	SAMax, SAMin     float64 // simulated-annealing temperature bounds
	SASteps          int
	SAMicroupdates   int
	OrMaxIter        int
	CheckPrecision   int
	Reproject        int
	Precision        float64
	GaugeCopies      int
	Workers          int

	// SrMaxIter > 0 runs an additional stochastic-relaxation loop of up to
	// SrMaxIter iterations when overrelaxation used its whole OrMaxIter
	// budget without reaching Precision. It continues on the field
	// overrelaxation left; its reproject/precision cadence counts its own
	// iterations from zero, and Result.Iters adds them to overrelaxation's.
	SrMaxIter   int
	SrParameter float64 // flip probability is 1/SrParameter, mirroring Omega's "closer to 2 is gentler" sense
}

// Result is the outcome of one run: the retained field and its measured
// quality.
type Result struct {
	Field   *kernel.GaugeField
	Quality kernel.Quality
	Iters   int
}

// Run executes the full state machine described in spec.md §4:
// INIT -> (optional RANDOM_TRANSFORM) -> SA_LOOP -> OR_LOOP -> DONE,
// repeated for opts.GaugeCopies independent attempts, retaining the copy
// with the highest Gff.
func Run(ctx context.Context, opts Options, original *kernel.GaugeField) (Result, error) {
	if opts.GaugeCopies < 1 {
		return Result{}, errors.Wrap(gferr.ErrInvalidOption, "gaugeCopies must be >= 1")
	}
	if opts.SASteps < 1 {
		return Result{}, errors.Wrap(gferr.ErrInvalidOption, "saSteps must be >= 1")
	}

	pool := workerpool.New(opts.Workers)

	var best *Result
	for copyIdx := 0; copyIdx < opts.GaugeCopies; copyIdx++ {
		if err := ctx.Err(); err != nil {
			return Result{}, errors.Wrap(err, "gauge fixing cancelled")
		}

		field := cloneField(original)
		seed := opts.Seed + int32(copyIdx)
		counter := uint32(0)

		gflog.Debug().Int("copy", copyIdx).Msg("starting gauge copy")

		if opts.RandomTransform {
			sweepBothParities(field, opts.GaugeType, update.RandomTransform{}, seed, &counter, pool)
		}

		runSimulatedAnnealing(field, opts, seed, &counter, pool)
		iters, converged := runOverrelaxation(field, opts, seed, &counter, pool)

		if !converged && opts.SrMaxIter > 0 {
			srIters := runStochasticRelaxation(field, opts, seed, &counter, pool)
			iters += srIters
		}

		q := kernel.GaugeQuality(field, opts.GaugeType)
		gflog.Info().Int("copy", copyIdx).Float64("gff", q.Gff).Float64("theta", q.Theta).Msg("gauge copy finished")

		if best == nil || q.Gff > best.Quality.Gff {
			best = &Result{Field: field, Quality: q, Iters: iters}
		}
	}
	return *best, nil
}

func runSimulatedAnnealing(field *kernel.GaugeField, opts Options, seed int32, counter *uint32, pool *workerpool.Pool) {
	if opts.SASteps == 1 {
		sweepBothParities(field, opts.GaugeType, update.SimulatedAnnealing{Temperature: opts.SAMax}, seed, counter, pool)
		return
	}
	for k := 0; k < opts.SASteps; k++ {
		t := opts.SAMax + (opts.SAMin-opts.SAMax)*float64(k)/float64(opts.SASteps-1)
		sweepBothParities(field, opts.GaugeType, update.SimulatedAnnealing{Temperature: t}, seed, counter, pool)
		for m := 0; m < opts.SAMicroupdates; m++ {
			sweepBothParities(field, opts.GaugeType, update.Microcanonical{}, seed, counter, pool)
		}
	}
}

// runOverrelaxation returns the iteration count spent and whether the
// precision target was reached before the budget ran out.
func runOverrelaxation(field *kernel.GaugeField, opts Options, seed int32, counter *uint32, pool *workerpool.Pool) (int, bool) {
	policy := update.Overrelaxation{Omega: opts.Omega}
	return runRelaxationLoop(field, opts, policy, opts.OrMaxIter, seed, counter, pool)
}

// runStochasticRelaxation is driver.Run's fallback when overrelaxation
// exhausts its budget without converging: the same reproject/precision
// cadence, using the stochastic-relaxation policy instead.
func runStochasticRelaxation(field *kernel.GaugeField, opts Options, seed int32, counter *uint32, pool *workerpool.Pool) int {
	p := 1.0
	if opts.SrParameter > 0 {
		p = 1.0 / opts.SrParameter
	}
	policy := update.StochasticRelaxation{P: p}
	iters, _ := runRelaxationLoop(field, opts, policy, opts.SrMaxIter, seed, counter, pool)
	return iters
}

func runRelaxationLoop(field *kernel.GaugeField, opts Options, policy update.Policy, maxIter int, seed int32, counter *uint32, pool *workerpool.Pool) (int, bool) {
	iter := 0
	for ; iter < maxIter; iter++ {
		sweepBothParities(field, opts.GaugeType, policy, seed, counter, pool)

		if opts.Reproject > 0 && (iter+1)%opts.Reproject == 0 {
			field.ReprojectAll()
		}
		if opts.CheckPrecision > 0 && (iter+1)%opts.CheckPrecision == 0 {
			q := kernel.GaugeQuality(field, opts.GaugeType)
			if q.Theta < opts.Precision {
				return iter + 1, true
			}
		}
	}
	return iter, false
}

func sweepBothParities(field *kernel.GaugeField, gt kernel.GaugeType, policy update.Policy, seed int32, counter *uint32, pool *workerpool.Pool) {
	kernel.Sweep(field, gt, 0, policy, seed, *counter, pool)
	*counter++
	kernel.Sweep(field, gt, 1, policy, seed, *counter, pool)
	*counter++
}

func cloneField(f *kernel.GaugeField) *kernel.GaugeField {
	data := make([]float64, len(f.Data))
	copy(data, f.Data)
	return &kernel.GaugeField{Size: f.Size, Pattern: f.Pattern, Data: data}
}

// Command gaugefix loads one or more lattice gauge-field configurations,
// fixes each to the requested gauge (Landau, Coulomb, maximal Abelian, or
// U(1)xU(1)), and writes the result back out. Single process by default;
// --nprocs > 1 splits the time axis across a ring of gRPC peers following
// internal/comm's partition schedule, matching the rank-0-does-I/O split
// MultiGPU_MPI_Communicator.hxx uses.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/comm"
	"github.com/latticeqcd/gofix/internal/config"
	"github.com/latticeqcd/gofix/internal/driver"
	"github.com/latticeqcd/gofix/internal/gferr"
	"github.com/latticeqcd/gofix/internal/gflog"
	"github.com/latticeqcd/gofix/internal/ioformat"
	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/pattern"
	"github.com/latticeqcd/gofix/internal/update"
)

// clusterOptions holds the flags ProgramOptions.hxx has no equivalent for:
// MPI supplies rank/peer topology at launch, a gRPC ring needs it spelled
// out. Registered on the same FlagSet config.RegisterFlags populates.
type clusterOptions struct {
	Nt, Nx, Ny, Nz int
	GaugeType      string
	Pattern        string
	Rank, Nprocs   int
	Listen         string
	LeftAddr       string
	RightAddr      string
	LogLevel       string
	Omega          float64
}

func registerClusterFlags(fs *pflag.FlagSet) *clusterOptions {
	c := &clusterOptions{}
	fs.IntVar(&c.Nt, "nt", 8, "lattice extent in the time direction")
	fs.IntVar(&c.Nx, "nx", 8, "lattice extent in x")
	fs.IntVar(&c.Ny, "ny", 8, "lattice extent in y")
	fs.IntVar(&c.Nz, "nz", 8, "lattice extent in z")
	fs.StringVar(&c.GaugeType, "gaugetype", "landau", "landau, coulomb, mag, or u1xu1")
	fs.StringVar(&c.Pattern, "pattern", "gpu", "standard, gpu, gpulandau, gputimeslice, or gputimesliceparity")
	fs.Float64Var(&c.Omega, "omega", 1.7, "overrelaxation parameter, (1,2)")
	fs.IntVar(&c.Rank, "rank", 0, "this process's rank in the communicator ring")
	fs.IntVar(&c.Nprocs, "nprocs", 1, "total ring size; 1 skips all transport")
	fs.StringVar(&c.Listen, "listen", "", "address this rank's gRPC server binds, required when nprocs > 1")
	fs.StringVar(&c.LeftAddr, "left-addr", "", "address of rank-1's gRPC server")
	fs.StringVar(&c.RightAddr, "right-addr", "", "address of rank+1's gRPC server")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug, info, warn, or error")
	return c
}

func main() {
	root := &cobra.Command{
		Use:   "gaugefix [config-file]",
		Short: "Fix lattice gauge-field configurations to Landau, Coulomb, MAG, or U(1)xU(1) gauge",
	}

	cBinding := config.RegisterFlags(root.Flags())
	cOpts := registerClusterFlags(root.Flags())

	root.RunE = func(cmd *cobra.Command, _ []string) error {
		opts, err := cBinding.Resolve(cmd.Flags())
		if err != nil {
			return err
		}
		return run(cmd.Context(), opts, cOpts)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		gflog.Error().Err(err).Msg("gaugefix failed")
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, gferr.ErrInvalidOption), errors.Is(err, gferr.ErrFormat):
		return 2
	case errors.Is(err, gferr.ErrIO):
		return 3
	case errors.Is(err, gferr.ErrRank):
		return 4
	case errors.Is(err, gferr.ErrConvergence):
		return 5
	default:
		return 1
	}
}

func run(ctx context.Context, opts config.Options, cOpts *clusterOptions) error {
	level, err := zerolog.ParseLevel(cOpts.LogLevel)
	if err != nil {
		return errors.Wrap(gferr.ErrInvalidOption, "log-level: "+err.Error())
	}
	gflog.Configure(level, os.Stderr)

	gt, err := parseGaugeType(cOpts.GaugeType)
	if err != nil {
		return err
	}
	size := lattice.Size{Nt: cOpts.Nt, Nx: cOpts.Nx, Ny: cOpts.Ny, Nz: cOpts.Nz}
	pat, err := parsePattern(cOpts.Pattern, size)
	if err != nil {
		return err
	}

	workers := cOpts.Nprocs
	if opts.DeviceNumber > 0 {
		workers = opts.DeviceNumber
	}

	for confIdx := 0; confIdx < opts.Nconf; confIdx++ {
		number := opts.FStartnumber + confIdx*opts.FStepnumber
		if err := runOneConf(ctx, opts, cOpts, gt, pat, size, number, workers); err != nil {
			return err
		}
	}
	return nil
}

func runOneConf(ctx context.Context, opts config.Options, cOpts *clusterOptions, gt kernel.GaugeType, pat pattern.Pattern, size lattice.Size, number, workers int) error {
	field := kernel.NewGaugeField(size, pat)

	log := gflog.WithRank(cOpts.Rank)

	var loaded ioformat.LoadResult
	if opts.HotGaugefield {
		pool := workerpool.New(workers)
		kernel.Sweep(field, kernel.Landau, 0, update.RandomTransform{}, int32(opts.Seed), 0, pool)
		kernel.Sweep(field, kernel.Landau, 1, update.RandomTransform{}, int32(opts.Seed), 1, pool)
	} else {
		path := inputPath(opts, number)
		// Headeronly/VOGT files carry no header-length flag in the CLI
		// surface (ProgramOptions.hxx has none either); 0 is the
		// out-of-the-box default, matching a Plain file with no header.
		res, err := ioformat.Load(field, path, opts.FType, 0)
		if err != nil {
			return err
		}
		loaded = res
		log.Info().Str("path", path).Msg("loaded configuration")
	}

	dOpts := driver.Options{
		GaugeType:       gt,
		RandomTransform: opts.RandomTrafo,
		Seed:            int32(opts.Seed),
		Omega:           cOpts.Omega,
		SAMax:           opts.SAMax,
		SAMin:           opts.SAMin,
		SASteps:         opts.SASteps,
		SAMicroupdates:  opts.SAMicroupdates,
		OrMaxIter:       opts.OrMaxIter,
		CheckPrecision:  opts.CheckPrecision,
		Reproject:       opts.Reproject,
		Precision:       opts.Precision,
		GaugeCopies:     opts.GaugeCopies,
		Workers:         workers,
		SrMaxIter:       opts.SrMaxIter,
		SrParameter:     opts.SrParameter,
	}
	if !opts.DoSA {
		dOpts.SASteps = 1
		dOpts.SAMax = opts.SAMax
		dOpts.SAMin = opts.SAMax
	}

	var result driver.Result
	var err error
	if cOpts.Nprocs > 1 {
		result, err = runDistributed(ctx, cOpts, dOpts, field)
	} else {
		result, err = driver.Run(ctx, dOpts, field)
	}
	if err != nil {
		return err
	}

	log.Info().Float64("gff", result.Quality.Gff).Float64("theta", result.Quality.Theta).Int("iters", result.Iters).Msg("gauge fixing finished")

	if cOpts.Rank == 0 && opts.OutputConf != "" {
		outPath := outputPath(opts, number)
		if err := ioformat.Save(result.Field, outPath, opts.FType, loaded, opts.SASteps); err != nil {
			return err
		}
		log.Info().Str("path", outPath).Msg("saved configuration")
	}
	return nil
}

// runDistributed wires a comm.Node to its left/right peers over real gRPC
// connections (loopback-free: every rank's own process dials out, matching
// how MPI ranks are independent processes rather than goroutines sharing an
// address space) and drives driver-equivalent SA/OR loops through Node.Apply
// instead of the single-process sweep, since Node owns the partition and
// halo machinery driver.Run has no notion of.
func runDistributed(ctx context.Context, cOpts *clusterOptions, dOpts driver.Options, field *kernel.GaugeField) (driver.Result, error) {
	if cOpts.Listen == "" {
		return driver.Result{}, errors.Wrap(gferr.ErrInvalidOption, "--listen is required when --nprocs > 1")
	}
	lis, err := net.Listen("tcp", cOpts.Listen)
	if err != nil {
		return driver.Result{}, errors.Wrap(gferr.ErrRank, err.Error())
	}
	defer lis.Close()

	part := comm.NewPartition(cOpts.Rank, cOpts.Nprocs, field.Size.Nt)

	left, leftConn, err := dialPeer(cOpts.LeftAddr)
	if err != nil {
		return driver.Result{}, errors.Wrap(gferr.ErrRank, "dialing left peer: "+err.Error())
	}
	defer leftConn.Close()
	right, rightConn, err := dialPeer(cOpts.RightAddr)
	if err != nil {
		return driver.Result{}, errors.Wrap(gferr.ErrRank, "dialing right peer: "+err.Error())
	}
	defer rightConn.Close()

	node := comm.NewNode(part, field, left, right)

	server := grpc.NewServer()
	comm.RegisterGaugeCommServer(server, node)
	go server.Serve(lis)
	defer server.Stop()

	pool := workerpool.New(dOpts.Workers)
	result, err := runNodeLoop(ctx, node, dOpts, pool)
	if err != nil {
		return driver.Result{}, errors.Wrap(gferr.ErrRank, err.Error())
	}
	return result, nil
}

// runNodeLoop is driver.Run's multi-rank counterpart: the same random-
// transform -> SA -> OR [-> SR fallback] -> best-of-N-copies shape, but
// every sweep goes through node.Apply (interior compute overlapped with
// halo exchange) and every quality check through node.GenerateGaugeQuality
// (local partial sum, ring-reduced across every rank) instead of the
// single-process kernel.Sweep/kernel.GaugeQuality driver.Run uses. Every
// rank runs this identically and in lockstep, since halo exchange and ring
// reduction are synchronous round trips between neighbours.
func runNodeLoop(ctx context.Context, node *comm.Node, dOpts driver.Options, pool *workerpool.Pool) (driver.Result, error) {
	original := node.Field
	var best *driver.Result

	for copyIdx := 0; copyIdx < dOpts.GaugeCopies; copyIdx++ {
		if err := ctx.Err(); err != nil {
			return driver.Result{}, err
		}

		field := cloneField(original)
		node.Field = field
		seed := dOpts.Seed + int32(copyIdx)
		counter := uint32(0)

		if dOpts.RandomTransform {
			if err := node.Apply(ctx, dOpts.GaugeType, update.RandomTransform{}, seed, &counter, pool); err != nil {
				return driver.Result{}, err
			}
		}

		if err := runNodeSA(ctx, node, dOpts, seed, &counter, pool); err != nil {
			return driver.Result{}, err
		}

		iters, converged, err := runNodeRelax(ctx, node, update.Overrelaxation{Omega: dOpts.Omega}, dOpts.OrMaxIter, dOpts, seed, &counter, pool)
		if err != nil {
			return driver.Result{}, err
		}
		if !converged && dOpts.SrMaxIter > 0 {
			p := 1.0
			if dOpts.SrParameter > 0 {
				p = 1.0 / dOpts.SrParameter
			}
			srIters, _, err := runNodeRelax(ctx, node, update.StochasticRelaxation{P: p}, dOpts.SrMaxIter, dOpts, seed, &counter, pool)
			if err != nil {
				return driver.Result{}, err
			}
			iters += srIters
		}

		q, err := node.GenerateGaugeQuality(ctx, dOpts.GaugeType)
		if err != nil {
			return driver.Result{}, err
		}
		if best == nil || q.Gff > best.Quality.Gff {
			best = &driver.Result{Field: field, Quality: q, Iters: iters}
		}
	}
	return *best, nil
}

func runNodeSA(ctx context.Context, node *comm.Node, dOpts driver.Options, seed int32, counter *uint32, pool *workerpool.Pool) error {
	if dOpts.SASteps == 1 {
		return node.Apply(ctx, dOpts.GaugeType, update.SimulatedAnnealing{Temperature: dOpts.SAMax}, seed, counter, pool)
	}
	for k := 0; k < dOpts.SASteps; k++ {
		t := dOpts.SAMax + (dOpts.SAMin-dOpts.SAMax)*float64(k)/float64(dOpts.SASteps-1)
		if err := node.Apply(ctx, dOpts.GaugeType, update.SimulatedAnnealing{Temperature: t}, seed, counter, pool); err != nil {
			return err
		}
		for m := 0; m < dOpts.SAMicroupdates; m++ {
			if err := node.Apply(ctx, dOpts.GaugeType, update.Microcanonical{}, seed, counter, pool); err != nil {
				return err
			}
		}
	}
	return nil
}

func runNodeRelax(ctx context.Context, node *comm.Node, policy update.Policy, maxIter int, dOpts driver.Options, seed int32, counter *uint32, pool *workerpool.Pool) (int, bool, error) {
	iter := 0
	for ; iter < maxIter; iter++ {
		if err := node.Apply(ctx, dOpts.GaugeType, policy, seed, counter, pool); err != nil {
			return iter, false, err
		}
		if dOpts.Reproject > 0 && (iter+1)%dOpts.Reproject == 0 {
			node.Field.ReprojectAll()
		}
		if dOpts.CheckPrecision > 0 && (iter+1)%dOpts.CheckPrecision == 0 {
			q, err := node.GenerateGaugeQuality(ctx, dOpts.GaugeType)
			if err != nil {
				return iter, false, err
			}
			if q.Theta < dOpts.Precision {
				return iter + 1, true, nil
			}
		}
	}
	return iter, false, nil
}

func cloneField(f *kernel.GaugeField) *kernel.GaugeField {
	data := make([]float64, len(f.Data))
	copy(data, f.Data)
	return &kernel.GaugeField{Size: f.Size, Pattern: f.Pattern, Data: data}
}

func dialPeer(addr string) (comm.GaugeCommClient, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("gob")),
	)
	if err != nil {
		return comm.GaugeCommClient{}, nil, err
	}
	return comm.NewGaugeCommClient(conn), conn, nil
}

func inputPath(opts config.Options, number int) string {
	return opts.FBasename + formatNumber(opts.FNumberformat, number) + opts.FEnding
}

func outputPath(opts config.Options, number int) string {
	ending := opts.OutputEnding
	if ending == "" {
		ending = opts.FEnding
	}
	return opts.OutputConf + opts.FOutputAppendix + formatNumber(opts.FNumberformat, number) + ending
}

func formatNumber(width, number int) string {
	s := strconv.Itoa(number)
	if width <= 0 || len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func parseGaugeType(s string) (kernel.GaugeType, error) {
	switch strings.ToLower(s) {
	case "landau":
		return kernel.Landau, nil
	case "coulomb":
		return kernel.Coulomb, nil
	case "mag":
		return kernel.MAG, nil
	case "u1xu1":
		return kernel.U1xU1, nil
	default:
		return 0, errors.Wrap(gferr.ErrInvalidOption, fmt.Sprintf("unknown gaugetype %q", s))
	}
}

func parsePattern(s string, size lattice.Size) (pattern.Pattern, error) {
	switch strings.ToLower(s) {
	case "standard":
		return pattern.StandardPattern{Size: size}, nil
	case "gpu":
		return pattern.GpuPattern{Size: size}, nil
	case "gpulandau":
		return pattern.GpuLandauPattern{Size: size}, nil
	case "gputimeslice":
		return pattern.GpuTimeslicePattern{Size: size}, nil
	case "gputimesliceparity":
		return pattern.GpuPatternTimesliceParityPriority{Size: size}, nil
	default:
		return nil, errors.Wrap(gferr.ErrInvalidOption, fmt.Sprintf("unknown pattern %q", s))
	}
}

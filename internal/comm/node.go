package comm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/comm/gaugecommpb"
	"github.com/latticeqcd/gofix/internal/gflog"
	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/su3"
	"github.com/latticeqcd/gofix/internal/update"
)

// Node drives one rank's share of a distributed run: it owns the full field
// array (every rank keeps a complete replica so link reads never need a
// remote round trip) but is authoritative only for its own [Tmin, Tmax)
// timeslices, and relies on halo exchange to keep its neighbours' boundary
// timeslices current before sweeping sites adjacent to them.
type Node struct {
	Partition Partition
	Field     *kernel.GaugeField
	Left      GaugeCommClient
	Right     GaugeCommClient

	inbox chan gaugecommpb.ReduceRequest
}

// NewNode builds a Node ready to drive sweeps once Left and Right are wired
// to live connections (or loopback stubs, for Nprocs == 1).
func NewNode(part Partition, field *kernel.GaugeField, left, right GaugeCommClient) *Node {
	return &Node{
		Partition: part,
		Field:     field,
		Left:      left,
		Right:     right,
		inbox:     make(chan gaugecommpb.ReduceRequest, 1),
	}
}

// ExchangeHalo implements GaugeCommServer: it stores the caller's boundary
// timeslice into the matching ghost slot of this node's replica, and
// replies with this node's own boundary timeslice so one round trip updates
// both sides of the seam.
func (n *Node) ExchangeHalo(ctx context.Context, req *gaugecommpb.HaloRequest) (*gaugecommpb.HaloResponse, error) {
	nt := n.Field.Size.Nt
	switch req.FromRank {
	case int32(n.Partition.RightRank):
		n.storeTimeslice(n.Partition.Tmax%nt, req.Data)
		return &gaugecommpb.HaloResponse{Data: n.extractTimeslice(wrap(n.Partition.Tmax-1, nt))}, nil
	default:
		n.storeTimeslice(wrap(n.Partition.Tmin-1, nt), req.Data)
		return &gaugecommpb.HaloResponse{Data: n.extractTimeslice(n.Partition.Tmin % nt)}, nil
	}
}

// AllReduce implements GaugeCommServer for the ring all-reduce: it posts the
// caller's partial sum to this node's inbox, where the ringAllReduce call
// in progress on this node is waiting to pick it up.
func (n *Node) AllReduce(ctx context.Context, req *gaugecommpb.ReduceRequest) (*gaugecommpb.ReduceResponse, error) {
	select {
	case n.inbox <- *req:
		return &gaugecommpb.ReduceResponse{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Apply runs one sweep of both parities for gt, scheduling compute across
// the six StartPart/EndPart windows NewPartition precomputed, mirroring
// MultiGPU_MPI_Communicator.hxx::apply's six-stage pipeline: two one-way
// round trips (forward with Left, back with Right), each with two windows
// of compute hidden behind it and a third window computed once it lands;
// the forward round trip is then followed by the Tmin slice, which it made
// current. The windows cover Tmin+1 through Tmax-1, so together with the
// Tmin sweep every owned site of a parity is updated once per call.
// Every interior site's neighbours are local regardless of window order —
// only Tmin (needs Left's ghost) and Tmax-1 (needs Right's ghost) have a
// real cross-rank dependency — so the windows are a latency-hiding schedule
// rather than a correctness requirement, and a single-process run (Nprocs
// == 1) just sweeps the whole range in one call.
func (n *Node) Apply(ctx context.Context, gt kernel.GaugeType, policy update.Policy, seed int32, counter *uint32, pool *workerpool.Pool) error {
	p := n.Partition
	for parity := 0; parity < 2; parity++ {
		if p.Nprocs == 1 {
			kernel.SweepRange(n.Field, gt, parity, p.Tmin, p.Tmax, policy, seed, *counter, pool)
			*counter++
			continue
		}

		sweepWindow := func(l int) {
			if p.EndPart[l] > p.StartPart[l] {
				kernel.SweepRange(n.Field, gt, parity, p.StartPart[l], p.EndPart[l], policy, seed, *counter, pool)
			}
		}

		// forward phase: windows 2 and 0 run while the Left round trip
		// (refreshing this node's Tmin-1 ghost) is in flight; window 3
		// and the Tmin slice itself run once it lands.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return n.exchangeLeft(gctx) })
		sweepWindow(2)
		sweepWindow(0)
		if err := g.Wait(); err != nil {
			return err
		}
		sweepWindow(3)
		kernel.SweepRange(n.Field, gt, parity, p.Tmin, p.Tmin+1, policy, seed, *counter, pool)

		// back phase: symmetric, hiding the Right round trip (which
		// refreshes this node's Tmax ghost) behind windows 4 and 1.
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() error { return n.exchangeRight(gctx) })
		sweepWindow(4)
		sweepWindow(1)
		if err := g.Wait(); err != nil {
			return err
		}
		sweepWindow(5)

		*counter++
	}
	return nil
}

// exchangeLeft sends this node's Tmin slice to Left and stores Left's reply
// into the Tmin-1 ghost, the forward half of the halo exchange.
func (n *Node) exchangeLeft(ctx context.Context) error {
	resp, err := n.Left.ExchangeHalo(ctx, &gaugecommpb.HaloRequest{
		FromRank: int32(n.Partition.Rank),
		Data:     n.extractTimeslice(n.Partition.Tmin),
	})
	if err != nil {
		return err
	}
	n.storeTimeslice(wrap(n.Partition.Tmin-1, n.Field.Size.Nt), resp.Data)
	return nil
}

// exchangeRight sends this node's Tmax-1 slice to Right and stores Right's
// reply into the Tmax ghost, the back half of the halo exchange.
func (n *Node) exchangeRight(ctx context.Context) error {
	resp, err := n.Right.ExchangeHalo(ctx, &gaugecommpb.HaloRequest{
		FromRank: int32(n.Partition.Rank),
		Data:     n.extractTimeslice(n.Partition.Tmax - 1),
	})
	if err != nil {
		return err
	}
	n.storeTimeslice(n.Partition.Tmax%n.Field.Size.Nt, resp.Data)
	return nil
}

// GenerateGaugeQuality computes this node's partial gauge-quality sum over
// its owned timeslices, ring-reduces it against every other rank's partial
// sum, and normalizes by the global lattice volume so every rank converges
// on the identical result independent of how evenly Nt divides Nprocs.
func (n *Node) GenerateGaugeQuality(ctx context.Context, gt kernel.GaugeType) (kernel.Quality, error) {
	gffSum, thetaSum := kernel.GaugeQualitySum(n.Field, gt, n.Partition.Tmin, n.Partition.Tmax)

	total, err := n.ringAllReduce(ctx, gffSum, thetaSum)
	if err != nil {
		return kernel.Quality{}, err
	}

	vol := n.Field.Size.Volume()
	gflog.Debug().Int("rank", n.Partition.Rank).Float64("gff", total.Gff).Msg("reduced gauge quality")
	return kernel.Quality{
		Gff:   total.Gff / float64(3*kernel.Ndim*vol),
		Theta: total.Theta / float64(3*vol),
	}, nil
}

func (n *Node) ringAllReduce(ctx context.Context, gff, theta float64) (kernel.Quality, error) {
	acc := kernel.Quality{Gff: gff, Theta: theta}
	if n.Partition.Nprocs == 1 {
		return acc, nil
	}

	// Each round passes on the partial sum received in the previous round
	// (the own one first), so every rank's partial reaches every other rank
	// exactly once.
	fwd := acc
	for round := 0; round < n.Partition.Nprocs-1; round++ {
		toSend := fwd
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			_, err := n.Right.AllReduce(gctx, &gaugecommpb.ReduceRequest{
				FromRank: int32(n.Partition.Rank),
				Gff:      toSend.Gff,
				Theta:    toSend.Theta,
			})
			return err
		})
		var received gaugecommpb.ReduceRequest
		g.Go(func() error {
			select {
			case received = <-n.inbox:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err := g.Wait(); err != nil {
			return kernel.Quality{}, err
		}
		acc.Gff += received.Gff
		acc.Theta += received.Theta
		fwd = kernel.Quality{Gff: received.Gff, Theta: received.Theta}
	}
	return acc, nil
}

func (n *Node) extractTimeslice(t int) []float64 {
	tsVol := n.Field.Size.TimesliceVolume()
	out := make([]float64, 0, tsVol*kernel.Ndim*12)
	for idx := 0; idx < tsVol; idx++ {
		site := n.Field.Size.SiteFromNoSplitIndex(t*tsVol + idx)
		for mu := 0; mu < kernel.Ndim; mu++ {
			l := n.Field.GetLink(site, mu)
			for i := 0; i < 2; i++ {
				for j := 0; j < 3; j++ {
					out = append(out, real(l.Rows[i][j]), imag(l.Rows[i][j]))
				}
			}
		}
	}
	return out
}

func (n *Node) storeTimeslice(t int, data []float64) {
	tsVol := n.Field.Size.TimesliceVolume()
	pos := 0
	for idx := 0; idx < tsVol; idx++ {
		site := n.Field.Size.SiteFromNoSplitIndex(t*tsVol + idx)
		for mu := 0; mu < kernel.Ndim; mu++ {
			var l su3.Link2x3
			for i := 0; i < 2; i++ {
				for j := 0; j < 3; j++ {
					l.Rows[i][j] = complex(data[pos], data[pos+1])
					pos += 2
				}
			}
			n.Field.SetLink(site, mu, l)
		}
	}
}

func wrap(t, nt int) int {
	t %= nt
	if t < 0 {
		t += nt
	}
	return t
}

package comm

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/latticeqcd/gofix/hwy/contrib/workerpool"
	"github.com/latticeqcd/gofix/internal/kernel"
	"github.com/latticeqcd/gofix/internal/lattice"
	"github.com/latticeqcd/gofix/internal/pattern"
	"github.com/latticeqcd/gofix/internal/update"
)

func TestNewPartitionCoversEveryTimeslice(t *testing.T) {
	const nt, nprocs = 8, 3
	seen := make(map[int]int)
	for rank := 0; rank < nprocs; rank++ {
		p := NewPartition(rank, nprocs, nt)
		for t := p.Tmin; t < p.Tmax; t++ {
			seen[t] = rank
		}
	}
	assert.Len(t, seen, nt)
	for t := 0; t < nt; t++ {
		assert.Equal(t, OwnerOf(t, nprocs, nt), seen[t])
	}
}

func TestNewPartitionScheduleSpansOwnedInterior(t *testing.T) {
	p := NewPartition(0, 2, 8)
	total := 0
	for l := 0; l < 6; l++ {
		assert.GreaterOrEqual(t, p.EndPart[l], p.StartPart[l])
		total += p.EndPart[l] - p.StartPart[l]
	}
	assert.Equal(t, p.Tmax-p.Tmin-1, total)
}

// dialedPair spins up two in-process gRPC servers connected by bufconn
// listeners and returns clients, each pointed at the other's server, with
// the gob codec negotiated on every call.
func dialedPair(t *testing.T, left, right GaugeCommServer) (GaugeCommClient, GaugeCommClient, func()) {
	t.Helper()

	leftLis := bufconn.Listen(1024 * 1024)
	rightLis := bufconn.Listen(1024 * 1024)

	leftSrv := grpc.NewServer()
	RegisterGaugeCommServer(leftSrv, left)
	rightSrv := grpc.NewServer()
	RegisterGaugeCommServer(rightSrv, right)

	go leftSrv.Serve(leftLis)
	go rightSrv.Serve(rightLis)

	dial := func(lis *bufconn.Listener) *grpc.ClientConn {
		cc, err := grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(gobCodecName)),
		)
		require.NoError(t, err)
		return cc
	}

	leftConn := dial(leftLis)
	rightConn := dial(rightLis)

	cleanup := func() {
		leftConn.Close()
		rightConn.Close()
		leftSrv.Stop()
		rightSrv.Stop()
	}
	return NewGaugeCommClient(rightConn), NewGaugeCommClient(leftConn), cleanup
}

func twoRankField(size lattice.Size) *kernel.GaugeField {
	return kernel.NewGaugeField(size, pattern.GpuPattern{Size: size})
}

func TestTwoNodeQualityMatchesSingleNode(t *testing.T) {
	size := lattice.Size{Nt: 4, Nx: 2, Ny: 2, Nz: 2}

	single := twoRankField(size)
	pool := workerpool.New(2)
	kernel.Sweep(single, kernel.Landau, 0, update.RandomTransform{}, 42, 0, pool)
	kernel.Sweep(single, kernel.Landau, 1, update.RandomTransform{}, 42, 1, pool)
	want := kernel.GaugeQuality(single, kernel.Landau)

	fieldA := twoRankField(size)
	fieldB := twoRankField(size)
	copy(fieldA.Data, single.Data)
	copy(fieldB.Data, single.Data)

	partA := NewPartition(0, 2, size.Nt)
	partB := NewPartition(1, 2, size.Nt)

	nodeA := NewNode(partA, fieldA, GaugeCommClient{}, GaugeCommClient{})
	nodeB := NewNode(partB, fieldB, GaugeCommClient{}, GaugeCommClient{})

	toB, toA, cleanup := dialedPair(t, nodeA, nodeB)
	defer cleanup()
	nodeA.Right, nodeA.Left = toB, toB
	nodeB.Right, nodeB.Left = toA, toA

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type outcome struct {
		q   kernel.Quality
		err error
	}
	resA := make(chan outcome, 1)
	resB := make(chan outcome, 1)
	go func() {
		q, err := nodeA.GenerateGaugeQuality(ctx, kernel.Landau)
		resA <- outcome{q, err}
	}()
	go func() {
		q, err := nodeB.GenerateGaugeQuality(ctx, kernel.Landau)
		resB <- outcome{q, err}
	}()

	outA := <-resA
	outB := <-resB
	qA, errA := outA.q, outA.err
	qB, errB := outB.q, outB.err
	require.NoError(t, errA)
	require.NoError(t, errB)

	assert.InDelta(t, want.Gff, qA.Gff, 1e-9)
	assert.InDelta(t, want.Gff, qB.Gff, 1e-9)
	assert.InDelta(t, want.Theta, qA.Theta, 1e-9)
}

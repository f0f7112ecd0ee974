package comm

import (
	"context"

	"google.golang.org/grpc"

	"github.com/latticeqcd/gofix/internal/comm/gaugecommpb"
)

// GaugeCommServer is the server-side contract every rank implements:
// accept an inbound halo slice from a neighbour, and fold a neighbour's
// partial gauge-quality sum into the collective reduction.
type GaugeCommServer interface {
	ExchangeHalo(ctx context.Context, req *gaugecommpb.HaloRequest) (*gaugecommpb.HaloResponse, error)
	AllReduce(ctx context.Context, req *gaugecommpb.ReduceRequest) (*gaugecommpb.ReduceResponse, error)
}

const serviceName = "gofix.comm.GaugeComm"

// serviceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit from a .proto file; plain data plus two small handler
// closures, not a dependency on protobuf reflection.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GaugeCommServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ExchangeHalo",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(gaugecommpb.HaloRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(GaugeCommServer).ExchangeHalo(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ExchangeHalo"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(GaugeCommServer).ExchangeHalo(ctx, req.(*gaugecommpb.HaloRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
		{
			MethodName: "AllReduce",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := new(gaugecommpb.ReduceRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(GaugeCommServer).AllReduce(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AllReduce"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(GaugeCommServer).AllReduce(ctx, req.(*gaugecommpb.ReduceRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Metadata: "gofix/comm/gaugecomm.proto",
}

// RegisterGaugeCommServer attaches srv's methods to s.
func RegisterGaugeCommServer(s *grpc.Server, srv GaugeCommServer) {
	s.RegisterService(&serviceDesc, srv)
}

// GaugeCommClient is the client-side stub, dialed once per neighbour rank.
type GaugeCommClient struct {
	cc grpc.ClientConnInterface
}

// NewGaugeCommClient wraps an existing connection (expected to have been
// dialed with grpc.WithDefaultCallOptions(grpc.CallContentSubtype(gobCodecName))
// so every call on it negotiates the gob codec).
func NewGaugeCommClient(cc grpc.ClientConnInterface) GaugeCommClient {
	return GaugeCommClient{cc: cc}
}

func (c GaugeCommClient) ExchangeHalo(ctx context.Context, req *gaugecommpb.HaloRequest) (*gaugecommpb.HaloResponse, error) {
	out := new(gaugecommpb.HaloResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ExchangeHalo", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c GaugeCommClient) AllReduce(ctx context.Context, req *gaugecommpb.ReduceRequest) (*gaugecommpb.ReduceResponse, error) {
	out := new(gaugecommpb.ReduceResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AllReduce", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

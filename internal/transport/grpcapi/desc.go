package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "gachasim.v1.Simulator"

	MethodSimulateDraws     = "/" + ServiceName + "/SimulateDraws"
	MethodSimulateSynthesis = "/" + ServiceName + "/SimulateSynthesis"
)

// SimulatorServer is the server API for gachasim.v1.Simulator.
// Messages are google.protobuf.Struct documents with the same fields as the HTTP JSON bodies.
type SimulatorServer interface {
	SimulateDraws(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SimulateSynthesis(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSimulatorServer registers srv on s.
func RegisterSimulatorServer(s grpc.ServiceRegistrar, srv SimulatorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes gachasim.v1.Simulator without generated code.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SimulateDraws",
			Handler:    unaryHandler(MethodSimulateDraws, SimulatorServer.SimulateDraws),
		},
		{
			MethodName: "SimulateSynthesis",
			Handler:    unaryHandler(MethodSimulateSynthesis, SimulatorServer.SimulateSynthesis),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gachasim/v1/simulator.proto",
}

type unaryMethod func(SimulatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SimulatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SimulatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls gachasim.v1.Simulator over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) SimulateDraws(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSimulateDraws, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SimulateSynthesis(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSimulateSynthesis, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

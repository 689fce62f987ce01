package ack

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName         = "cribfeed.ack.v1.AckService"
	AcknowledgeFullName = "/" + ServiceName + "/Acknowledge"
)

// AckServer is the server side of the acknowledgement service.
type AckServer interface {
	Acknowledge(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
}

// ServiceDesc describes the acknowledgement service. The payload is a
// well-known Struct so no generated code is needed on either side.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AckServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Acknowledge",
			Handler:    acknowledgeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cribfeed/ack/v1/ack.proto",
}

// RegisterAckServer registers srv on s.
func RegisterAckServer(s grpc.ServiceRegistrar, srv AckServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func acknowledgeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AckServer).Acknowledge(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AcknowledgeFullName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AckServer).Acknowledge(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

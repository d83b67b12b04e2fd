package admin

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AdminServiceServer is the server API for the admin introspection gRPC
// service. Its three methods are exactly spec.md §4.9's C11 surface;
// replies are google.protobuf.Struct rather than dedicated generated
// message types since this service is hand-registered against
// google.golang.org/grpc rather than compiled from a .proto file — the
// well-known Struct/Empty types already satisfy proto.Message, so the
// wire format is real protobuf without needing a code generator run.
type AdminServiceServer interface {
	ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListLocks(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Capabilities(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

const adminServiceName = "netconfd.admin.AdminService"

// RegisterAdminServiceServer registers srv against s, in the same shape
// protoc-gen-go-grpc's RegisterXServer functions do.
func RegisterAdminServiceServer(s *grpc.Server, srv AdminServiceServer) {
	s.RegisterService(&adminServiceDesc, srv)
}

func adminServiceListSessionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).ListSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + adminServiceName + "/ListSessions"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServiceServer).ListSessions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func adminServiceListLocksHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).ListLocks(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + adminServiceName + "/ListLocks"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServiceServer).ListLocks(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func adminServiceCapabilitiesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServiceServer).Capabilities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + adminServiceName + "/Capabilities"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AdminServiceServer).Capabilities(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: adminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSessions", Handler: adminServiceListSessionsHandler},
		{MethodName: "ListLocks", Handler: adminServiceListLocksHandler},
		{MethodName: "Capabilities", Handler: adminServiceCapabilitiesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/admin/admin.proto",
}

// NewAdminServiceClient returns a thin client stub over cc, for
// cmd/ncctl and tests, mirroring the generated XClient pattern.
func NewAdminServiceClient(cc grpc.ClientConnInterface) AdminServiceClient {
	return &adminServiceClient{cc}
}

// AdminServiceClient is the client API for AdminService.
type AdminServiceClient interface {
	ListSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListLocks(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Capabilities(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type adminServiceClient struct {
	cc grpc.ClientConnInterface
}

func (c *adminServiceClient) ListSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+adminServiceName+"/ListSessions", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) ListLocks(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+adminServiceName+"/ListLocks", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminServiceClient) Capabilities(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+adminServiceName+"/Capabilities", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

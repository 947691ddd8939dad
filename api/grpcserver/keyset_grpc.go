package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The KeySet service uses the well-known wrapper messages, so its
// descriptor is written out here instead of generated from a .proto file.

const ServiceName = "rbset.v1.KeySet"

const (
	insertMethod   = "/" + ServiceName + "/Insert"
	removeMethod   = "/" + ServiceName + "/Remove"
	containsMethod = "/" + ServiceName + "/Contains"
	lenMethod      = "/" + ServiceName + "/Len"
)

// KeySetServer is the server API of rbset.v1.KeySet.
type KeySetServer interface {
	Insert(context.Context, *wrapperspb.Int64Value) (*wrapperspb.UInt64Value, error)
	Remove(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	Contains(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	Len(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
}

var KeySetServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KeySetServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Insert", Handler: insertHandler},
		{MethodName: "Remove", Handler: removeHandler},
		{MethodName: "Contains", Handler: containsHandler},
		{MethodName: "Len", Handler: lenHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rbset/v1/keyset.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv KeySetServer) {
	s.RegisterService(&KeySetServiceDesc, srv)
}

func insertHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeySetServer).Insert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: insertMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KeySetServer).Insert(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func removeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeySetServer).Remove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: removeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KeySetServer).Remove(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func containsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeySetServer).Contains(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: containsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KeySetServer).Contains(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func lenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeySetServer).Len(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: lenMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KeySetServer).Len(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// -------------------- Client --------------------

// Client calls rbset.v1.KeySet over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Insert returns the sequence number assigned to the insert.
func (c *Client) Insert(ctx context.Context, key int64, opts ...grpc.CallOption) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, insertMethod, wrapperspb.Int64(key), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Remove(ctx context.Context, key int64, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, removeMethod, wrapperspb.Int64(key), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Contains(ctx context.Context, key int64, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, containsMethod, wrapperspb.Int64(key), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Len(ctx context.Context, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, lenMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

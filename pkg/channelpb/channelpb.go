// Package channelpb defines the MethodChannel gRPC service.
//
// The service carries well-known protobuf types so no generated message code
// is needed:
//
//	service MethodChannel {
//	  rpc Invoke(google.protobuf.Struct) returns (google.protobuf.Value);
//	}
//
// The request struct has the fields "channel", "method" and "arguments".
package channelpb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "lightlevel.channel.v1.MethodChannel"
	InvokeFullMethod = "/" + ServiceName + "/Invoke"

	fieldChannel   = "channel"
	fieldMethod    = "method"
	fieldArguments = "arguments"
)

// MethodChannelServer is the server API for the MethodChannel service
type MethodChannelServer interface {
	Invoke(context.Context, *structpb.Struct) (*structpb.Value, error)
}

// UnimplementedMethodChannelServer can be embedded to have forward compatible implementations
type UnimplementedMethodChannelServer struct{}

func (UnimplementedMethodChannelServer) Invoke(context.Context, *structpb.Struct) (*structpb.Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Invoke not implemented")
}

// RegisterMethodChannelServer registers srv on s
func RegisterMethodChannelServer(s grpc.ServiceRegistrar, srv MethodChannelServer) {
	s.RegisterService(&MethodChannel_ServiceDesc, srv)
}

func _MethodChannel_Invoke_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MethodChannelServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: InvokeFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MethodChannelServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// MethodChannel_ServiceDesc is the grpc.ServiceDesc for the MethodChannel service
var MethodChannel_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MethodChannelServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Invoke",
			Handler:    _MethodChannel_Invoke_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lightlevel/channel/v1/channel.proto",
}

// MethodChannelClient is the client API for the MethodChannel service
type MethodChannelClient interface {
	Invoke(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Value, error)
}

type methodChannelClient struct {
	cc grpc.ClientConnInterface
}

// NewMethodChannelClient creates a client on cc
func NewMethodChannelClient(cc grpc.ClientConnInterface) MethodChannelClient {
	return &methodChannelClient{cc}
}

func (c *methodChannelClient) Invoke(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Value, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, InvokeFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// NewInvokeRequest builds the request envelope. args must be convertible
// by structpb.NewValue (nil, bool, numbers, string, []any, map[string]any).
func NewInvokeRequest(channel, method string, args any) (*structpb.Struct, error) {
	argValue, err := structpb.NewValue(args)
	if err != nil {
		return nil, fmt.Errorf("convert arguments: %w", err)
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldChannel:   structpb.NewStringValue(channel),
			fieldMethod:    structpb.NewStringValue(method),
			fieldArguments: argValue,
		},
	}, nil
}

// ParseInvokeRequest extracts the envelope fields. Arguments are returned
// as plain Go values (see structpb.Value.AsInterface).
func ParseInvokeRequest(req *structpb.Struct) (channel, method string, args any, err error) {
	fields := req.GetFields()

	channel = fields[fieldChannel].GetStringValue()
	if channel == "" {
		return "", "", nil, fmt.Errorf("request has no %q field", fieldChannel)
	}

	methodValue, ok := fields[fieldMethod]
	if !ok {
		return "", "", nil, fmt.Errorf("request has no %q field", fieldMethod)
	}
	if _, isString := methodValue.GetKind().(*structpb.Value_StringValue); !isString {
		return "", "", nil, fmt.Errorf("request field %q must be a string", fieldMethod)
	}
	method = methodValue.GetStringValue()

	if v, ok := fields[fieldArguments]; ok {
		args = v.AsInterface()
	}
	return channel, method, args, nil
}

package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gitvault.v1.ObjectService"

// ObjectServiceServer is implemented by pkg/service.
type ObjectServiceServer interface {
	Put(context.Context, *PutRequest) (*PutResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Exists(context.Context, *ExistsRequest) (*ExistsResponse, error)
	Resolve(context.Context, *ResolveRequest) (*ResolveResponse, error)
	Stat(context.Context, *StatRequest) (*StatResponse, error)
}

// ObjectServiceDesc 相当于 protoc 生成的 ServiceDesc
var ObjectServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ObjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: unaryHandler("Put", ObjectServiceServer.Put)},
		{MethodName: "Get", Handler: unaryHandler("Get", ObjectServiceServer.Get)},
		{MethodName: "Exists", Handler: unaryHandler("Exists", ObjectServiceServer.Exists)},
		{MethodName: "Resolve", Handler: unaryHandler("Resolve", ObjectServiceServer.Resolve)},
		{MethodName: "Stat", Handler: unaryHandler("Stat", ObjectServiceServer.Stat)},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterObjectServiceServer(s grpc.ServiceRegistrar, srv ObjectServiceServer) {
	s.RegisterService(&ObjectServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler 把类型化的方法适配成 grpc.MethodHandler，并接入拦截器链
func unaryHandler[Req, Resp any](
	method string,
	call func(ObjectServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ObjectServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ObjectServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ObjectServiceClient 是线上调用的薄封装，错误映射在 pkg/client 里做
type ObjectServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewObjectServiceClient(cc grpc.ClientConnInterface) *ObjectServiceClient {
	return &ObjectServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ObjectServiceClient) Put(ctx context.Context, in *PutRequest, opts ...grpc.CallOption) (*PutResponse, error) {
	return invoke[PutResponse](ctx, c.cc, "Put", in, opts)
}

func (c *ObjectServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return invoke[GetResponse](ctx, c.cc, "Get", in, opts)
}

func (c *ObjectServiceClient) Exists(ctx context.Context, in *ExistsRequest, opts ...grpc.CallOption) (*ExistsResponse, error) {
	return invoke[ExistsResponse](ctx, c.cc, "Exists", in, opts)
}

func (c *ObjectServiceClient) Resolve(ctx context.Context, in *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	return invoke[ResolveResponse](ctx, c.cc, "Resolve", in, opts)
}

func (c *ObjectServiceClient) Stat(ctx context.Context, in *StatRequest, opts ...grpc.CallOption) (*StatResponse, error) {
	return invoke[StatResponse](ctx, c.cc, "Stat", in, opts)
}

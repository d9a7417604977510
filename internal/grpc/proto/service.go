package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName - полное имя gRPC сервиса
const ServiceName = "linkward.v1.LinkService"

// Полные имена методов
const (
	MethodCreateLink       = "/" + ServiceName + "/CreateLink"
	MethodResolveLink      = "/" + ServiceName + "/ResolveLink"
	MethodCheckDestination = "/" + ServiceName + "/CheckDestination"
	MethodFlagPhishing     = "/" + ServiceName + "/FlagPhishing"
	MethodPing             = "/" + ServiceName + "/Ping"
)

// LinkServiceServer представляет интерфейс gRPC сервиса
type LinkServiceServer interface {
	CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error)
	ResolveLink(ctx context.Context, req *ResolveLinkRequest) (*ResolveLinkResponse, error)
	CheckDestination(ctx context.Context, req *CheckDestinationRequest) (*CheckDestinationResponse, error)
	FlagPhishing(ctx context.Context, req *FlagPhishingRequest) (*FlagPhishingResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
}

// UnimplementedLinkServiceServer отвечает codes.Unimplemented на все методы
type UnimplementedLinkServiceServer struct{}

// CreateLink не реализован
func (UnimplementedLinkServiceServer) CreateLink(context.Context, *CreateLinkRequest) (*CreateLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateLink not implemented")
}

// ResolveLink не реализован
func (UnimplementedLinkServiceServer) ResolveLink(context.Context, *ResolveLinkRequest) (*ResolveLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolveLink not implemented")
}

// CheckDestination не реализован
func (UnimplementedLinkServiceServer) CheckDestination(context.Context, *CheckDestinationRequest) (*CheckDestinationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CheckDestination not implemented")
}

// FlagPhishing не реализован
func (UnimplementedLinkServiceServer) FlagPhishing(context.Context, *FlagPhishingRequest) (*FlagPhishingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FlagPhishing not implemented")
}

// Ping не реализован
func (UnimplementedLinkServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

// unaryHandler строит обработчик метода для ServiceDesc
func unaryHandler[Req any, Resp any](method string, call func(LinkServiceServer, context.Context, *Req) (*Resp, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LinkServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LinkServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LinkServiceDesc описывает сервис для grpc.Server
var LinkServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateLink", Handler: unaryHandler(MethodCreateLink, LinkServiceServer.CreateLink)},
		{MethodName: "ResolveLink", Handler: unaryHandler(MethodResolveLink, LinkServiceServer.ResolveLink)},
		{MethodName: "CheckDestination", Handler: unaryHandler(MethodCheckDestination, LinkServiceServer.CheckDestination)},
		{MethodName: "FlagPhishing", Handler: unaryHandler(MethodFlagPhishing, LinkServiceServer.FlagPhishing)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, LinkServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "linkward/v1/link_service",
}

// RegisterLinkServiceServer регистрирует реализацию сервиса в gRPC сервере
func RegisterLinkServiceServer(s grpc.ServiceRegistrar, srv LinkServiceServer) {
	s.RegisterService(&LinkServiceDesc, srv)
}

// LinkServiceClient - клиент сервиса. Вызовы кодируются в JSON.
type LinkServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLinkServiceClient создаёт клиент поверх соединения
func NewLinkServiceClient(cc grpc.ClientConnInterface) *LinkServiceClient {
	return &LinkServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLink вызывает одноимённый метод сервиса
func (c *LinkServiceClient) CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*CreateLinkResponse, error) {
	return invoke[CreateLinkResponse](ctx, c.cc, MethodCreateLink, in, opts)
}

// ResolveLink вызывает одноимённый метод сервиса
func (c *LinkServiceClient) ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*ResolveLinkResponse, error) {
	return invoke[ResolveLinkResponse](ctx, c.cc, MethodResolveLink, in, opts)
}

// CheckDestination вызывает одноимённый метод сервиса
func (c *LinkServiceClient) CheckDestination(ctx context.Context, in *CheckDestinationRequest, opts ...grpc.CallOption) (*CheckDestinationResponse, error) {
	return invoke[CheckDestinationResponse](ctx, c.cc, MethodCheckDestination, in, opts)
}

// FlagPhishing вызывает одноимённый метод сервиса
func (c *LinkServiceClient) FlagPhishing(ctx context.Context, in *FlagPhishingRequest, opts ...grpc.CallOption) (*FlagPhishingResponse, error) {
	return invoke[FlagPhishingResponse](ctx, c.cc, MethodFlagPhishing, in, opts)
}

// Ping вызывает одноимённый метод сервиса
func (c *LinkServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

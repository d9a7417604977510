// Package grpc содержит реализацию gRPC сервера для сервиса коротких ссылок
package grpc

import (
	"context"
	"net"

	"github.com/tempizhere/linkward/internal/grpc/proto"
	"github.com/tempizhere/linkward/internal/repository"
	"github.com/tempizhere/linkward/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// codeByKind сопоставляет вид ошибки сервиса с кодом gRPC
var codeByKind = map[service.ErrorKind]codes.Code{
	service.InfoLinkNotFound:          codes.NotFound,
	service.InfoPhishingLinkReached:   codes.FailedPrecondition,
	service.InfoSelflinkForbidden:     codes.PermissionDenied,
	service.NoticeInvalidName:         codes.InvalidArgument,
	service.NoticeInvalidDestination:  codes.InvalidArgument,
	service.NoticeUnsupportedProtocol: codes.InvalidArgument,
	service.NoticeLinkAlreadyExists:   codes.AlreadyExists,
	service.NoticeInvalidKey:          codes.Unauthenticated,
	service.NoticeNotManagingPhishing: codes.PermissionDenied,
	service.NoticeNotDeletingPhishing: codes.PermissionDenied,
	service.WarnBadServerAdminKey:     codes.Unauthenticated,
	service.WarnBlockedName:           codes.PermissionDenied,
	service.WarnBlockedLinkShortener:  codes.PermissionDenied,
	service.WarnBlockedLinkFreehost:   codes.PermissionDenied,
	service.WarnBlockedLinkSpam:       codes.PermissionDenied,
	service.CritDbFail:                codes.Unavailable,
}

// Server реализует gRPC сервер для сервиса коротких ссылок
type Server struct {
	proto.UnimplementedLinkServiceServer
	svc    *service.Service
	db     repository.Database
	logger *zap.Logger
}

// NewServer создаёт новый gRPC сервер. db может быть nil.
func NewServer(svc *service.Service, db repository.Database, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		db:     db,
		logger: logger,
	}
}

// NewGRPCServer создаёт grpc.Server с интерцепторами и зарегистрированным сервисом
func NewGRPCServer(srv *Server, trustedSubnet string, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		TrustedSubnetInterceptor(trustedSubnet, logger),
	))
	proto.RegisterLinkServiceServer(s, srv)
	return s
}

// CreateLink обрабатывает создание короткой ссылки
func (s *Server) CreateLink(ctx context.Context, req *proto.CreateLinkRequest) (*proto.CreateLinkResponse, error) {
	if req.Destination == "" {
		return nil, status.Error(codes.InvalidArgument, "destination is required")
	}
	info, err := s.svc.CreateLink(ctx, req.ShortName, req.Destination)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.CreateLinkResponse{
		ShortURL:    info.ShortURL,
		Destination: info.Destination,
		AdminLink:   info.AdminLink,
		DeleteLink:  info.DeleteLink,
	}, nil
}

// ResolveLink обрабатывает переход по ссылке. Посетитель определяется по адресу соединения.
func (s *Server) ResolveLink(ctx context.Context, req *proto.ResolveLinkRequest) (*proto.ResolveLinkResponse, error) {
	if req.ShortName == "" {
		return nil, status.Error(codes.InvalidArgument, "short name is required")
	}
	link, err := s.svc.Resolve(ctx, req.ShortName, peerIP(ctx))
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.ResolveLinkResponse{Destination: link.Destination}, nil
}

// CheckDestination проверяет имя и адрес по политике без создания ссылки
func (s *Server) CheckDestination(_ context.Context, req *proto.CheckDestinationRequest) (*proto.CheckDestinationResponse, error) {
	if err := s.svc.CheckDestination(req.ShortName, req.Destination); err != nil {
		kind := service.Kind(err)
		if kind.Level() == "crit" {
			return nil, s.mapError(err)
		}
		return &proto.CheckDestinationResponse{
			Allowed: false,
			Kind:    string(kind),
			Reason:  err.Error(),
		}, nil
	}
	return &proto.CheckDestinationResponse{Allowed: true}, nil
}

// FlagPhishing помечает ссылку как фишинговую
func (s *Server) FlagPhishing(ctx context.Context, req *proto.FlagPhishingRequest) (*proto.FlagPhishingResponse, error) {
	if err := s.svc.FlagPhishing(ctx, req.ShortName, req.Password); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.FlagPhishingResponse{Flagged: true}, nil
}

// Ping проверяет состояние сервиса и базы данных
func (s *Server) Ping(ctx context.Context, _ *proto.PingRequest) (*proto.PingResponse, error) {
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("Database ping failed", zap.Error(err))
			return nil, status.Error(codes.Unavailable, "database connection failed")
		}
	}
	return &proto.PingResponse{Status: "OK"}, nil
}

// mapError преобразует ошибки бизнес-логики в gRPC статусы
func (s *Server) mapError(err error) error {
	if err == nil {
		return nil
	}
	kind := service.Kind(err)
	code, ok := codeByKind[kind]
	if !ok {
		s.logger.Error("Unexpected error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
	if kind.Level() == "crit" {
		s.logger.Error("Storage failure", zap.Error(err))
		return status.Error(code, string(kind))
	}
	return status.Error(code, err.Error())
}

// peerIP возвращает IP-адрес клиента из контекста вызова
func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	return p.Addr.String()
}

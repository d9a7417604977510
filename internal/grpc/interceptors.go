package grpc

import (
	"context"
	"net"
	"time"

	"github.com/tempizhere/linkward/internal/grpc/proto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// trustedMethods - методы, доступные только из доверенной подсети
var trustedMethods = map[string]bool{
	proto.MethodFlagPhishing: true,
}

// TrustedSubnetInterceptor создаёт интерцептор для проверки доверенной подсети
func TrustedSubnetInterceptor(trustedSubnet string, logger *zap.Logger) grpc.UnaryServerInterceptor {
	var subnet *net.IPNet
	if trustedSubnet != "" {
		var err error
		if _, subnet, err = net.ParseCIDR(trustedSubnet); err != nil {
			logger.Error("Invalid trusted subnet", zap.String("subnet", trustedSubnet), zap.Error(err))
			subnet = nil
		}
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !trustedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		if subnet == nil {
			return nil, status.Error(codes.PermissionDenied, "trusted subnet not configured")
		}

		clientIP := peerIP(ctx)
		ip := net.ParseIP(clientIP)
		if ip == nil || !subnet.Contains(ip) {
			logger.Warn("Access denied from untrusted IP", zap.String("ip", clientIP), zap.String("method", info.FullMethod))
			return nil, status.Error(codes.PermissionDenied, "access denied")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor создаёт интерцептор для логирования gRPC запросов
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		logger.Info("gRPC request",
			zap.String("method", info.FullMethod),
			zap.String("client_ip", peerIP(ctx)),
			zap.String("status_code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)

		return resp, err
	}
}

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type clientIPKey struct{}

// RealIPMiddleware определяет адрес клиента для журналов и счётчика посетителей.
// Заголовки X-Real-IP и X-Forwarded-For учитываются, только если соединение
// пришло из доверенной подсети (от своего обратного прокси). Иначе
// используется адрес соединения.
func RealIPMiddleware(trustedSubnet string, logger *zap.Logger) func(http.Handler) http.Handler {
	network := parseSubnet(trustedSubnet, logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteHost(r)
			if network != nil && containsIP(network, ip) {
				if forwarded := forwardedIP(r); forwarded != "" {
					ip = forwarded
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
		})
	}
}

// ClientIP возвращает адрес клиента, определённый RealIPMiddleware.
// Вне этого middleware возвращается адрес соединения.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return remoteHost(r)
}

// forwardedIP возвращает X-Real-IP, затем первый адрес X-Forwarded-For
func forwardedIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	return strings.TrimSpace(first)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func containsIP(network *net.IPNet, raw string) bool {
	ip := net.ParseIP(raw)
	return ip != nil && network.Contains(ip)
}

// parseSubnet разбирает CIDR; пустая или некорректная подсеть даёт nil
func parseSubnet(trustedSubnet string, logger *zap.Logger) *net.IPNet {
	if trustedSubnet == "" {
		return nil
	}
	_, network, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		logger.Error("Invalid trusted_subnet CIDR",
			zap.String("trusted_subnet", trustedSubnet),
			zap.Error(err))
		return nil
	}
	return network
}

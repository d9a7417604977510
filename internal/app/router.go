package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tempizhere/linkward/internal/middleware"
	"go.uber.org/zap"
)

// NewRouter собирает маршруты HTTP API.
// /metrics доступен только из доверенной подсети.
func NewRouter(a *App, trustedSubnet string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RealIPMiddleware(trustedSubnet, logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.GzipMiddleware)

	r.NotFound(a.HandleNotFound)

	r.Get("/", a.HandleIndex)
	r.With(middleware.SessionMiddleware(a.sessions, a.writeError)).Post("/", a.HandleCreate)
	r.Get("/ping", a.HandlePing)
	r.With(middleware.TrustedSubnetMiddleware(trustedSubnet, logger)).Handle("/metrics", promhttp.Handler())

	r.Get("/{name}", a.HandleRedirect)
	r.Get("/{name}/admin/{key}", a.HandleAdmin)
	r.Get("/{name}/delete/{key}", a.HandleDelete)
	r.Get("/{name}/phishing/{password}", a.HandleFlagPhishing)
	r.Get("/{name}/{key}", a.HandleAdminFallback)

	return r
}

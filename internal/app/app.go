// Package app содержит HTTP-обработчики сервиса коротких ссылок
package app

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/linkward/internal/middleware"
	"github.com/tempizhere/linkward/internal/models"
	"github.com/tempizhere/linkward/internal/repository"
	"github.com/tempizhere/linkward/internal/service"
	"go.uber.org/zap"
)

// maxBodySize ограничивает тело запроса на создание ссылки
const maxBodySize = 64 << 10

// statusByKind сопоставляет вид ошибки с HTTP-статусом
var statusByKind = map[service.ErrorKind]int{
	service.InfoLinkNotFound:          http.StatusNotFound,
	service.InfoPhishingLinkReached:   http.StatusGone,
	service.InfoSelflinkForbidden:     http.StatusForbidden,
	service.NoticeInvalidName:         http.StatusBadRequest,
	service.NoticeInvalidDestination:  http.StatusBadRequest,
	service.NoticeUnsupportedProtocol: http.StatusBadRequest,
	service.NoticeSessionExpired:      http.StatusBadRequest,
	service.NoticeCookieParseFail:     http.StatusBadRequest,
	service.NoticeLinkAlreadyExists:   http.StatusForbidden,
	service.NoticeInvalidKey:          http.StatusUnauthorized,
	service.NoticeNotManagingPhishing: http.StatusUnauthorized,
	service.NoticeNotDeletingPhishing: http.StatusUnauthorized,
	service.WarnBadServerAdminKey:     http.StatusUnauthorized,
	service.WarnBlockedName:           http.StatusForbidden,
	service.WarnBlockedLinkShortener:  http.StatusForbidden,
	service.WarnBlockedLinkFreehost:   http.StatusForbidden,
	service.WarnBlockedLinkSpam:       http.StatusForbidden,
	service.CritDbFail:                http.StatusInternalServerError,
	service.CritUnknown:               http.StatusInternalServerError,
}

// StatusCode возвращает HTTP-статус для ошибки сервиса
func StatusCode(err error) int {
	if status, ok := statusByKind[service.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// App содержит хендлеры и зависимости
type App struct {
	svc      *service.Service
	db       repository.Database
	sessions *middleware.SessionManager
	logger   *zap.Logger
}

// NewApp создаёт новое приложение. db может быть nil, если PostgreSQL не используется.
func NewApp(svc *service.Service, db repository.Database, sessions *middleware.SessionManager, logger *zap.Logger) *App {
	return &App{svc: svc, db: db, sessions: sessions, logger: logger}
}

// HandleIndex обрабатывает GET-запросы на "/" и выдаёт куку сессии формы
func (a *App) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Issue(w); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "POST / with short_name and destination to create a link",
	})
}

// HandleCreate обрабатывает POST-запросы на "/".
// Принимает JSON или форму; ответ содержит ссылки управления.
func (a *App) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	req, err := decodeCreateRequest(r)
	if err != nil {
		a.writeJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	info, err := a.svc.CreateLink(r.Context(), req.ShortName, req.Destination)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", info.AdminLink+"?created=true")
	a.writeJSONResponse(w, http.StatusCreated, info)
}

func decodeCreateRequest(r *http.Request) (models.CreateLinkRequest, error) {
	var req models.CreateLinkRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid JSON")
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, errors.New("invalid form")
	}
	req.ShortName = formValue(r, "short_name", "url_from")
	req.Destination = formValue(r, "destination", "url_to")
	return req, nil
}

// formValue возвращает первое непустое значение из перечисленных полей формы
func formValue(r *http.Request, keys ...string) string {
	for _, key := range keys {
		if v := r.PostForm.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// HandleRedirect обрабатывает GET-запросы на "/{name}"
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	link, err := a.svc.Resolve(r.Context(), name, middleware.ClientIP(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, link.Destination, http.StatusSeeOther)
}

// HandleAdmin обрабатывает GET-запросы на "/{name}/admin/{key}"
func (a *App) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	info, err := a.svc.Admin(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "key"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, info)
}

// HandleDelete обрабатывает GET-запросы на "/{name}/delete/{key}"
func (a *App) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Delete(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "key")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "link deleted"})
}

// HandleFlagPhishing обрабатывает GET-запросы на "/{name}/phishing/{password}"
func (a *App) HandleFlagPhishing(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.FlagPhishing(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "password")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.MessageResponse{Message: "link flagged as phishing"})
}

// HandleAdminFallback перенаправляет старые адреса "/{name}/{key}" на страницу управления
func (a *App) HandleAdminFallback(w http.ResponseWriter, r *http.Request) {
	target := a.svc.AdminURL(chi.URLParam(r, "name"), chi.URLParam(r, "key"))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if a.db != nil {
		if err := a.db.PingContext(r.Context()); err != nil {
			a.logger.Error("Database ping failed", zap.Error(err))
			http.Error(w, "Database connection failed", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// HandleNotFound отвечает JSON-ошибкой на неизвестные адреса
func (a *App) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	a.writeError(w, r, service.ErrLinkNotFound)
}

// writeError пишет ошибку сервиса в JSON и журнал
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.Kind(err)
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("uri", r.RequestURI),
		zap.String("client_ip", middleware.ClientIP(r)),
		zap.Error(err),
	}
	switch kind.Level() {
	case "crit":
		a.logger.Error("Request failed", fields...)
	case "warn":
		a.logger.Warn("Request rejected", fields...)
	default:
		a.logger.Info("Request rejected", fields...)
	}

	message := err.Error()
	if kind.Level() == "crit" {
		message = "internal server error"
	}
	a.writeJSONResponse(w, StatusCode(err), models.ErrorResponse{
		Error:   string(kind),
		Message: message,
	})
}

// writeJSONResponse пишет JSON-ответ с проверкой ошибок
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		a.logger.Debug("Failed to write response", zap.Error(err))
	}
}

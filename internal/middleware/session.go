package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/tempizhere/linkward/internal/service"
	"go.uber.org/zap"
)

// SessionCookieName - имя куки с токеном сессии формы
const SessionCookieName = "linkward_session"

// SessionManager выдаёт и проверяет подписанные токены сессии.
// Токен доказывает, что форма создания ссылки была получена с этого сервера
// не раньше чем ttl назад.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionManager создаёт менеджер сессий
func NewSessionManager(secret string, ttl time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Issue подписывает новый токен и устанавливает куку
func (m *SessionManager) Issue(w http.ResponseWriter) error {
	issued := m.now()
	claims := jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(issued),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  issued.Add(m.ttl),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Validate проверяет куку сессии запроса.
// Возвращает service.ErrSessionMissing или service.ErrSessionExpired.
func (m *SessionManager) Validate(r *http.Request) error {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return service.ErrSessionMissing
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.IssuedAt == nil {
		m.logger.Warn("Invalid session token", zap.Error(err))
		return service.ErrSessionMissing
	}

	if claims.IssuedAt.Time.Before(m.now().Add(-m.ttl)) {
		return service.ErrSessionExpired
	}
	return nil
}

// SessionMiddleware пропускает запрос дальше только с действующей сессией.
// Отказ передаётся в onError.
func SessionMiddleware(m *SessionManager, onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := m.Validate(r); err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

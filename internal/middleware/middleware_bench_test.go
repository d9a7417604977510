package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// BenchmarkLoggingMiddleware измеряет производительность middleware логирования
func BenchmarkLoggingMiddleware(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	loggingMiddleware := LoggingMiddleware(zap.NewNop())(handler)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			loggingMiddleware.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}

// BenchmarkGzipMiddleware измеряет производительность middleware сжатия
func BenchmarkGzipMiddleware(b *testing.B) {
	body := []byte(strings.Repeat(`{"short_url":"http://localhost:8080/abc"}`, 50))
	handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}

// BenchmarkSessionValidate измеряет производительность проверки сессии
func BenchmarkSessionValidate(b *testing.B) {
	m := NewSessionManager("bench-secret", 30*time.Minute, zap.NewNop())
	w := httptest.NewRecorder()
	if err := m.Issue(w); err != nil {
		b.Fatal(err)
	}
	cookie := w.Result().Cookies()[0]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.AddCookie(cookie)
		if err := m.Validate(req); err != nil {
			b.Fatal(err)
		}
	}
}

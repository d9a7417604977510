package app

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/linkward/internal/cache"
	"github.com/tempizhere/linkward/internal/middleware"
	"github.com/tempizhere/linkward/internal/models"
	"github.com/tempizhere/linkward/internal/policy"
	"github.com/tempizhere/linkward/internal/repository"
	"github.com/tempizhere/linkward/internal/service"
	"github.com/tempizhere/linkward/internal/watcher"
	"go.uber.org/zap"
)

const (
	testBaseURL  = "http://localhost:8080"
	testPassword = "phishing-password-for-tests"
)

const testLists = `
[[urls.blocklist]]
pattern = '(^|\.)bit\.ly$'
category = "shortener"
`

type testServer struct {
	handler http.Handler
	repo    *repository.MemoryRepository
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, db repository.Database) *testServer {
	t.Helper()
	list, err := policy.Parse([]byte(testLists))
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, policy.NewEngine(list),
		cache.NewLinkCache(100, logger), watcher.NewWatcher(25, 12*time.Hour, logger),
		service.Options{BaseURL: testBaseURL, PhishingPassword: testPassword}, logger)
	sessions := middleware.NewSessionManager("test-secret", 30*time.Minute, logger)
	a := NewApp(svc, db, sessions, logger)

	ts := &testServer{handler: NewRouter(a, "192.168.1.0/24", logger), repo: repo}

	// Получаем куку сессии, как это делает браузер при открытии формы
	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	ts.cookie = cookies[0]
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) create(t *testing.T, name, destination string) models.LinkInfo {
	t.Helper()
	body, err := json.Marshal(models.CreateLinkRequest{ShortName: name, Destination: destination})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(ts.cookie)

	w := ts.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var info models.LinkInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	return info
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func keyFrom(info models.LinkInfo) string {
	return info.AdminLink[strings.LastIndex(info.AdminLink, "/")+1:]
}

func TestHandleCreate_JSON(t *testing.T) {
	ts := newTestServer(t, nil)

	info := ts.create(t, "docs", "https://example.com/docs")
	assert.Equal(t, testBaseURL+"/docs", info.ShortURL)
	assert.Equal(t, "https://example.com/docs", info.Destination)
	assert.Empty(t, info.PhishLink)

	_, err := ts.repo.Get(context.Background(), "docs")
	assert.NoError(t, err)
}

func TestHandleCreate_Form(t *testing.T) {
	ts := newTestServer(t, nil)

	form := url.Values{"url_from": {"legacy"}, "url_to": {"https://example.com"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(ts.cookie)

	w := ts.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), testBaseURL+"/legacy/admin/"))
	assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "?created=true"))
}

func TestHandleCreate_GzipBody(t *testing.T) {
	ts := newTestServer(t, nil)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`{"short_name":"zipped","destination":"https://example.com"}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.AddCookie(ts.cookie)

	w := ts.do(t, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleCreate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		noCookie   bool
		wantStatus int
		wantKind   string
	}{
		{name: "no session", body: `{"destination":"https://example.com"}`, noCookie: true, wantStatus: http.StatusBadRequest, wantKind: string(service.NoticeCookieParseFail)},
		{name: "invalid JSON", body: `{`, wantStatus: http.StatusBadRequest, wantKind: "invalid_request"},
		{name: "invalid name", body: `{"short_name":"a.b","destination":"https://example.com"}`, wantStatus: http.StatusBadRequest, wantKind: string(service.NoticeInvalidName)},
		{name: "unsupported protocol", body: `{"destination":"javascript://x/alert(1)"}`, wantStatus: http.StatusBadRequest, wantKind: string(service.NoticeUnsupportedProtocol)},
		{name: "self link", body: `{"destination":"http://localhost:8080/docs"}`, wantStatus: http.StatusForbidden, wantKind: string(service.InfoSelflinkForbidden)},
		{name: "blocked shortener", body: `{"destination":"https://bit.ly/abc"}`, wantStatus: http.StatusForbidden, wantKind: string(service.WarnBlockedLinkShortener)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noCookie {
				req.AddCookie(ts.cookie)
			}

			w := ts.do(t, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, w).Error)
		})
	}
}

func TestHandleCreate_Duplicate(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.create(t, "docs", "https://example.com")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"short_name":"docs","destination":"https://example.org"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(ts.cookie)

	w := ts.do(t, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(service.NoticeLinkAlreadyExists), decodeError(t, w).Error)
}

func TestHandleRedirect(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.create(t, "docs", "https://example.com/docs")

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://example.com/docs", w.Header().Get("Location"))

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(service.InfoLinkNotFound), decodeError(t, w).Error)
}

func TestPhishingFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create(t, "login", "https://example.com/login")
	key := keyFrom(info)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/login/phishing/wrong-password", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(service.WarnBadServerAdminKey), decodeError(t, w).Error)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/missing/phishing/"+testPassword, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/login/phishing/"+testPassword, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusGone, w.Code)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/login/admin/"+key, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(service.NoticeNotManagingPhishing), decodeError(t, w).Error)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/login/delete/"+key, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(service.NoticeNotDeletingPhishing), decodeError(t, w).Error)
}

func TestHandleAdminAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	info := ts.create(t, "docs", "https://example.com/docs")
	key := keyFrom(info)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/docs/admin/"+key, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var admin models.LinkInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &admin))
	assert.Equal(t, info.DeleteLink, admin.DeleteLink)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/docs/admin/wrong", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Старый формат адреса управления
	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/docs/"+key, nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, testBaseURL+"/docs/admin/"+key, w.Header().Get("Location"))

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/docs/delete/"+key, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePing(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.do(t, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("database ok", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		db := repository.NewMockDatabase(ctrl)
		db.EXPECT().PingContext(gomock.Any()).Return(nil)

		ts := newTestServer(t, db)
		w := ts.do(t, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		db := repository.NewMockDatabase(ctrl)
		db.EXPECT().PingContext(gomock.Any()).Return(errors.New("connection refused"))

		ts := newTestServer(t, db)
		w := ts.do(t, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestMetricsTrustedSubnet(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Real-IP", "192.168.1.10")
	w = ts.do(t, req)
	assert.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNotFoundRoute(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/a/b/c/d", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(service.InfoLinkNotFound), decodeError(t, w).Error)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusGone, StatusCode(service.ErrPhishingLink))
	assert.Equal(t, http.StatusForbidden, StatusCode(&policy.Violation{Category: policy.Spam}))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusBadRequest, StatusCode(service.ErrSessionExpired))
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS links").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, InitSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

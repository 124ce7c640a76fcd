package routes

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"propadmin/internal/apperr"
	"propadmin/internal/handlers"
	"propadmin/internal/services"
	"propadmin/internal/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type stubResetter struct{}

func (stubResetter) RequestReset(context.Context, string) (time.Time, error) {
	return time.Time{}, apperr.ErrNotFound
}
func (stubResetter) ResetPassword(context.Context, string, string) error { return nil }

type stubUploader struct{ calls int }

func (s *stubUploader) UploadBatch(_ context.Context, id int64, files []services.UploadFile) (*services.UploadResult, error) {
	s.calls++
	return &services.UploadResult{Locators: []string{}}, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func newRouter(t *testing.T, opts Options) (*mux.Router, *stubUploader) {
	t.Helper()
	up := &stubUploader{}
	r := mux.NewRouter()
	InitRoutes(r,
		handlers.NewPasswordHandler(stubResetter{}),
		handlers.NewImageHandler(up, 0),
		handlers.NewHealthHandler(stubPinger{}),
		opts,
	)
	return r, up
}

func uploadRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("images", "a.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRoutes_Public(t *testing.T) {
	r, up := newRouter(t, Options{RequestTimeout: time.Second})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/forgot-password", strings.NewReader(`{"username":"x"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "/admin/upload-images/42"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, up.calls)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/admin/upload-images/42", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, 1, up.calls)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "/admin/upload-images/abc"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_UploadGuard(t *testing.T) {
	r, up := newRouter(t, Options{JWTSecret: "s3cret"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "/admin/upload-images/42"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, up.calls)

	tok, err := utils.GenerateToken("s3cret", "admin@x.com", "admin", time.Hour)
	require.NoError(t, err)
	req := uploadRequest(t, "/admin/upload-images/42")
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// сброс пароля остаётся публичным
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reset-password", strings.NewReader(`{"token":"t","new_password":"p"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Static(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "42_a.jpg"), []byte("img"), 0o644))
	r, _ := newRouter(t, Options{StaticDir: dir, StaticURLPrefix: "/static/images"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/images/42_a.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "img", rec.Body.String())
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"propadmin/internal/reqctx"
	"propadmin/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T, check func(r *http.Request)) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(okHandler(t, func(r *http.Request) {
		seen, _ = reqctx.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", seen)
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/upload-images/1", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestJWTAuthAndRole(t *testing.T) {
	const secret = "s3cret"
	var admin string
	h := JWTAuth(secret)(OnlyRole("admin")(okHandler(t, func(r *http.Request) {
		admin, _ = reqctx.GetAdmin(r.Context())
	})))

	do := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/upload-images/1", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, do("").Code)
	require.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)

	wrongKey, err := utils.GenerateToken("other", "admin@x.com", "admin", time.Hour)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+wrongKey).Code)

	expired, err := utils.GenerateToken(secret, "admin@x.com", "admin", -time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+expired).Code)

	viewer, err := utils.GenerateToken(secret, "v@x.com", "viewer", time.Hour)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, do("Bearer "+viewer).Code)

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "a", "role": "admin"})
	unsigned, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+unsigned).Code)

	good, err := utils.GenerateToken(secret, "admin@x.com", "admin", time.Hour)
	require.NoError(t, err)
	rec := do("Bearer " + good)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "admin@x.com", admin)
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var has bool
	h := Timeout(time.Second)(okHandler(t, func(r *http.Request) {
		deadline, has = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, has)
	require.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	h = Timeout(0)(okHandler(t, func(r *http.Request) {
		_, has = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	require.False(t, has)
}

package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusNotFound, "User not found")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"message":"User not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, http.StatusInternalServerError, "boom")
	require.JSONEq(t, `{"error":"boom"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]any{"message": "ok", "images": []string{"a"}})
	require.JSONEq(t, `{"message":"ok","images":["a"]}`, rec.Body.String())
}

func TestBuildPasswordResetHTML(t *testing.T) {
	out := BuildPasswordResetHTML("https://app/admin/reset-password?token=a&b", time.Hour)
	require.True(t, strings.Contains(out, `href="https://app/admin/reset-password?token=a&amp;b"`))
	require.Contains(t, out, "valid for 1 hour")

	require.Contains(t, BuildPasswordResetHTML("x", 30*time.Minute), "valid for 30 minutes")
	require.Contains(t, BuildPasswordResetHTML("x", 2*time.Hour), "valid for 2 hours")
}

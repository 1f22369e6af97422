package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "fatal"} {
		assert.NoError(t, Init(level), level)
	}

	assert.Error(t, Init("loud"))
}

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	require.NoError(t, Init("debug"))

	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	t.Run("generates a request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "short and stout", rec.Body.String())
		assert.Regexp(t, `^\w+-\w+-\w+-\w+-\w+$`, rec.Header().Get(RequestIDHeader))
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

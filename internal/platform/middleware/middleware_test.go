package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digibank/internal/platform/logger"
)

func TestLatencyUsesRoutePattern(t *testing.T) {
	var route, status string
	r := chi.NewRouter()
	r.Use(Latency(func(rt, st string, _ float64) {
		route, status = rt, st
	}))
	r.Patch("/payees/{id}/disable", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/payees/9/disable", nil))

	assert.Equal(t, "PATCH /payees/{id}/disable", route)
	assert.Equal(t, "202", status)
}

func TestLoggerWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(logger.New("info", "json", &buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts", nil))

	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":503`)
}

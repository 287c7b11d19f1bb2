package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(Logger)

	var got *slog.Logger
	e.GET("/", func(c echo.Context) error {
		got = FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotNil(t, got)
	assert.NotSame(t, slog.Default(), got)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestFromContextDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestLoggerLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(Logger)
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/missing", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), entry["request_id"])
}

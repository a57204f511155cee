package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "ClmmLens/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{}

func (stubHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/boom", func(c echo.Context) error {
		return AppErrorResponse(c, DataUnavailableError("no spot"))
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("kaboom")
	})
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, s *Server, target string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, rec.Code, env.Status)
	return rec.Code, env
}

func errorList(t *testing.T, env envelope) []*AppError {
	t.Helper()
	var errs []*AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	return errs
}

func TestServerErrorsShareEnvelope(t *testing.T) {
	s := NewServer(stubHandler{}, applogger.Nop(), WithMetrics(false, ""))

	code, env := serve(t, s, "/boom")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, CodeDataUnavailable, errorList(t, env)[0].Code)

	code, env = serve(t, s, "/panic")
	require.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, CodeInternal, errorList(t, env)[0].Code)

	code, env = serve(t, s, "/nowhere")
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ERR_NOT_FOUND", errorList(t, env)[0].Code)
}

func TestHealthzReportsChecks(t *testing.T) {
	s := NewServer(nil, applogger.Nop(), WithMetrics(false, ""),
		WithHealthCheck("cache", func(context.Context) error { return nil }),
		WithHealthCheck("stream", func(context.Context) error { return errors.New("disconnected") }),
	)

	code, env := serve(t, s, "/healthz")
	require.Equal(t, http.StatusOK, code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"cache": "ok", "stream": "disconnected"}, body.Checks)
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(nil, applogger.Nop(), WithHost("127.0.0.1"), WithPort(0), WithMetrics(false, ""))
	require.NoError(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
}

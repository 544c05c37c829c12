package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/designorch/internal/logging"
	"github.com/fyrsmithlabs/designorch/internal/orchestrator"
	"github.com/fyrsmithlabs/designorch/internal/provider"
	"github.com/fyrsmithlabs/designorch/internal/task"
)

var allCapabilities = []string{"documentation", "code-generation", "reasoning", "optimization"}

func newTestServer(t *testing.T, cfg *Config) (*Server, *logging.TestLogger) {
	t.Helper()
	orch, err := orchestrator.New(orchestrator.WithProviders(
		provider.Descriptor{Name: "claude", Model: "claude-3", Capabilities: allCapabilities, Available: true},
		provider.Descriptor{Name: "gemini", Model: "gemini-pro", Capabilities: allCapabilities, Available: false},
	))
	require.NoError(t, err)

	logger := logging.NewTestLogger()
	server, err := NewServer(orch, logger.Logger, cfg)
	require.NoError(t, err)
	return server, logger
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 9090, server.config.Port)
		assert.Equal(t, "4M", server.config.BodyLimit)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		orch, err := orchestrator.New()
		require.NoError(t, err)
		_, err = NewServer(orch, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when orchestrator is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orchestrator cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t, &Config{Version: "1.2.3"})

	rec := do(t, server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, 2, resp.Providers)
}

func TestHandleProviders(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := do(t, server, http.MethodGet, "/api/v1/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProvidersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 2)
	assert.Equal(t, provider.LabelAvailable, resp.Providers["claude"].Label)
	assert.Equal(t, provider.LabelUnavailable, resp.Providers["gemini"].Label)
}

func TestHandleProbe(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := do(t, server, http.MethodPost, "/api/v1/providers/probe", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProbeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]bool{"claude": true, "gemini": false}, resp.Results)
}

func TestHandleOrchestrate(t *testing.T) {
	t.Run("runs requested categories", func(t *testing.T) {
		server, _ := newTestServer(t, nil)

		body := `{
			"design": {"name": "Checkout", "pages": ["cart"]},
			"requirements": {"documentation": true, "code": true},
			"options": {"target_framework": "vue"}
		}`
		rec := do(t, server, http.MethodPost, "/api/v1/orchestrate", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result orchestrator.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.RunID)
		require.NotNil(t, result.Results.Documentation)
		require.NotNil(t, result.Results.Code)
		assert.Equal(t, "vue", result.Results.Code.Framework)
		assert.Nil(t, result.Results.Reasoning)
		assert.Equal(t, []string{"claude-3"}, result.Metadata.ModelsUsed)
	})

	t.Run("default mode applies when request omits it", func(t *testing.T) {
		server, _ := newTestServer(t, &Config{DefaultMode: task.ModeSequential})

		rec := do(t, server, http.MethodPost, "/api/v1/orchestrate",
			`{"design": {}, "requirements": {"reasoning": true}}`)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("misconfiguration is unprocessable", func(t *testing.T) {
		server, _ := newTestServer(t, nil)

		rec := do(t, server, http.MethodPost, "/api/v1/orchestrate",
			`{"design": {}, "requirements": {"documentation": true}, "options": {"priority": "urgent"}}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var result orchestrator.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.False(t, result.Success)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "priority")
	})

	t.Run("missing design", func(t *testing.T) {
		server, _ := newTestServer(t, nil)

		rec := do(t, server, http.MethodPost, "/api/v1/orchestrate", `{"requirements": {"documentation": true}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "design field is required")
	})

	t.Run("malformed body", func(t *testing.T) {
		server, logger := newTestServer(t, nil)

		rec := do(t, server, http.MethodPost, "/api/v1/orchestrate", `{"design":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		logger.AssertLogged(t, zapcore.WarnLevel, "invalid orchestrate request")
	})

	t.Run("body limit", func(t *testing.T) {
		server, _ := newTestServer(t, &Config{BodyLimit: "1K"})

		big := `{"design": {"blob": "` + strings.Repeat("x", 4096) + `"}}`
		rec := do(t, server, http.MethodPost, "/api/v1/orchestrate", big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("serves the gatherer", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "designorch_test_total", Help: "test"})
		reg.MustRegister(counter)
		counter.Inc()

		server, _ := newTestServer(t, &Config{Gatherer: reg})
		rec := do(t, server, http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "designorch_test_total 1")
	})

	t.Run("disabled without gatherer", func(t *testing.T) {
		server, _ := newTestServer(t, nil)
		rec := do(t, server, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRequestLogging(t *testing.T) {
	server, logger := newTestServer(t, nil)

	rec := do(t, server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	logger.AssertLogged(t, zapcore.InfoLevel, "http request")
	logger.AssertField(t, "http request", "status", int64(http.StatusOK))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestServer_Shutdown(t *testing.T) {
	server, logger := newTestServer(t, &Config{Host: "127.0.0.1", Port: 0})
	require.NoError(t, server.Shutdown(context.Background()))
	logger.AssertLogged(t, zapcore.InfoLevel, "shutting down http server")
}

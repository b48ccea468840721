package metric

import (
	"context"
	"io"
	"strings"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/complianceflow/errors"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

// scrape parses the text exposition served at path
func scrape(t *testing.T, h http.Handler, path string) map[string]*dto.MetricFamily {
	t.Helper()
	code, body := get(t, h, path)
	require.Equal(t, http.StatusOK, code)

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(strings.NewReader(body))
	require.NoError(t, err)
	return families
}

func TestServer_Handler(t *testing.T) {
	registry := NewMetricsRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "handler_test_total", Help: "test"})
	require.NoError(t, registry.Register("test", "handler_test_total", counter))
	counter.Add(3)

	s := NewServer(0, "", registry)
	h := s.Handler()

	families := scrape(t, h, "/metrics")
	require.Contains(t, families, "handler_test_total")
	assert.Equal(t, dto.MetricType_COUNTER, families["handler_test_total"].GetType())
	assert.Equal(t, 3.0, families["handler_test_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Contains(t, families, "go_goroutines", "runtime collectors are registered")

	code, body := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body)

	code, body = get(t, h, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `href="/metrics"`)

	code, _ = get(t, h, "/missing")
	assert.Equal(t, http.StatusNotFound, code)

	assert.Equal(t, "http://localhost:9090/metrics", s.Address())
}

func TestServer_HealthHandler(t *testing.T) {
	health := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
	})

	s := NewServer(9191, "/prom", NewMetricsRegistry(), WithHealthHandler(health))
	code, body := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"unhealthy"}`, body)

	code, _ = get(t, s.Handler(), "/prom")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	s := NewServer(0, "", nil)
	err := s.Start()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestServer_StopIdle(t *testing.T) {
	s := NewServer(0, "", NewMetricsRegistry())
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_RunUntilCancelled(t *testing.T) {
	registry := NewMetricsRegistry()
	s := NewServer(19193, "/metrics", registry)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:19193/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The port is free again
	assert.NoError(t, s.Stop())
}

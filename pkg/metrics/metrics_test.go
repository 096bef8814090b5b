package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioMetricsIncrement(t *testing.T) {
	lbl := "metrics-test-class"

	ScenariosTotal.WithLabelValues(lbl, "passed").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(ScenariosTotal.WithLabelValues(lbl, "passed")), float64(1))

	ScenarioAttempts.WithLabelValues(lbl, "failed").Add(2)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ScenarioAttempts.WithLabelValues(lbl, "failed")), float64(2))
}

func TestAPIRequestLabelCardinality(t *testing.T) {
	APIRequests.Reset()
	defer APIRequests.Reset()

	assert.NotPanics(t, func() {
		APIRequests.WithLabelValues("GET", "/api/v3/applications", "200").Inc()
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(APIRequests.WithLabelValues("GET", "/api/v3/applications", "200")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Downloads.WithLabelValues("csv", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fodtest_downloads_total")
}

func TestPushRequiresURL(t *testing.T) {
	assert.Error(t, Push(context.Background(), "", "fodtest", ""))
}

func TestPushSendsToGateway(t *testing.T) {
	var path string
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ScenariosTotal.WithLabelValues("push-class", "passed").Inc()
	require.NoError(t, Push(context.Background(), srv.URL, "fodtest", "run-1"))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/fodtest/run_id/run-1"), path)
	assert.NotEmpty(t, body)
}

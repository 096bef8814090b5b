package webhookrecv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/system"
)

func newTestServer(t *testing.T, cfg config.Receiver) *Server {
	t.Helper()
	s := New(cfg, system.NewTestLogger())
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func post(t *testing.T, h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestReceiveStoresDelivery(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	before := testutil.ToFloat64(metrics.WebhookDeliveries.WithLabelValues("scan-completed", "ScanCompleted"))

	w := post(t, s.Handler(), "/hooks/scan-completed", `{"releaseId":42}`, map[string]string{
		"Content-Type": "application/json",
		"X-Fod-Event":  "ScanCompleted",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	got := s.Deliveries("scan-completed")
	require.Len(t, got, 1)
	assert.Equal(t, "ScanCompleted", got[0].Event)
	assert.JSONEq(t, `{"releaseId":42}`, string(got[0].Body))
	assert.Empty(t, got[0].RawBody)
	assert.Equal(t, "application/json", got[0].Headers["Content-Type"])
	assert.False(t, got[0].ReceivedAt.IsZero())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WebhookDeliveries.WithLabelValues("scan-completed", "ScanCompleted")))
}

func TestReceiveKeepsNonJSONBody(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	require.Equal(t, http.StatusAccepted, post(t, s.Handler(), "/hooks/plain", "hello=world", nil).Code)
	got := s.Deliveries("plain")
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Body)
	assert.Equal(t, "hello=world", got[0].RawBody)
}

func TestReceiveRejectsLargeBody(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	w := post(t, s.Handler(), "/hooks/big", strings.Repeat("x", maxBodySize+1), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, s.Deliveries(""))
}

func TestListAndClearDeliveries(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	post(t, s.Handler(), "/hooks/a", "{}", nil)
	post(t, s.Handler(), "/hooks/b", "{}", nil)
	post(t, s.Handler(), "/hooks/a", "[]", nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/deliveries?name=a", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listed []Delivery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)
	assert.Len(t, s.Deliveries(""), 3)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/deliveries", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.Deliveries(""))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	for path, want := range map[string]string{"/healthz": "ok", "/metrics": "go_goroutines"} {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}
}

func TestReceiverRateLimit(t *testing.T) {
	s := newTestServer(t, config.Receiver{Rate: 0.001, Burst: 1})
	assert.Equal(t, http.StatusAccepted, post(t, s.Handler(), "/hooks/a", "{}", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, s.Handler(), "/hooks/a", "{}", nil).Code)
}

func TestWaitForDelivery(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		post(t, s.Handler(), "/hooks/late", `{"n":1}`, map[string]string{"X-Event-Type": "ReportCompleted"})
	}()
	d, err := s.WaitForDelivery(context.Background(), "late", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ReportCompleted", d.Event)

	_, err = s.WaitForDelivery(context.Background(), "never", 300*time.Millisecond)
	require.Error(t, err)
}

func TestWaitForDeliverySurvivesConcurrentReset(t *testing.T) {
	s := newTestServer(t, config.Receiver{})
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s.mu.Lock()
			s.deliveries = append(s.deliveries, Delivery{Name: "flaky", Event: "ScanCompleted"})
			s.mu.Unlock()
			time.Sleep(time.Millisecond)
			s.Reset()
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	for i := 0; i < 20; i++ {
		d, err := s.WaitForDelivery(context.Background(), "flaky", 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, "ScanCompleted", d.Event)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := New(config.Receiver{ListenAddress: "127.0.0.1:0"}, system.NewTestLogger())
	require.NoError(t, s.Start())
	assert.Equal(t, "http://"+s.Addr()+"/hooks/x", s.URL("x"))

	resp, err := http.Post(s.URL("x"), "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Len(t, s.Deliveries("x"), 1)

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestURLUsesPublicURL(t *testing.T) {
	s := newTestServer(t, config.Receiver{PublicURL: "https://hooks.example.test/"})
	assert.Equal(t, "https://hooks.example.test/hooks/scan", s.URL("scan"))
}

func TestServesArtifacts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run-report.html"), []byte("<h1>run</h1>"), 0o600))
	s := newTestServer(t, config.Receiver{ArtifactsDir: dir})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/artifacts/run-report.html", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>run</h1>")

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/artifacts/missing.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliveriesCORS(t *testing.T) {
	s := newTestServer(t, config.Receiver{AllowOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/deliveries", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/deliveries", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

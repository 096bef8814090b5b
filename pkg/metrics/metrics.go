package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Scenario outcomes
	ScenariosTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_scenarios_total",
		Help: "Total number of scenarios finished, by class and final status",
	}, []string{"class", "status"})
	ScenarioAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_scenario_attempts_total",
		Help: "Total number of scenario executions including retries, by outcome",
	}, []string{"class", "outcome"})
	ScenarioDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fodtest_scenario_duration_seconds",
		Help:    "Wall time of a scenario across all of its attempts",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
	}, []string{"class"})

	// Product REST API
	APIRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_api_requests_total",
		Help: "Total number of product API requests, by method, endpoint and status code",
	}, []string{"method", "endpoint", "code"})
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fodtest_api_request_duration_seconds",
		Help:    "Latency of product API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_api_retries_total",
		Help: "Total number of retried product API requests",
	}, []string{"endpoint"})

	// Result sinks
	ResultSinkEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_result_sink_events_total",
		Help: "Total number of result events written, by sink",
	}, []string{"sink"})
	ResultSinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_result_sink_errors_total",
		Help: "Total number of result sink write failures, by sink and error class",
	}, []string{"sink", "reason"})
	ResultSinkLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fodtest_result_sink_write_seconds",
		Help:    "Latency of result sink writes",
		Buckets: prometheus.DefBuckets,
	}, []string{"sink"})
	ResultSinkConnected = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fodtest_result_sink_connected",
		Help: "Whether the result sink could reach its backend on the last write (1) or not (0)",
	}, []string{"sink"})

	// Mail metrics
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})

	// Downloads and received webhooks
	Downloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_downloads_total",
		Help: "Total number of artifact downloads from the product UI, by kind and outcome",
	}, []string{"kind", "outcome"})
	WebhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fodtest_webhook_deliveries_received_total",
		Help: "Total number of webhook deliveries captured by the receiver",
	}, []string{"hook", "event"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ScenariosTotal,
		ScenarioAttempts,
		ScenarioDuration,
		APIRequests,
		APIRequestDuration,
		APIRetries,
		ResultSinkEvents,
		ResultSinkErrors,
		ResultSinkLatency,
		ResultSinkConnected,
		MailSendSuccess,
		MailSendFailure,
		Downloads,
		WebhookDeliveries,
	}
}

func init() {
	prometheus.MustRegister(collectors()...)
}

// Handler returns an http.Handler exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Push sends the harness collectors to a Prometheus push gateway under job.
// A CLI run is too short-lived to be scraped.
func Push(ctx context.Context, url, job, runID string) error {
	if url == "" {
		return fmt.Errorf("push gateway url is empty")
	}
	p := push.New(url, job)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	for _, c := range collectors() {
		p = p.Collector(c)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

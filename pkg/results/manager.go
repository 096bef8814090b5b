/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package results

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
)

// Manager fans result events out to every configured sink. A failing sink is
// logged and counted but never fails the run.
type Manager struct {
	sinks  []Sink
	queue  chan *Event
	logger *zap.Logger
	wg     sync.WaitGroup
	closed atomic.Bool
	config ManagerConfig

	processed atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// ManagerConfig configures the Manager.
type ManagerConfig struct {
	// QueueSize is the size of the async event queue.
	// Default: 1000
	QueueSize int
	// WriteTimeout bounds a single sink write.
	// Default: 5s
	WriteTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{QueueSize: 1000, WriteTimeout: 5 * time.Second}
}

// NewManager starts the worker that drains the queue. With no sinks every
// event is discarded.
func NewManager(sinks []Sink, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	m := &Manager{
		sinks:  sinks,
		queue:  make(chan *Event, cfg.QueueSize),
		logger: logger.Named("results-manager"),
		config: cfg,
	}
	m.wg.Add(1)
	go m.processQueue()

	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	m.logger.Info("result manager started", zap.Strings("sinks", names), zap.Int("queue_size", cfg.QueueSize))
	return m
}

// FromConfig builds the sinks enabled in cfg. Network sinks are wrapped in a
// circuit breaker.
func FromConfig(cfg config.Results, logger *zap.Logger) (*Manager, error) {
	var sinks []Sink
	if cfg.Log {
		sinks = append(sinks, NewLogSink(logger))
	}
	if cfg.Webhook != nil && cfg.Webhook.URL != "" {
		timeout, err := parseTimeout(cfg.Webhook.Timeout)
		if err != nil {
			return nil, err
		}
		ws, err := NewWebhookSink(WebhookSinkConfig{URL: cfg.Webhook.URL, Headers: cfg.Webhook.Headers, Timeout: timeout}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, NewCircuitBreakerSink(ws, CircuitBreakerConfig{}, logger))
	}
	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		kcfg, err := KafkaSinkConfigFrom(*cfg.Kafka)
		if err != nil {
			return nil, err
		}
		ks, err := NewKafkaSink(kcfg, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, NewCircuitBreakerSink(ks, CircuitBreakerConfig{}, logger))
	}
	return NewManager(sinks, DefaultManagerConfig(), logger), nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid webhook sink timeout %q: %w", s, err)
	}
	return d, nil
}

// Emit queues event without blocking. When the queue is full the event is
// dropped and counted.
func (m *Manager) Emit(event *Event) {
	if m.closed.Load() {
		return
	}
	event.complete()
	select {
	case m.queue <- event:
	default:
		m.dropped.Add(1)
		m.logger.Warn("result queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
}

// EmitSync writes event to every sink before returning. The joined sink
// errors are returned for the caller to log.
func (m *Manager) EmitSync(ctx context.Context, event *Event) error {
	event.complete()
	return m.write(ctx, event)
}

func (m *Manager) write(ctx context.Context, event *Event) error {
	var errs []error
	for _, sink := range m.sinks {
		wctx, cancel := context.WithTimeout(ctx, m.config.WriteTimeout)
		err := sink.Write(wctx, event)
		cancel()
		if err != nil {
			m.failed.Add(1)
			if !errors.Is(err, ErrCircuitOpen) {
				metrics.ResultSinkErrors.WithLabelValues(sink.Name(), "write").Inc()
			}
			m.logger.Warn("result sink write failed",
				zap.String("sink", sink.Name()),
				zap.String("event_id", event.ID),
				zap.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		metrics.ResultSinkEvents.WithLabelValues(sink.Name()).Inc()
	}
	m.processed.Add(1)
	return errors.Join(errs...)
}

func (m *Manager) processQueue() {
	defer m.wg.Done()
	for event := range m.queue {
		_ = m.write(context.Background(), event)
	}
}

// Close drains the queue and closes every sink.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	close(m.queue)
	m.wg.Wait()

	m.logger.Info("result manager stopped",
		zap.Int64("processed", m.processed.Load()),
		zap.Int64("dropped", m.dropped.Load()),
		zap.Int64("sink_failures", m.failed.Load()))

	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns processed, dropped and failed write counts.
func (m *Manager) Stats() (processed, dropped, failed int64) {
	return m.processed.Load(), m.dropped.Load(), m.failed.Load()
}

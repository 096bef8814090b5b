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
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/metrics"
)

// ErrCircuitOpen is returned while a sink is being skipped after repeated failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures when a failing sink is skipped.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that open the circuit.
	// Default: 5
	FailureThreshold int
	// OpenTimeout is how long writes are skipped before one is let through again.
	// Default: 30s
	OpenTimeout time.Duration
}

// CircuitBreakerSink stops writing to a sink whose backend is down, so a long
// run does not pay a write timeout for every scenario.
type CircuitBreakerSink struct {
	sink   Sink
	cfg    CircuitBreakerConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
	skipped  int64
}

func NewCircuitBreakerSink(sink Sink, cfg CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerSink {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return &CircuitBreakerSink{
		sink:   sink,
		cfg:    cfg,
		logger: logger.Named("cb-sink").With(zap.String("sink", sink.Name())),
		now:    time.Now,
	}
}

func (s *CircuitBreakerSink) allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return true
	}
	// half-open: let one write probe the backend
	if s.now().Sub(s.openedAt) >= s.cfg.OpenTimeout {
		s.openedAt = s.now()
		return true
	}
	s.skipped++
	return false
}

func (s *CircuitBreakerSink) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		if s.open {
			s.logger.Info("circuit breaker closed")
		}
		s.failures, s.open = 0, false
		return
	}
	s.failures++
	if !s.open && s.failures >= s.cfg.FailureThreshold {
		s.open, s.openedAt = true, s.now()
		s.logger.Warn("circuit breaker opened",
			zap.Int("consecutive_failures", s.failures),
			zap.Duration("open_timeout", s.cfg.OpenTimeout))
	}
}

func (s *CircuitBreakerSink) Write(ctx context.Context, event *Event) error {
	if !s.allow() {
		metrics.ResultSinkErrors.WithLabelValues(s.sink.Name(), "circuit_open").Inc()
		return ErrCircuitOpen
	}
	err := s.sink.Write(ctx, event)
	s.record(err)
	return err
}

// IsOpen reports whether writes are currently skipped.
func (s *CircuitBreakerSink) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *CircuitBreakerSink) Close() error {
	s.mu.Lock()
	skipped := s.skipped
	s.mu.Unlock()
	if skipped > 0 {
		s.logger.Info("closing circuit breaker sink", zap.Int64("skipped_events", skipped))
	}
	return s.sink.Close()
}

func (s *CircuitBreakerSink) Name() string { return s.sink.Name() }

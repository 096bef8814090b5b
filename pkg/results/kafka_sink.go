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
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
)

const (
	defaultKafkaBatchTimeout = time.Second
	defaultKafkaWriteTimeout = 10 * time.Second
)

// KafkaSinkConfig configures a KafkaSink.
type KafkaSinkConfig struct {
	Name    string
	Brokers []string
	Topic   string

	TLS  *KafkaTLSConfig
	SASL *KafkaSASLConfig

	// BatchTimeout defaults to one second.
	BatchTimeout time.Duration
	// WriteTimeout defaults to ten seconds.
	WriteTimeout time.Duration
	// CompressionCodec is a key of compressionCodecs; empty means snappy.
	CompressionCodec string
}

type KafkaTLSConfig struct {
	Enabled bool
	// CACert is PEM encoded.
	CACert             []byte
	InsecureSkipVerify bool
}

type KafkaSASLConfig struct {
	// Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
	Mechanism string
	Username  string
	Password  string
}

// KafkaSinkConfigFrom converts the results.kafka section of the config file.
func KafkaSinkConfigFrom(cfg config.KafkaSink) (KafkaSinkConfig, error) {
	out := KafkaSinkConfig{
		Name:             "kafka",
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		CompressionCodec: cfg.Compression,
	}
	if cfg.TLS {
		out.TLS = &KafkaTLSConfig{Enabled: true, InsecureSkipVerify: cfg.InsecureSkipVerify}
		if cfg.CAFile != "" {
			ca, err := os.ReadFile(cfg.CAFile)
			if err != nil {
				return out, fmt.Errorf("failed to read kafka CA file: %w", err)
			}
			out.TLS.CACert = ca
		}
	}
	if cfg.SASLMechanism != "" {
		out.SASL = &KafkaSASLConfig{Mechanism: cfg.SASLMechanism, Username: cfg.SASLUsername, Password: cfg.SASLPassword}
	}
	return out, nil
}

var compressionCodecs = map[string]kafka.Compression{
	"none":   0,
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// KafkaSink publishes result events to a topic. Messages are keyed by run id,
// so the events of one run land on one partition in order.
type KafkaSink struct {
	name   string
	writer *kafka.Writer
	log    *zap.SugaredLogger

	mu     sync.Mutex
	closed bool

	written   atomic.Int64
	failed    atomic.Int64
	connected atomic.Bool
	lastErr   atomic.Value
}

func NewKafkaSink(cfg KafkaSinkConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	log := logger.Sugar().Named("kafka-results")

	transport := &kafka.Transport{}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsConfig, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		transport.TLS = tlsConfig
	}
	if cfg.SASL != nil && cfg.SASL.Mechanism != "" {
		mechanism, err := buildSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, fmt.Errorf("failed to build SASL mechanism: %w", err)
		}
		transport.SASL = mechanism
	}

	codec := cfg.CompressionCodec
	if codec == "" {
		codec = "snappy"
	}
	compression, ok := compressionCodecs[codec]
	if !ok {
		log.Warnw("Unknown compression codec, using snappy", "codec", codec)
		compression = kafka.Snappy
	}

	name := cfg.Name
	if name == "" {
		name = "kafka"
	}
	s := &KafkaSink{
		name: name,
		log:  log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: orDefault(cfg.BatchTimeout, defaultKafkaBatchTimeout),
			WriteTimeout: orDefault(cfg.WriteTimeout, defaultKafkaWriteTimeout),
			RequiredAcks: kafka.RequireAll,
			Compression:  compression,
			Transport:    transport,
		},
	}
	s.setConnected(true)
	log.Infow("Kafka result sink created", "brokers", cfg.Brokers, "topic", cfg.Topic,
		"tls", transport.TLS != nil, "sasl", transport.SASL != nil)
	return s, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// kafkaErrorClasses are tried in order against the error text.
var kafkaErrorClasses = []struct {
	class   string
	markers []string
}{
	{"auth", []string{"SASL", "authentication"}},
	{"authorization", []string{"authorization", "ACL"}},
	{"timeout", []string{"timeout", "timed out"}},
	{"network", []string{"connection refused", "no such host"}},
	{"tls", []string{"TLS", "certificate", "x509"}},
	{"broker", []string{"broker", "leader"}},
	{"topic", []string{"topic"}},
}

// classifyKafkaError labels err for the sink error metric.
func classifyKafkaError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}
	msg := err.Error()
	for _, c := range kafkaErrorClasses {
		for _, m := range c.markers {
			if strings.Contains(msg, m) {
				return c.class
			}
		}
	}
	return "other"
}

// messageFor encodes event with headers consumers can filter on without
// decoding the body.
func messageFor(event *Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	headers := []kafka.Header{
		{Key: "event-type", Value: []byte(event.Type)},
		{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
	}
	add := func(key, v string) {
		if v != "" {
			headers = append(headers, kafka.Header{Key: key, Value: []byte(v)})
		}
	}
	add("class", event.Class)
	add("scenario", event.Scenario)
	add("status", string(event.Status))
	add("backlog-item", event.BacklogItem)
	if event.Attempt > 0 {
		add("attempt", strconv.Itoa(event.Attempt))
	}
	return kafka.Message{Key: []byte(event.RunID), Value: value, Headers: headers}, nil
}

func (s *KafkaSink) Write(ctx context.Context, event *Event) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		metrics.ResultSinkErrors.WithLabelValues(s.name, "closed").Inc()
		return errors.New("kafka sink is closed")
	}

	msg, err := messageFor(event)
	if err != nil {
		metrics.ResultSinkErrors.WithLabelValues(s.name, "serialization").Inc()
		s.failed.Add(1)
		return fmt.Errorf("failed to marshal result event: %w", err)
	}

	start := time.Now()
	err = s.writer.WriteMessages(ctx, msg)
	metrics.ResultSinkLatency.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	if err != nil {
		class := classifyKafkaError(err)
		metrics.ResultSinkErrors.WithLabelValues(s.name, class).Inc()
		s.failed.Add(1)
		s.lastErr.Store(err)
		s.setConnected(false)
		s.log.Warnw("Result event not published", "error", err, "errorType", class,
			"event", event.Type, "class", event.Class, "scenario", event.Scenario)
		return fmt.Errorf("failed to write to Kafka (%s): %w", class, err)
	}

	s.written.Add(1)
	if !s.connected.Load() {
		s.log.Infow("Kafka result sink reachable again", "name", s.name)
	}
	s.setConnected(true)
	return nil
}

func (s *KafkaSink) setConnected(up bool) {
	s.connected.Store(up)
	v := 0.0
	if up {
		v = 1
	}
	metrics.ResultSinkConnected.WithLabelValues(s.name).Set(v)
}

func (s *KafkaSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.setConnected(false)
	s.log.Infow("Closing Kafka result sink", "name", s.name, "written", s.written.Load(), "failed", s.failed.Load())
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}

func (s *KafkaSink) Name() string { return s.name }

// IsConnected reports whether the last write reached the broker.
func (s *KafkaSink) IsConnected() bool { return s.connected.Load() }

// LastError returns the error of the last failed write.
func (s *KafkaSink) LastError() error {
	err, _ := s.lastErr.Load().(error)
	return err
}

func buildTLSConfig(cfg *KafkaTLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // QA stages use self-signed brokers
	}
	if len(cfg.CACert) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.CACert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

func buildSASLMechanism(cfg *KafkaSASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}

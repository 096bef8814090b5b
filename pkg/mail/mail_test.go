package mail

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/suite"
	"github.com/fodqa/fod-regression/pkg/system"
)

func mailConfig(host string, port int) config.Config {
	return config.Config{Mail: config.Mail{
		Host:          host,
		Port:          port,
		SenderAddress: "sender@example.com",
		RetryCount:    2,
		RetryBackoff:  "10ms",
	}}
}

func TestNewSenderDefaults(t *testing.T) {
	s := NewSender(config.Config{Mail: config.Mail{Host: "smtp.example.com", Port: 587, InsecureSkipVerify: true}}, nil).(*sender)
	assert.Equal(t, "smtp.example.com", s.GetHost())
	assert.Equal(t, 587, s.GetPort())
	assert.Equal(t, "noreply@fodqa.local", s.senderAddress)
	assert.Equal(t, "FoD Regression", s.senderName)
	assert.Equal(t, 2*time.Second, s.retryBackoff)
	require.NotNil(t, s.dialer.TLSConfig)
	assert.True(t, s.dialer.TLSConfig.InsecureSkipVerify)
}

func TestSendRequiresReceivers(t *testing.T) {
	s := NewSender(mailConfig("localhost", 1025), system.NewTestLogger())
	require.Error(t, s.Send(nil, "subject", "body"))
}

func TestSendRetriesWithBackoff(t *testing.T) {
	// nothing listens on the closed listener's port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s := NewSender(mailConfig("127.0.0.1", port), system.NewTestLogger()).(*sender)
	var slept []time.Duration
	s.sleep = func(d time.Duration) { slept = append(slept, d) }

	before := testutil.ToFloat64(metrics.MailSendFailure.WithLabelValues("127.0.0.1"))
	require.Error(t, s.Send([]string{"qa@example.com"}, "subject", "<p>body</p>"))
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, slept)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSendFailure.WithLabelValues("127.0.0.1")))
}

// startTestSMTPServer starts a minimal SMTP server on a random port that
// accepts one message and then returns. It is intentionally minimal and
// only implements the commands necessary for the mail sender tests.
func startTestSMTPServer(t *testing.T) (host string, port int, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer ln.Close()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		// Welcome
		fmt.Fprintf(conn, "220 localhost Test SMTP Service Ready\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				break
			}
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "EHLO") || strings.HasPrefix(line, "HELO") {
				fmt.Fprintf(conn, "250-localhost Hello\r\n250 OK\r\n")
				continue
			}
			if strings.HasPrefix(line, "MAIL FROM:") {
				fmt.Fprintf(conn, "250 OK\r\n")
				continue
			}
			if strings.HasPrefix(line, "RCPT TO:") {
				fmt.Fprintf(conn, "250 OK\r\n")
				continue
			}
			if strings.HasPrefix(line, "DATA") {
				fmt.Fprintf(conn, "354 End data with <CR><LF>.<CR><LF>\r\n")
				// read until dot line
				for {
					dline, derr := r.ReadString('\n')
					if derr != nil {
						break
					}
					if strings.TrimSpace(dline) == "." {
						break
					}
				}
				fmt.Fprintf(conn, "250 OK: queued as 12345\r\n")
				continue
			}
			if strings.HasPrefix(line, "QUIT") {
				fmt.Fprintf(conn, "221 Bye\r\n")
				break
			}
			// Unknown command, respond generically
			fmt.Fprintf(conn, "250 OK\r\n")
		}
		wg.Done()
	}()

	host = "127.0.0.1"
	addr := ln.Addr().String()
	var p int
	_, err = fmt.Sscanf(addr, "127.0.0.1:%d", &p)
	if err != nil {
		ln.Close()
		t.Fatalf("failed to parse listen addr: %v", err)
	}

	stop = func() {
		// ensure listener closed and goroutine finished
		ln.Close()
		wg.Wait()
	}
	return host, p, stop
}

func TestSendHappyPath(t *testing.T) {
	host, port, stop := startTestSMTPServer(t)
	defer stop()

	s := NewSender(mailConfig(host, port), system.NewTestLogger())
	before := testutil.ToFloat64(metrics.MailSendSuccess.WithLabelValues(host))
	require.NoError(t, s.Send([]string{"recipient@example.com"}, "Hello", "<p>body</p>"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailSendSuccess.WithLabelValues(host)))
}

type recordingSender struct {
	receivers []string
	subject   string
	body      string
	err       error
}

func (r *recordingSender) Send(receivers []string, subject, body string) error {
	r.receivers, r.subject, r.body = receivers, subject, body
	return r.err
}

func (r *recordingSender) GetHost() string { return "smtp.test" }
func (r *recordingSender) GetPort() int    { return 25 }

func sampleReport(status results.Status) *suite.Report {
	now := time.Now()
	return &suite.Report{RunID: "run-7", Started: now, Finished: now.Add(time.Minute), Results: []suite.ScenarioResult{
		{Class: "Applications", Scenario: "create", Status: results.StatusPassed, Attempts: 1},
		{Class: "Applications", Scenario: "delete", Status: status, Attempts: 2},
	}}
}

func TestSendRunSummary(t *testing.T) {
	rec := &recordingSender{}
	require.NoError(t, SendRunSummary(rec, []string{"qa@example.com"}, sampleReport(results.StatusFailed)))
	assert.Equal(t, []string{"qa@example.com"}, rec.receivers)
	assert.Equal(t, "[FoD regression] FAILED run run-7: 1 passed, 1 failed, 0 skipped", rec.subject)
	assert.Contains(t, rec.body, "<h2>Applications</h2>")

	assert.Equal(t, "[FoD regression] PASSED run run-7: 2 passed, 0 failed, 0 skipped", Subject(sampleReport(results.StatusPassed)))
}

func TestSendRunSummaryError(t *testing.T) {
	rec := &recordingSender{err: fmt.Errorf("relay down")}
	err := SendRunSummary(rec, []string{"qa@example.com"}, sampleReport(results.StatusPassed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.test:25")
	assert.Contains(t, err.Error(), "relay down")
}

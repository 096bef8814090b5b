package mail

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/report"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const maxBackoff = 32 * time.Second

type Sender interface {
	Send(receivers []string, subject, body string) error
	GetHost() string
	GetPort() int
}

type sender struct {
	dialer        *gomail.Dialer
	senderAddress string
	senderName    string
	retryCount    int
	retryBackoff  time.Duration
	sleep         func(time.Duration)
	log           *zap.SugaredLogger
}

func NewSender(cfg config.Config, log *zap.SugaredLogger) Sender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("component", "mail")
	log.Infow("Initializing mail sender", "host", cfg.Mail.Host, "port", cfg.Mail.Port, "user", cfg.Mail.User)
	d := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password)
	if cfg.Mail.InsecureSkipVerify {
		log.Warn("InsecureSkipVerify is enabled for mail TLS connection")
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for lab relays
	}
	senderAddr := cfg.Mail.SenderAddress
	if senderAddr == "" {
		senderAddr = "noreply@fodqa.local"
	}
	senderName := cfg.Mail.SenderName
	if senderName == "" {
		senderName = "FoD Regression"
	}
	retryCount := cfg.Mail.RetryCount
	if retryCount < 0 {
		retryCount = 0
	}
	return &sender{
		dialer:        d,
		senderAddress: senderAddr,
		senderName:    senderName,
		retryCount:    retryCount,
		retryBackoff:  cfg.MailRetryBackoff(),
		sleep:         time.Sleep,
		log:           log,
	}
}

func (s *sender) Send(receivers []string, subject, body string) error {
	if len(receivers) == 0 {
		return errors.New("no mail receivers")
	}
	s.log.Debugw("Sending mail", "receivers", len(receivers), "subject", subject)
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.senderAddress, s.senderName)
	msg.SetHeader("Bcc", receivers...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	var lastErr error
	backoff := s.retryBackoff
	for attempt := 0; attempt <= s.retryCount; attempt++ {
		err := s.dialer.DialAndSend(msg)
		if err == nil {
			s.log.Infow("Mail sent", "receivers", len(receivers), "attempt", attempt+1)
			metrics.MailSendSuccess.WithLabelValues(s.GetHost()).Inc()
			return nil
		}
		lastErr = err
		if attempt < s.retryCount {
			s.log.Warnw("Mail send failed, retrying", "attempt", attempt+1, "error", err, "retryIn", backoff)
			s.sleep(backoff)
			backoff = min(backoff*2, maxBackoff)
		}
	}
	s.log.Errorw("Mail send failed", "attempts", s.retryCount+1, "error", lastErr)
	metrics.MailSendFailure.WithLabelValues(s.GetHost()).Inc()
	return lastErr
}

func (s *sender) GetHost() string {
	return s.dialer.Host
}

func (s *sender) GetPort() int {
	return s.dialer.Port
}

// Subject is the summary line of a run used as mail subject.
func Subject(r *suite.Report) string {
	verdict := "PASSED"
	if !r.OK() {
		verdict = "FAILED"
	}
	return fmt.Sprintf("[FoD regression] %s run %s: %d passed, %d failed, %d skipped",
		verdict, r.RunID, r.Passed(), r.Failed(), r.Skipped())
}

// SendRunSummary mails the HTML report of r to receivers.
func SendRunSummary(s Sender, receivers []string, r *suite.Report) error {
	var body bytes.Buffer
	if err := report.Render(&body, r, report.FormatHTML); err != nil {
		return fmt.Errorf("failed to render run summary: %w", err)
	}
	if err := s.Send(receivers, Subject(r), body.String()); err != nil {
		return fmt.Errorf("failed to mail run summary to %s:%d: %w", s.GetHost(), s.GetPort(), err)
	}
	return nil
}

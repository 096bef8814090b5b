package fodapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/ratelimit"
	"github.com/fodqa/fod-regression/pkg/telemetry"
	"github.com/fodqa/fod-regression/pkg/utils"
	"github.com/fodqa/fod-regression/pkg/version"
)

// CorrelationHeader carries the per-request id the product echoes into its logs.
const CorrelationHeader = "X-Correlation-ID"

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *ratelimit.KeyedLimiter
	retry     utils.RetryConfig
	log       *zap.SugaredLogger

	fragmentSize int

	// one of the three is set by the auth options
	bearer    string
	basicUser string
	basicPass string
	tokens    oauth2.TokenSource
}

type Option func(*Client) error

func New(opts ...Option) (*Client, error) {
	c := &Client{
		http:      &http.Client{Timeout: 60 * time.Second},
		userAgent: version.UserAgent(),
		retry:     utils.DefaultRetryConfig(),
		log:       zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.baseURL == nil {
		return nil, errors.New("server is required")
	}
	return c, nil
}

// NewClient builds a client for the API configured in cfg.
func NewClient(cfg config.Config, opts ...Option) (*Client, error) {
	initial, maxBackoff := cfg.APIBackoff()
	retry := utils.DefaultRetryConfig()
	retry.MaxRetries = cfg.API.MaxRetries
	retry.InitialBackoff = initial
	retry.MaxBackoff = maxBackoff

	limits := ratelimit.DefaultAPIConfig()
	limits.Rate = cfg.API.Rate
	limits.Burst = cfg.API.Burst

	base := []Option{
		WithServer(cfg.Environment.APIURL),
		WithTLSConfig("", cfg.API.InsecureSkipVerify),
		WithTimeout(cfg.APITimeout()),
		WithRetry(retry),
		WithRateLimiter(ratelimit.New(limits)),
	}
	return New(append(base, opts...)...)
}

func WithServer(server string) Option {
	return func(c *Client) error {
		if server == "" {
			return errors.New("server is required")
		}
		parsed, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("invalid server: %w", err)
		}
		c.baseURL = parsed
		return nil
	}
}

// WithBearerToken authenticates with a fixed token, e.g. a personal access token.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearer, c.tokens = token, nil
		return nil
	}
}

func WithBasicAuth(user, password string) Option {
	return func(c *Client) error {
		c.basicUser, c.basicPass = user, password
		return nil
	}
}

// WithTokenSource authenticates every request with a token from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) error {
		c.tokens = ts
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) error {
		if h == nil {
			return errors.New("http client is nil")
		}
		c.http = h
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.http.Timeout = d
		}
		return nil
	}
}

func WithTLSConfig(caFile string, insecureSkipTLSVerify bool) Option {
	return func(c *Client) error {
		tlsConfig, err := loadTLSConfig(caFile, insecureSkipTLSVerify)
		if err != nil {
			return err
		}
		c.http = &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}, Timeout: c.http.Timeout}
		return nil
	}
}

// WithRateLimiter paces requests per API host. nil disables pacing.
func WithRateLimiter(l *ratelimit.KeyedLimiter) Option {
	return func(c *Client) error {
		c.limiter = l
		return nil
	}
}

func WithRetry(cfg utils.RetryConfig) Option {
	return func(c *Client) error {
		c.retry = cfg
		return nil
	}
}

// WithFragmentSize sets the chunk size of payload uploads.
func WithFragmentSize(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return errors.New("fragment size must be positive")
		}
		c.fragmentSize = n
		return nil
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

func loadTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: insecure} //nolint:gosec // opt-in for QA stages with self-signed certs
	if caFile == "" {
		return tlsConfig, nil
	}
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(data); !ok {
		return nil, errors.New("failed to parse CA file")
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Close releases the rate limiter's cleanup goroutine.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Stop()
	}
}

// Response is a raw API response. Non-2xx statuses are not errors here.
type Response struct {
	StatusCode    int
	Header        http.Header
	Body          []byte
	CorrelationID string
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// JSON decodes the body into out.
func (r *Response) JSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ErrorMessages returns the messages of a product error body
// {"errors":[{"errorCode":..,"message":".."}]}. Other bodies yield none.
func (r *Response) ErrorMessages() []string {
	return errorMessages(r.Body)
}

func errorMessages(body []byte) []string {
	var parsed struct {
		Errors []struct {
			ErrorCode int    `json:"errorCode"`
			Message   string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	out := make([]string, 0, len(parsed.Errors))
	for _, e := range parsed.Errors {
		out = append(out, e.Message)
	}
	return out
}

// APIError is a non-2xx response.
type APIError struct {
	Method        string
	Path          string
	StatusCode    int
	Body          string
	CorrelationID string
	retryAfter    time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status=%d, body=%s", e.StatusCode, e.Body)
}

// Messages returns the product error messages in the body.
func (e *APIError) Messages() []string { return errorMessages([]byte(e.Body)) }

// RetryAfter is the server-requested delay of a 429 or 503, capped at
// MaxRetryAfter.
func (e *APIError) RetryAfter() time.Duration { return e.retryAfter }

// retryable covers throttling and gateway failures, where the request most
// likely never reached the product. 409 and 500 are not retried because a
// repeated POST could create the entity twice.
func (e *APIError) retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// MaxRetryAfter caps the Retry-After delay a server can impose on one retry.
const MaxRetryAfter = 30 * time.Second

// Do sends a request and returns the response whatever its status. Throttled
// and gateway responses (429, 502, 503, 504) are retried first. body may be nil, an io.Reader or
// []byte (sent as octet-stream), or any value sent as JSON.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	target, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	label := endpointLabel(target.Path)
	correlationID := uuid.NewString()

	ctx, span := telemetry.StartSpan(ctx, "fodapi "+method+" "+label,
		attribute.String("http.method", method),
		attribute.String("http.route", label),
		attribute.String("correlation_id", correlationID))

	var resp *Response
	attempt := 0
	err = utils.RetryWithBackoff(ctx, c.retry, func(err error) bool {
		var apiErr *APIError
		return errors.As(err, &apiErr) && apiErr.retryable()
	}, func() error {
		if attempt > 0 {
			metrics.APIRetries.WithLabelValues(label).Inc()
		}
		attempt++
		r, err := c.send(ctx, method, target, label, payload, contentType, correlationID)
		if err != nil {
			return err
		}
		resp = r
		if apiErr := c.apiError(method, target.Path, r); apiErr.retryable() {
			return apiErr
		}
		return nil
	})
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	telemetry.EndSpan(span, err)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		// still failing after the retries: hand back the last response
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method string, target *url.URL, label string, payload []byte, contentType, correlationID string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, target.Host); err != nil {
			return nil, err
		}
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set(CorrelationHeader, correlationID)
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method, label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(method, label, "error").Inc()
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	metrics.APIRequests.WithLabelValues(method, label, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugw("API call", "method", method, "endpoint", label, "status", resp.StatusCode,
		"correlationID", correlationID, "duration", time.Since(start).String())
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, CorrelationID: correlationID}, nil
}

func (c *Client) authorize(req *http.Request) error {
	switch {
	case c.tokens != nil:
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to obtain token: %w", err)
		}
		tok.SetAuthHeader(req)
	case c.bearer != "":
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	case c.basicUser != "":
		req.SetBasicAuth(c.basicUser, c.basicPass)
	}
	return nil
}

func (c *Client) apiError(method, p string, r *Response) *APIError {
	e := &APIError{
		Method:        method,
		Path:          p,
		StatusCode:    r.StatusCode,
		Body:          strings.TrimSpace(string(r.Body)),
		CorrelationID: r.CorrelationID,
	}
	if secs, err := strconv.Atoi(r.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.retryAfter = min(time.Duration(secs)*time.Second, MaxRetryAfter)
	}
	return e
}

// do sends a request and decodes a 2xx JSON body into out. Other statuses
// become *APIError.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	resp, err := c.Do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return c.apiError(method, endpoint, resp)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.JSON(out)
}

// download sends a GET and returns the raw 2xx body.
func (c *Client) download(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.apiError(http.MethodGet, endpoint, resp)
	}
	return resp.Body, nil
}

func (c *Client) resolve(endpoint string) (*url.URL, error) {
	full := *c.baseURL
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	full.Path = path.Join(full.Path, parsed.Path)
	full.RawQuery = parsed.RawQuery
	return &full, nil
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/octet-stream", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read request body: %w", err)
		}
		return data, "application/octet-stream", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request: %w", err)
		}
		return data, "application/json", nil
	}
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// endpointLabel replaces numeric path segments with {id} to bound metric cardinality.
func endpointLabel(p string) string {
	for numericSegment.MatchString(p) {
		p = numericSegment.ReplaceAllString(p, "/{id}$1")
	}
	return p
}

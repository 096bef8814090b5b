package webhookrecv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/ratelimit"
	"github.com/fodqa/fod-regression/pkg/system"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

// maxBodySize bounds a captured delivery body.
const maxBodySize = 1 << 20

// eventHeaders are checked in order for the event name of a delivery.
var eventHeaders = []string{"X-Event-Type", "X-Fod-Event", "X-Webhook-Event"}

// Delivery is one captured webhook call.
type Delivery struct {
	Name       string            `json:"name"`
	Event      string            `json:"event,omitempty"`
	Headers    map[string]string `json:"headers"`
	Body       json.RawMessage   `json:"body,omitempty"`
	RawBody    string            `json:"rawBody,omitempty"`
	ReceivedAt time.Time         `json:"receivedAt"`
}

// Server captures deliveries in memory.
type Server struct {
	cfg     config.Receiver
	log     *zap.SugaredLogger
	engine  *gin.Engine
	limiter *ratelimit.KeyedLimiter

	mu         sync.RWMutex
	deliveries []Delivery

	srv  *http.Server
	addr string
}

func New(cfg config.Receiver, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	gin.SetMode(gin.ReleaseMode)

	limits := ratelimit.DefaultReceiverConfig()
	if cfg.Rate != 0 {
		limits.Rate = cfg.Rate
	}
	if cfg.Burst > 0 {
		limits.Burst = cfg.Burst
	}

	s := &Server{
		cfg:     cfg,
		log:     log.With("component", "webhookrecv"),
		engine:  gin.New(),
		limiter: ratelimit.New(limits),
	}
	s.engine.Use(
		ginzap.Ginzap(log.Desugar(), time.RFC3339, true),
		ginzap.RecoveryWithZap(log.Desugar(), true),
		s.requestLogger(),
	)
	if len(cfg.AllowOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	if cfg.ArtifactsDir != "" {
		s.engine.Use(static.Serve("/artifacts", static.LocalFile(cfg.ArtifactsDir, true)))
	}
	s.engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	hooks := s.engine.Group("/hooks", s.limiter.Middleware())
	hooks.POST("/:name", s.receive)

	s.engine.GET("/deliveries", s.list)
	s.engine.DELETE("/deliveries", s.clear)
	return s
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(system.ReqLoggerKey, s.log.With("path", c.FullPath(), "client", c.ClientIP()))
		c.Next()
	}
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) receive(c *gin.Context) {
	log := system.GetReqLogger(c, s.log)
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(raw) > maxBodySize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
		return
	}

	d := Delivery{
		Name:       c.Param("name"),
		Event:      eventName(c.Request.Header),
		Headers:    make(map[string]string, len(c.Request.Header)),
		ReceivedAt: time.Now().UTC(),
	}
	for k, v := range c.Request.Header {
		d.Headers[k] = strings.Join(v, ", ")
	}
	if json.Valid(raw) {
		d.Body = raw
	} else {
		d.RawBody = string(raw)
	}

	s.mu.Lock()
	s.deliveries = append(s.deliveries, d)
	s.mu.Unlock()

	metrics.WebhookDeliveries.WithLabelValues(d.Name, d.Event).Inc()
	log.Infow("Captured webhook delivery", "hook", d.Name, "event", d.Event, "bytes", len(raw))
	c.JSON(http.StatusAccepted, gin.H{"received": d.ReceivedAt})
}

func eventName(h http.Header) string {
	for _, k := range eventHeaders {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) list(c *gin.Context) {
	c.JSON(http.StatusOK, s.Deliveries(c.Query("name")))
}

func (s *Server) clear(c *gin.Context) {
	s.Reset()
	c.Status(http.StatusNoContent)
}

// Deliveries returns the captured deliveries for hook name in arrival order;
// an empty name returns all of them.
func (s *Server) Deliveries(name string) []Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		if name == "" || d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// Reset drops all captured deliveries.
func (s *Server) Reset() {
	s.mu.Lock()
	s.deliveries = nil
	s.mu.Unlock()
}

// WaitForDelivery polls until hook name received a delivery and returns the
// first one.
func (s *Server) WaitForDelivery(ctx context.Context, name string, timeout time.Duration) (Delivery, error) {
	// keep the delivery seen by the poll; a Reset may empty the store before
	// the wait returns
	var first Delivery
	_, err := waitutil.WaitFor(ctx, waitutil.DoesNotEqual, 0, func() (int, error) {
		got := s.Deliveries(name)
		if len(got) > 0 {
			first = got[0]
		}
		return len(got), nil
	}, timeout, true, waitutil.WithInterval(250*time.Millisecond))
	if err != nil {
		return Delivery{}, fmt.Errorf("webhook delivery for %s: %w", name, err)
	}
	return first, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	addr := s.cfg.ListenAddress
	if addr == "" {
		addr = ":8089"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("webhook receiver listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr().String()
	s.srv = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infow("Webhook receiver listening", "address", s.addr, "publicURL", s.cfg.PublicURL)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("Webhook receiver stopped", "error", err)
		}
	}()
	return nil
}

// Addr is the bound listen address once started.
func (s *Server) Addr() string { return s.addr }

// URL is the address the product should post hook name to.
func (s *Server) URL(name string) string {
	base := strings.TrimSuffix(s.cfg.PublicURL, "/")
	if base == "" {
		base = "http://" + s.addr
	}
	return base + "/hooks/" + name
}

// Shutdown stops the server and its limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if s.srv == nil {
		return nil
	}
	s.log.Info("Shutting down webhook receiver")
	return s.srv.Shutdown(ctx)
}

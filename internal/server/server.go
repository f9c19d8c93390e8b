// Package server exposes the public certificate verification endpoint.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/store"
)

const (
	DefaultAddr  = "127.0.0.1:8080"
	DefaultRate  = 5.0
	DefaultBurst = 10

	limiterIdleTTL  = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Verifier looks up an issued certificate by its public code.
type Verifier interface {
	Verify(ctx context.Context, code string) (*model.Certificate, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	Rate           float64 // requests per second per client IP; <= 0 disables limiting
	Burst          int
	AllowedOrigins []string
}

// CertificateView is the JSON shape returned by the verify endpoint.
type CertificateView struct {
	Code            string    `json:"certificate_code"`
	UserName        string    `json:"user_name"`
	NetWPM          int       `json:"wpm"`
	Accuracy        float64   `json:"accuracy"`
	DurationSeconds int       `json:"test_duration"`
	IssuedAt        time.Time `json:"issued_at"`
}

type verifyResponse struct {
	Certificate CertificateView `json:"certificate"`
}

// Server serves certificate verification over HTTP.
type Server struct {
	verifier Verifier
	log      logrus.FieldLogger
	opts     Options
	engine   *gin.Engine
	limiters *limiterSet
}

// New builds a Server with routes and middleware installed.
func New(v Verifier, log logrus.FieldLogger, opts Options) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		verifier: v,
		log:      log,
		opts:     opts,
		engine:   gin.New(),
	}
	if opts.Rate > 0 {
		s.limiters = newLimiterSet(rate.Limit(opts.Rate), opts.Burst)
	}
	s.routes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestIDMiddleware())
	s.engine.Use(s.logMiddleware())
	s.engine.Use(corsMiddleware(s.opts.AllowedOrigins))

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	if s.limiters != nil {
		api.Use(s.rateLimitMiddleware())
	}
	api.GET("/verify/:code", s.handleVerify)
}

func (s *Server) handleVerify(c *gin.Context) {
	code := c.Param("code")
	cert, err := s.verifier.Verify(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Certificate not found"})
			return
		}
		s.log.WithFields(logrus.Fields{
			"code":       code,
			"request_id": c.GetString("request_id"),
		}).WithError(err).Error("verify certificate")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, verifyResponse{Certificate: viewOf(*cert)})
}

func viewOf(cert model.Certificate) CertificateView {
	return CertificateView{
		Code:            cert.Code,
		UserName:        cert.UserName,
		NetWPM:          cert.NetWPM,
		Accuracy:        cert.Accuracy,
		DurationSeconds: cert.DurationSeconds,
		IssuedAt:        cert.IssuedAt.UTC(),
	}
}

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.opts.Addr).Info("verification server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if s.limiters != nil {
		go s.limiters.sweep(ctx, limiterIdleTTL)
	}

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down verification server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)
		c.Next()
	}
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"client_ip":  c.ClientIP(),
			"duration":   time.Since(start),
			"request_id": c.GetString("request_id"),
		}).Debug("request")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cleaned = nil
			break
		}
		if origin != "" {
			cleaned = append(cleaned, origin)
		}
	}
	if !cfg.AllowAllOrigins {
		if len(cleaned) == 0 {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = cleaned
		}
	}
	return cors.New(cfg)
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiters.get(clientKey(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
			return host
		}
		return c.Request.RemoteAddr
	}
	return ip
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet keeps one token bucket per client.
type limiterSet struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

func (l *limiterSet) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = l.now()
	return entry.limiter
}

func (l *limiterSet) prune(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-ttl)
	removed := 0
	for key, entry := range l.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

func (l *limiterSet) sweep(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.prune(ttl)
		}
	}
}

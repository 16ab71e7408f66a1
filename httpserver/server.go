package httpserver

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isdmx/coderun/config"
	"github.com/isdmx/coderun/sandbox"
)

// maxBodyBytes caps the size of a /run request body.
const maxBodyBytes = 1 << 20

//go:embed static/index.html
var indexHTML []byte

// Server is the HTTP front end of the sandbox.
type Server struct {
	config *config.Config
	logger *zap.Logger
	runner *sandbox.Runner
	engine *gin.Engine
	http   *http.Server
}

// New creates a Server with its routes registered.
func New(cfg *config.Config, logger *zap.Logger, runner *sandbox.Runner) *Server {
	if cfg.Logging.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		logger: logger,
		runner: runner,
		engine: gin.New(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.engine

	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(corsConfig(s.config.Server.CORSOrigins)))

	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)
	r.POST("/run", limitBody(maxBodyBytes), s.handleRun)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the configured port and serves in the background.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Server.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown waits for in-flight runs, which are bounded by the sandbox timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

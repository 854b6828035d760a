package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"texthighlight/internal/history"
	"texthighlight/internal/logging"
	"texthighlight/internal/pipeline"
)

// Runner executes alignment requests.
type Runner interface {
	Run(ctx context.Context, text, audioPath string) pipeline.Run
}

// HistoryReader serves recorded runs.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (*history.Entry, error)
}

// Options configures the server.
type Options struct {
	Bind         string
	MaxBodyBytes int64
	// Model is reported by the health endpoint.
	Model string
}

// Server hosts the HTTP API.
type Server struct {
	opts     Options
	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// NewServer builds the gin engine and routes. history may be nil.
func NewServer(opts Options, runner Runner, hist HistoryReader, logger *slog.Logger) *Server {
	logger = logging.NewComponentLogger(logger, "api")
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(maxBodySize(opts.MaxBodyBytes))
	engine.Use(corsMiddleware())

	api := &handlers{runner: runner, history: hist, model: opts.Model, logger: logger}
	registerRoutes(engine, api)

	return &Server{
		opts:   opts,
		engine: engine,
		logger: logger,
		server: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.opts.Bind
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

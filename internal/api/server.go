package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"quantsim/internal/engine"
	"quantsim/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, rec *repository.RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]repository.RunRecord, error)
	GetRun(ctx context.Context, id int64) (*repository.RunRecord, error)
}

// Server exposes backtests over HTTP.
type Server struct {
	source         engine.MarketDataSource
	runs           RunStore
	recorder       engine.Recorder
	log            zerolog.Logger
	allowedOrigins []string
	maxParallel    int

	router *gin.Engine
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

func WithRecorder(r engine.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithAllowedOrigins sets the CORS origins. Empty allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithMaxParallel bounds the runs of one compare request.
func WithMaxParallel(n int) Option {
	return func(s *Server) { s.maxParallel = n }
}

func NewServer(source engine.MarketDataSource, runs RunStore, opts ...Option) *Server {
	s := &Server{
		source:      source,
		runs:        runs,
		log:         zerolog.Nop(),
		maxParallel: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.log))
	router.Use(errorHandler(s.log))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/backtests", s.runBacktest)
		api.POST("/backtests/compare", s.compareBacktests)
		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
	}
	return router
}

// Handler returns the router wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("api server shutting down")
	return srv.Shutdown(shutdownCtx)
}

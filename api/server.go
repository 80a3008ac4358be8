// Package api serves the estimator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"apartment-estimator/apperrors"
	"apartment-estimator/models"
	"apartment-estimator/services"
	"apartment-estimator/utils"
)

// Reloader retrains the pipeline from the configured corpus source.
type Reloader func(ctx context.Context) (models.EvaluationReport, error)

// Options configures the HTTP surface.
type Options struct {
	Addr            string
	CORSOrigins     []string
	RateLimitPerMin int
	ShutdownTimeout time.Duration
}

// Server exposes a Pipeline over HTTP.
type Server struct {
	opts     Options
	pipeline *services.Pipeline
	reload   Reloader
	logger   *utils.Logger
	engine   *gin.Engine
	limiter  *ipRateLimiter
}

// NewServer builds the router. reload may be nil, in which case refresh
// requests are rejected.
func NewServer(opts Options, pipeline *services.Pipeline, reload Reloader, logger *utils.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		opts:     opts,
		pipeline: pipeline,
		reload:   reload,
		logger:   logger,
		limiter:  newIPRateLimiter(opts.RateLimitPerMin),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(apperrors.RecoveryHandler(s.logger))
	r.Use(apperrors.ErrorHandler(s.logger))
	r.Use(requestLogger(s.logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	if len(s.opts.CORSOrigins) == 0 || (len(s.opts.CORSOrigins) == 1 && s.opts.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.opts.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.Use(s.limiter.Middleware())
	api.GET("/model", s.handleModel)
	api.GET("/vocabulary", s.handleVocabulary)
	api.GET("/floors", s.handleFloors)
	api.POST("/estimate", s.handleEstimate)
	api.POST("/model/refresh", s.handleRefresh)

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.limiter.runCleanup(ctx, visitorCleanupInterval, visitorIdleTTL, s.logger)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] Listening on %s", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[api] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

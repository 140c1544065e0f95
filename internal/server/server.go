// Package server exposes the reconstruction engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/njchilds90/antideriv"
	"github.com/njchilds90/antideriv/internal/config"
)

// Version is reported by /health.
const Version = "0.1.0"

var registerValidations sync.Once

// Server wires the engine to gin routes.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *antideriv.Engine
	router *gin.Engine
}

// New builds a Server. The engine reports stage metrics to Prometheus.
func New(cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	registerValidations.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterStructValidation(validateInterval, ReconstructRequest{})
		}
	})

	s := &Server{
		cfg: cfg,
		log: log,
		engine: antideriv.New(
			antideriv.WithLogger(log.Named("engine")),
			antideriv.WithIntegrateTimeout(cfg.GetIntegrateTimeout()),
			antideriv.WithSolveTimeout(cfg.GetSolveTimeout()),
			antideriv.WithRootTimeout(cfg.GetRootTimeout()),
			antideriv.WithObserver(promObserver{}),
		),
	}

	r := gin.New()
	r.Use(requestID(), recovery(log), accessLog(log), limitBody(cfg.Server.MaxBodyBytes))
	RegisterRoutes(r, NewHandlers(s))
	s.router = r
	return s
}

// RegisterRoutes mounts every endpoint on r.
func RegisterRoutes(r *gin.Engine, h *Handlers) {
	v1 := r.Group("/v1")
	v1.POST("/reconstruct", h.HandleReconstruct)
	v1.POST("/plot", h.HandlePlot)

	r.POST("/tool", h.HandleTool)
	r.GET("/schema", h.HandleSchema)
	r.GET("/health", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

// Server wraps the standard http.Server with graceful shutdown.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger
}

// NewServer builds a Server from the server config and a router.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.NewValidation("server requires a handler")
	}
	if logger == nil {
		return nil, errors.NewValidation("server requires a logger")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.NewValidation(fmt.Sprintf("invalid server port %d", cfg.Port))
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.  It blocks
// and returns the first serve error, or nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logging.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "http server failed")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down",
		logging.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "http server shutdown failed")
	}
	return nil
}

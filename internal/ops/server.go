package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/parejaapp/pareja-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Server runs the ops HTTP listener until its context is cancelled.
type Server struct {
	logg   *logger.Logger
	server *http.Server
}

func NewServer(logg *logger.Logger, port string, handler http.Handler) (*Server, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if port == "" {
		return nil, fmt.Errorf("port required")
	}
	return &Server{
		logg: logg,
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Run serves until ctx is done, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logg.Info(s.logg.WithField(ctx, "addr", s.server.Addr), "ops server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return ctx.Err()
}

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Service runs a Server under a suture supervisor.
type Service struct {
	server          *Server
	shutdownTimeout time.Duration
}

// NewService wraps server. Connections are drained for at most
// shutdownTimeout once the supervisor context is canceled.
func NewService(server *Server, shutdownTimeout time.Duration) *Service {
	return &Service{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. It blocks until ctx is canceled or the
// listener fails.
func (s *Service) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.server.logger.Info("http server draining", "timeout", s.shutdownTimeout)
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *Service) String() string { return "http-server" }

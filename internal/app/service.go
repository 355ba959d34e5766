package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/audit"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/config"
	apphttp "github.com/MatthewTaormina/Gemini-Web-UI/internal/http"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/repository/postgres"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/storage"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/tokenstore"
	"github.com/rs/zerolog"
)

const (
	errServerFmt          = "server error: %w"
	urlCachePruneInterval = 5 * time.Minute
)

// Service owns the HTTP server and the resources it depends on.
type Service struct {
	config  *config.Config
	db      *postgres.DB
	backend *tokenBackend
	tokens  *tokenstore.Store
	files   *storage.Service
	audit   *audit.Logger
	server  *apphttp.Server
	log     zerolog.Logger
}

// NewService is a convenience wrapper around InitializeService.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	return InitializeService(ctx, cfg)
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
// gracefully and releases every resource.
func (s *Service) Run(ctx context.Context) error {
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	cleanupDone := s.tokens.StartCleanupRoutine(cleanupCtx, s.config.Auth.CleanupInterval)
	pruneDone := s.startURLCachePruning(cleanupCtx)

	serverErr := make(chan error, 1)
	go func() {
		address := ":" + s.config.Server.Port
		s.log.Info().Str("address", address).Msg("starting server")
		if err := s.server.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutdown requested")
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf(errServerFmt, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}

	stopCleanup()
	<-cleanupDone
	<-pruneDone

	// Pending audit writes need the database, so drain them before closing it.
	s.audit.Wait()

	s.close()
	s.log.Info().Msg("server stopped")
	return runErr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// startURLCachePruning clears expired presigned links until ctx is done.
func (s *Service) startURLCachePruning(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(urlCachePruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := s.files.PruneURLCache(); n > 0 {
					s.log.Debug().Int("count", n).Msg("pruned presigned url cache")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}

func (s *Service) close() {
	closeAll(s.backend, s.db)
}

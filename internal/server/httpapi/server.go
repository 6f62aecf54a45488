// Package httpapi exposes the LastPing service over a JSON HTTP API consumed
// by the browser client. Routes live under /api/v1; everything past login
// requires a Bearer access token.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lastping/internal/logging"
	"github.com/dmitrijs2005/lastping/internal/server/services"
)

type Server struct {
	address   string
	logger    logging.Logger
	auth      *services.AuthService
	accounts  *services.AccountService
	ledger    *services.LedgerService
	snapshots *services.SnapshotService
}

func NewServer(address string, logger logging.Logger, auth *services.AuthService,
	accounts *services.AccountService, ledger *services.LedgerService,
	snapshots *services.SnapshotService) *Server {
	return &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		auth:      auth,
		accounts:  accounts,
		ledger:    ledger,
		snapshots: snapshots,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Handler:      s.Router(),
		Addr:         s.address,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

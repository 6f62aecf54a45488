// Package server assembles and runs the LastPing service: it selects the
// storage backend, wires the services, and starts the HTTP API with graceful
// shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/lastping/internal/logging"
	"github.com/dmitrijs2005/lastping/internal/server/config"
	"github.com/dmitrijs2005/lastping/internal/server/httpapi"
	"github.com/dmitrijs2005/lastping/internal/server/locks"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lastping/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rm     repomanager.RepositoryManager
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	var db *sql.DB
	var rm repomanager.RepositoryManager

	if c.DatabaseDSN == "" {
		rm = repomanager.NewMemoryRepositoryManager()
	} else {
		var err error
		db, err = sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
	}

	accountLocks := locks.NewAccountLocks()

	authService := services.NewAuthService(rm, db, []byte(c.SecretKey),
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, c.ChallengeValidityDuration)
	accountService := services.NewAccountService(rm, db, accountLocks)
	ledgerService := services.NewLedgerService(rm, db, accountLocks)
	snapshotService := services.NewSnapshotService(rm, db, c)

	server := httpapi.NewServer(c.EndpointAddrHTTP, logger,
		authService, accountService, ledgerService, snapshotService)

	return &App{config: c, logger: logger, db: db, rm: rm, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if app.db != nil {
		defer app.db.Close()
	}

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}

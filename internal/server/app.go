// Package server initializes and runs the application server.
// It opens the database, runs migrations, builds the root-key cipher and the
// secret service, and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orgvault/orgvault/internal/logging"
	"github.com/orgvault/orgvault/internal/server/api"
	"github.com/orgvault/orgvault/internal/server/config"
	"github.com/orgvault/orgvault/internal/server/kms"
	"github.com/orgvault/orgvault/internal/server/repositories/repomanager"
	"github.com/orgvault/orgvault/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rm     repomanager.RepositoryManager
	server *api.Server
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	cipher, err := buildRootKeyCipher(c)
	if err != nil {
		return nil, fmt.Errorf("root key init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	ss := services.NewSecretService(db, rm, cipher, logger)
	srv := api.NewServer(ss, []byte(c.SecretKey), logger)

	return &App{config: c, logger: logger, db: db, rm: rm, server: srv}, nil
}

// buildRootKeyCipher prefers an explicit hex key and falls back to
// passphrase derivation.
func buildRootKeyCipher(c *config.Config) (kms.RootKeyCipher, error) {
	if c.RootKeyHex != "" {
		return kms.NewFromHex(c.RootKeyHex)
	}
	return kms.NewFromPassphrase([]byte(c.RootKeyPassphrase), []byte(c.RootKeySalt))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	httpServer := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http server shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migration error", "error", err)
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

// Package server initializes and runs the application server: it opens the
// index database, runs migrations, materializes the account pool, and serves
// the HTTP endpoint until shutdown.
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
	"time"

	"github.com/drivepool/drivepool/internal/logging"
	"github.com/drivepool/drivepool/internal/retryx"
	"github.com/drivepool/drivepool/internal/server/config"
	"github.com/drivepool/drivepool/internal/server/httpapi"
	"github.com/drivepool/drivepool/internal/server/pool"
	"github.com/drivepool/drivepool/internal/server/repositories/repomanager"
	"github.com/drivepool/drivepool/internal/server/services"
)

// dbConnectAttempts bounds the startup connect/ping loop.
const dbConnectAttempts = 5

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *services.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// Transient store-connection failures at boot get bounded backoff.
	err = retryx.Do(ctx, dbConnectAttempts, 1*time.Second, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	p, err := pool.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("pool init error: %w", err)
	}

	service := services.NewService(db, rm, p, c, logger)

	return &App{config: c, logger: logger, db: db, service: service}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddr, []byte(app.config.SecretKey), app.service, app.logger)

	app.logger.Info(ctx, "serving", "addr", app.config.EndpointAddr)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

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

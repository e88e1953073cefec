// Package server initializes and runs the application server: database and
// migrations, blob storage, services, and the HTTP endpoint carrying the REST
// API and the sync websocket. Shutdown is signal-driven and graceful.
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
	"syscall"
	"time"

	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/blob"
	"github.com/dmitrijs2005/daybook/internal/server/config"
	"github.com/dmitrijs2005/daybook/internal/server/httpapi"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/daybook/internal/server/services"
	"github.com/dmitrijs2005/daybook/internal/server/syncws"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	userService := services.NewUserService(db, rm, cfg)
	entryService := services.NewEntryService(db, rm)
	assetService := services.NewAssetService(db, rm, blobs, logger)

	hub := syncws.NewHub(entryService, logger)
	assetHandler := httpapi.NewAssetHandler(assetService, config.MaxUploadBytes, logger)
	authHandler := httpapi.NewAuthHandler(userService, logger)
	router := httpapi.NewRouter(assetHandler, authHandler, hub, []byte(cfg.SecretKey), logger)

	return &App{config: cfg, logger: logger, db: db, router: router}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		return blob.NewS3Store(ctx, blob.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case "local", "":
		return blob.NewLocalStore(cfg.AssetsDir)
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.BlobBackend)
	}
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

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	server := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "Shutting down...")
	case err := <-errCh:
		app.logger.Error(ctx, "http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

// Command anki-server starts the remote store: an HTTP JSON API backed by
// PostgreSQL that holds each account's snapshot for sync.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Antoine-savt/anki-antoine/internal/config"
	"github.com/Antoine-savt/anki-antoine/internal/migrate"
	"github.com/Antoine-savt/anki-antoine/internal/repository/postgres"
	"github.com/Antoine-savt/anki-antoine/internal/server/httpapi"
	"github.com/Antoine-savt/anki-antoine/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	fs := flag.NewFlagSet("anki-server", flag.ExitOnError)
	config.ServerFlags(fs)
	_ = fs.Parse(os.Args[1:])

	logger := newLogger(fs)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadServer(fs)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	snapshotRepo := postgres.NewSnapshotRepo(db)
	snapshotSvc := service.NewSnapshotService(snapshotRepo)

	handler := httpapi.NewHandler(snapshotSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.AllowOrigins)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

func newLogger(fs *flag.FlagSet) *zap.Logger {
	level, _ := fs.GetString("log_level")
	cfg := zap.NewProductionConfig()
	if level != "" {
		if lvl, err := zap.ParseAtomicLevel(level); err == nil {
			cfg.Level = lvl
		}
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

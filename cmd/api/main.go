package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookrecords/internal/book"
	"bookrecords/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore := mustOpenStore(ctx, cfg, logger)
	defer closeStore()

	bookHandler := book.NewHTTPHandler(book.NewService(repo), logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newRouter(bookHandler, repo.Ping, cfg, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.Addr, "store", cfg.StoreDriver, "env", cfg.Env)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func mustOpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (book.Repository, func()) {
	if cfg.StoreDriver == config.DriverSQLite {
		repo, err := book.OpenSQLite(ctx, cfg.SQLitePath, cfg.DBTimeout, logger)
		if err != nil {
			log.Fatalf("cannot open sqlite store: %v", err)
		}
		logger.Info("sqlite store ready", "path", cfg.SQLitePath)
		return repo, func() { _ = repo.Close() }
	}

	pool := mustOpenDB(ctx, cfg.DSN(), logger)
	return book.NewPostgresRepo(pool, cfg.DBTimeout, logger), pool.Close
}

func mustOpenDB(ctx context.Context, dsn string, logger *slog.Logger) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", config.RedactDSN(dsn), err)
	}
	logger.Info("database connection OK", "dsn", config.RedactDSN(dsn))
	return pool
}

// solvebot - conversational front end for the numerical ODE solver.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/solvebot/internal/api"
	"github.com/ashureev/solvebot/internal/config"
	"github.com/ashureev/solvebot/internal/dialog"
	"github.com/ashureev/solvebot/internal/i18n"
	"github.com/ashureev/solvebot/internal/solver"
	"github.com/ashureev/solvebot/internal/store"
	"github.com/ashureev/solvebot/internal/transport"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting bot", "port", cfg.Port)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	texts, err := i18n.Load()
	if err != nil {
		slog.Error("Failed to load translations", "error", err)
		os.Exit(1)
	}

	gateway, err := solver.NewClient(solver.Config{
		BaseURL:           cfg.Solver.BaseURL,
		RequestTimeout:    cfg.Solver.RequestTimeout,
		PollInterval:      cfg.Solver.PollInterval,
		CompletionTimeout: cfg.Solver.CompletionTimeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize solver client", "error", err)
		os.Exit(1)
	}

	chat, err := transport.NewClient(transport.Config{
		BaseURL:        cfg.Chat.BaseURL,
		Token:          cfg.Chat.Token,
		RequestTimeout: cfg.Chat.RequestTimeout,
		MediaTimeout:   cfg.Chat.MediaTimeout,
		PollTimeout:    cfg.Chat.PollTimeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize chat client", "error", err)
		os.Exit(1)
	}

	engine := dialog.NewEngine(repo, gateway, chat, texts, logger)
	poller := transport.NewPoller(chat, engine, logger)

	// Setup router for the health endpoints.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	api.NewHealthHandler(repo).RegisterHealth(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("Update poller started")
		if err := poller.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}

	// Let in-flight solve completions finish before closing the store.
	engine.Wait()

	slog.Info("Server stopped successfully")
}

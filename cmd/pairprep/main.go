package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/pairprep/pairprep/internal/adapter/cache"
	"github.com/pairprep/pairprep/internal/adapter/fsm"
	"github.com/pairprep/pairprep/internal/adapter/otel"
	"github.com/pairprep/pairprep/internal/adapter/river"
	"github.com/pairprep/pairprep/internal/adapter/sqlite"
	"github.com/pairprep/pairprep/internal/app"
	"github.com/pairprep/pairprep/internal/config"

	handler "github.com/pairprep/pairprep/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("pairprep: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer store.Close()

	profiles := cache.New(otel.NewTracingProfileRepository(store.Profiles()))
	invitations := otel.NewTracingInvitationRepository(store.Invitations())

	riverClient, err := river.Setup(ctx, store.DB())
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	publisher := otel.NewTracingPublisher(river.NewPublisher(riverClient))

	// --- Application ---
	logger := slog.Default()
	pipeline := app.NewPipeline(profiles, invitations, profiles, publisher, logger)
	svc := app.NewWizardService(profiles, fsm.New(), pipeline, logger).
		WithQuietPeriod(cfg.QuietPeriod)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("pairprep", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("pairprep", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("pairprep listening on :%s", cfg.Port)
		log.Printf("API docs: http://localhost:%s/docs", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		log.Printf("river stop error: %v", err)
	}

	log.Println("stopped")
	return nil
}

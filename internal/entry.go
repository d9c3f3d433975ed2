// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/flyers"
	"github.com/starford/ansuz/internal/generate"
	"github.com/starford/ansuz/internal/mailer"
	"github.com/starford/ansuz/internal/newsletter"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("delivery_enabled", cfg.Mailer.DeliveryEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize SQLite store.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Content generation client.
	generator, err := generate.NewOpenAIClient(generate.Config{
		APIKey:  cfg.Generator.APIKey,
		Model:   cfg.Generator.Model,
		BaseURL: cfg.Generator.BaseURL,
		Timeout: cfg.Generator.Timeout,
	})
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}

	// Headless browser PDF renderer.
	renderer := render.NewChrome(render.Config{
		Timeout:       cfg.Renderer.Timeout,
		SettleDelay:   cfg.Renderer.SettleDelay,
		MaxConcurrent: int64(cfg.Renderer.MaxConcurrent),
	})

	// Email delivery is optional.
	var deliverer mailer.Deliverer
	if cfg.Mailer.DeliveryEnabled() {
		deliverer, err = mailer.NewResend(mailer.Config{
			APIKey:     cfg.Mailer.APIKey,
			From:       cfg.Mailer.From,
			SenderName: cfg.Mailer.SenderName,
			Timeout:    cfg.Mailer.Timeout,
		})
		if err != nil {
			return fmt.Errorf("init mailer: %w", err)
		}
	}

	// Flyer catalog is optional.
	var flyerLib *flyers.Library
	var flyerResolver newsletter.FlyerResolver
	if cfg.Flyers.Enabled() {
		flyerLib, err = flyers.NewLibrary(cfg.Flyers.Path, cfg.Flyers.BaseURL)
		if err != nil {
			return fmt.Errorf("init flyers: %w", err)
		}
		flyerResolver = flyerLib
	}

	// SSE broker for lifecycle events.
	broker := events.NewBroker()
	defer broker.Close()

	// Build newsletter service and router.
	svc := newsletter.NewService(newsletter.Deps{
		Store:             db,
		Generator:         generator,
		Renderer:          renderer,
		Deliverer:         deliverer,
		Flyers:            flyerResolver,
		Broker:            broker,
		Logger:            logger,
		StrictTransitions: cfg.Workflow.StrictTransitions,
	})
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Flyers.Path)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the flyer directory watcher.
	if flyerLib != nil {
		g.Go(func() error {
			if err := flyerLib.Watch(gCtx, logger); err != nil {
				logger.Warn("flyer watcher exited", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	novaroot "github.com/nova-hq/nova"
	"github.com/nova-hq/nova/internal/api"
	"github.com/nova-hq/nova/internal/config"
	"github.com/nova-hq/nova/internal/middleware"
	"github.com/nova-hq/nova/internal/notify"
	"github.com/nova-hq/nova/internal/repository"
	"github.com/nova-hq/nova/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(novaroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Optional Telegram ops alerts
	var alerter notify.Alerter
	if cfg.TelegramAlertsEnabled() {
		b, err := bot.New(cfg.TelegramBotToken)
		if err != nil {
			slog.Error("failed to create telegram bot", "error", err)
			os.Exit(1)
		}
		alerter = notify.NewTelegramAlerter(b, cfg.LogTelegramChatID)
		slog.Info("telegram ops alerts enabled", "chat_id", cfg.LogTelegramChatID)
	}

	sink := notify.NewSink(alerter)

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	integrationRepo := repository.NewIntegrationRepo(pool)

	// Initialize services
	openAI := service.NewOpenAIService(cfg.OpenAIKey, cfg.OpenAIURL, cfg.DefaultModel)
	chatService := service.NewChatService(sessionRepo, openAI, sink, cfg.DefaultModel)
	taskService := service.NewTaskService(taskRepo, sink)
	profileService := service.NewProfileService(profileRepo, sink)
	integrationHub := service.NewIntegrationHub(integrationRepo, sink)
	dashboardService := service.NewDashboardService(sessionRepo, taskRepo, integrationRepo, sink)
	previewService := service.NewLinkPreviewService()

	// Initialize handler
	h := api.New(api.Deps{
		Chat:         chatService,
		Tasks:        taskService,
		Profiles:     profileService,
		Integrations: integrationHub,
		Dashboard:    dashboardService,
		Previews:     previewService,
		Sink:         sink,
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging())
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{cfg.FrontendURL}))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.UserLoader(profileRepo))
		h.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: config.ReadTimeout,
		// No write timeout: message exchanges block on the completion
		// endpoint for up to config.RequestTimeout.
		WriteTimeout: 0,
		IdleTimeout:  config.IdleTimeout,
	}

	go func() {
		slog.Info("starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
}

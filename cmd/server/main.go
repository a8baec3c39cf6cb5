// NowGo-LLM - contextual persona chat server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/api"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/completion"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/config"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/convlog"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/middleware"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/orchestrator"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/persona"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/rpc"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
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

	slog.Info("Starting server", "port", cfg.Port, "grpc_port", cfg.GRPCPort, "store", cfg.StoreDriver, "provider", cfg.LLM.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.Open(cfg.StoreDriver, cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize context store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Context store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Context store ready", "driver", cfg.StoreDriver)

	if cfg.SeedDemoData {
		seeded, err := store.Seed(ctx, repo)
		if err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("Demo data seeded", "profiles_written", seeded)
	}

	completer, err := completion.New(ctx, completion.Config{
		Provider:     cfg.LLM.Provider,
		OpenAIAPIKey: cfg.LLM.OpenAIAPIKey,
		OpenAIURL:    cfg.LLM.OpenAIURL,
		GeminiAPIKey: cfg.LLM.GeminiAPIKey,
		Timeout:      cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	convLog, err := convlog.New(convlog.Config{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := convLog.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	registry := persona.NewRegistry(cfg.LLM.DefaultModel)
	orch := orchestrator.New(repo, registry, completer, orchestrator.Options{
		HistoryLimit:    cfg.HistoryLimit,
		ConversationLog: convLog,
		Logger:          logger,
	})

	// Initialize handlers.
	handler := api.NewHandler(orch, repo, completer, api.HandlerConfig{
		DefaultModel:   cfg.LLM.DefaultModel,
		MaxBodySize:    cfg.MaxRequestBodySize,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	handler.RegisterRoutes(r)

	// Create server.
	// Note: /ws/chat connections are long-lived, so there is no WriteTimeout.
	// Completion calls are bounded by LLM_TIMEOUT instead.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start gRPC server (optional).
	var grpcSrv *rpc.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("Failed to listen for gRPC", "port", cfg.GRPCPort, "error", err)
			os.Exit(1)
		}
		grpcSrv = rpc.NewServer(orch, logger)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

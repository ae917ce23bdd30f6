package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/emirozbir/clinic-insights/internal/agent"
	"github.com/emirozbir/clinic-insights/internal/api"
	"github.com/emirozbir/clinic-insights/internal/config"
	"github.com/emirozbir/clinic-insights/internal/database"
	"github.com/emirozbir/clinic-insights/internal/metrics"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load(os.Getenv("CLINIC_INSIGHTS_CONFIG"))
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting clinic-insights server",
		zap.String("version", "0.1.0"),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("database_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Database initialized", zap.String("driver", cfg.Database.Driver))

	// Initialize agent
	agentInstance, err := agent.NewAgent(cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to create agent", zap.Error(err))
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			logger.Fatal("Failed to register metrics", zap.Error(err))
		}
		gatherer = prometheus.DefaultGatherer
	}

	handler := api.NewHandler(agentInstance, store, logger)
	router := api.SetupRoutes(handler, gatherer, cfg.Metrics.Path)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

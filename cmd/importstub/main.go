package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/bulkimport/internal/api"
	"github.com/timmy/bulkimport/internal/api/handler"
	"github.com/timmy/bulkimport/internal/config"
	"github.com/timmy/bulkimport/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	failRate := flag.Float64("fail-rate", -1, "Probability of simulated 500 responses (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.GetDefault().WithError(err).Fatal("Failed to load config")
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "importstub",
		File:        cfg.Log.File,
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	rate := cfg.Stub.FailRate
	if *failRate >= 0 {
		rate = *failRate
	}
	if rate > 0 {
		logger.Warn("Simulating HTTP 500 on %.0f%% of import requests", rate*100)
	}

	router := api.SetupRouter(&api.RouterConfig{
		Mode:       cfg.Stub.Mode,
		Endpoint:   cfg.Importer.Endpoint,
		HealthPath: cfg.Importer.HealthPath,
		Import:     &handler.ImportHandlerConfig{FailRate: rate},
	}, appLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Stub.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":      cfg.Stub.Port,
			"mode":      cfg.Stub.Mode,
			"fail_rate": rate,
		}).Info("Starting import stub server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

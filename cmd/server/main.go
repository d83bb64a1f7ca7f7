package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/api"
	"github.com/andresuchdata/salesvelocity/internal/cache"
	"github.com/andresuchdata/salesvelocity/internal/config"
	"github.com/andresuchdata/salesvelocity/internal/service"
	"github.com/andresuchdata/salesvelocity/internal/storage"
	"github.com/andresuchdata/salesvelocity/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Configure(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	reportCfg := cfg.SalesVelocity()
	if err := reportCfg.Validate(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid report configuration")
	}

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Report cache unavailable, continuing without cache")
		reportCache = cache.NewNoopReportCache()
	}
	defer reportCache.Close()

	var store storage.ObjectStorage
	if cfg.StorageEnabled() {
		client, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, batch ingest disabled")
		} else {
			store = client
		}
	}

	// Initialize services
	services := &api.Services{
		ReportService: service.NewReportService(reportCfg, reportCache),
		BatchService: service.NewBatchService(reportCfg, store, service.BatchOptions{
			OutputDir:     filepath.Join(cfg.App.DataDir, "sales_velocity"),
			DownloadDir:   filepath.Join(cfg.App.DataDir, "incoming"),
			InputPrefix:   cfg.Storage.InputPrefix,
			PublishPrefix: cfg.Storage.OutputPrefix,
			Workers:       cfg.Pipeline.Workers,
		}),
	}

	// Initialize HTTP server
	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Bool("cache", cfg.Cache.Enabled).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

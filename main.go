package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"plantapp/common"
	"plantapp/config"
	"plantapp/handlers"
	"plantapp/metrics"
	"plantapp/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := common.ConfigureLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.WithError(err).Fatal("Invalid logging configuration")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	// Initialize the label service
	svc, release, err := service.Build(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize label service")
	}
	defer func() {
		if err := release(); err != nil {
			log.WithError(err).Warn("Failed to release vision resources")
		}
	}()

	// Setup HTTP server
	router := handlers.NewRouter(cfg, handlers.NewHandlers(svc, cfg.MaxUploadBytes))
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

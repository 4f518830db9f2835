package main

import (
	"commerce_server/api"
	"commerce_server/config"
	"commerce_server/database"
	"commerce_server/repository"
	"commerce_server/services"
	"commerce_server/structs"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var logger *gecho.Logger
var cfg *structs.Config

// init function to load environment variables and initialize logger and database
func init() {
	envErr := godotenv.Load()

	cfg = config.GetConfig()
	logger = config.InitializeLogger()

	if envErr != nil {
		logger.Warn("No .env file found or error loading .env file, proceeding with system environment variables")
	}

	structs.SetDisplayLocation(config.Location())

	if err := database.Initialize(); err != nil {
		logger.Fatal("Failed to initialize database", gecho.Field("error", err))
	}
}

func main() {
	db := database.GetInstance()
	redisClient := services.NewRedisClient(cfg.Cache)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB.DB, cfg.Database.Name),
	)

	sm := services.NewServiceManager(logger, cfg, repository.NewStore(db), db, redisClient, registry)

	server := &http.Server{
		Addr:           cfg.Server.Port,
		Handler:        api.App(cfg, sm, registry),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Setup graceful shutdown BEFORE starting the server
	done := setupGracefulShutdown(server, sm)

	logger.Info(fmt.Sprintf("Starting server (%s) on %s", cfg.Server.AppName, cfg.Server.Port))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", gecho.Field("error", err))
	}

	<-done
}

// setupGracefulShutdown drains in-flight requests on SIGINT or SIGTERM, then
// closes the database and cache. The returned channel is closed once done.
func setupGracefulShutdown(server *http.Server, sm *services.ServiceManager) <-chan struct{} {
	done := make(chan struct{})
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	logger.Info("Graceful shutdown handler initialized")

	go func() {
		defer close(done)

		sig := <-c
		logger.Info("Received shutdown signal", gecho.Field("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown did not complete", gecho.Field("error", err))
		}
		if err := sm.CacheService.Close(); err != nil {
			logger.Error("Failed to close cache", gecho.Field("error", err))
		}
		if err := database.CloseInstance(); err != nil {
			logger.Error("Failed to close database", gecho.Field("error", err))
		}

		logger.Info("Server stopped")
	}()

	return done
}

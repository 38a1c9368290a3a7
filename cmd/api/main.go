package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/button-commands/internal/config"
	"github.com/jwebster45206/button-commands/internal/cooldown"
	"github.com/jwebster45206/button-commands/internal/handlers"
	"github.com/jwebster45206/button-commands/internal/logger"
	"github.com/jwebster45206/button-commands/internal/middleware"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/internal/service"
	"github.com/jwebster45206/button-commands/internal/services/events"
	"github.com/jwebster45206/button-commands/internal/services/queue"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Button Commands API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"redis", cfg.UseRedis())

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	store, err := service.OpenStorage(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	components := map[string]handlers.Pinger{"storage": store}
	var listener *events.Listener
	opts := service.Options{
		Config: cfg,
		Store:  store,
		Logger: log,
	}

	// With Redis configured, commands and replies go to the outbox for the
	// host to drain. Without it they are only returned in the press response.
	if cfg.UseRedis() {
		queueClient, err := queue.NewClient(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to create queue client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := queueClient.Close(); err != nil {
				log.Error("Error closing queue client", "error", err)
			}
		}()

		outbox := queue.NewOutbox(queueClient)
		opts.Dispatcher = outbox
		opts.Replier = outbox
		opts.Broadcaster = events.NewBroadcaster(queueClient.GetRedisClient(), log)
		opts.Cooldowns = cooldown.NewRedisTracker(queueClient.GetRedisClient())
		listener = events.NewListener(queueClient.GetRedisClient(), log)
		components["redis"] = queueClient
	} else {
		sink := press.LogSink{Logger: log}
		opts.Dispatcher = sink
		opts.Replier = sink
	}

	svc, err := service.New(storageCtx, opts)
	if err != nil {
		log.Error("Failed to start service", "error", err)
		os.Exit(1)
	}

	// Other API replicas register and edit buttons too.
	followCtx, stopFollowing := context.WithCancel(context.Background())
	defer stopFollowing()
	if listener != nil {
		if _, err := svc.FollowChanges(followCtx, listener); err != nil {
			log.Error("Failed to follow registry changes", "error", err)
			os.Exit(1)
		}
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(components, svc.Registry.Len, log)
	mux.Handle("/health", healthHandler)

	pressHandler := handlers.NewPressHandler(svc, log)
	mux.Handle("/v1/press", pressHandler)

	buttonsHandler := handlers.NewButtonsHandler(svc, svc, log)
	mux.Handle("/v1/buttons", buttonsHandler)
	mux.Handle("/v1/buttons/", buttonsHandler)

	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		handler = middleware.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst), handler)
	}
	handler = middleware.Logger(log, handler)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr, "buttons", svc.Registry.Len())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := svc.Close(); err != nil {
		log.Error("Error closing service", "error", err)
	}

	log.Info("Server exited")
}

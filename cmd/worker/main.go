package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/button-commands/internal/config"
	"github.com/jwebster45206/button-commands/internal/cooldown"
	"github.com/jwebster45206/button-commands/internal/logger"
	"github.com/jwebster45206/button-commands/internal/service"
	"github.com/jwebster45206/button-commands/internal/services/events"
	"github.com/jwebster45206/button-commands/internal/services/queue"
	"github.com/jwebster45206/button-commands/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	if !cfg.UseRedis() {
		log.Error("The worker requires REDIS_URL")
		os.Exit(1)
	}

	log.Info("Starting Button Commands Worker",
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend)

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

	pressQueue := queue.NewPressQueue(queueClient)
	outbox := queue.NewOutbox(queueClient)
	log.Info("Queue service initialized successfully")

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	store, err := service.OpenStorage(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}

	svc, err := service.New(storageCtx, service.Options{
		Config:      cfg,
		Store:       store,
		Dispatcher:  outbox,
		Replier:     outbox,
		Broadcaster: events.NewBroadcaster(queueClient.GetRedisClient(), log),
		Cooldowns:   cooldown.NewRedisTracker(queueClient.GetRedisClient()),
		Logger:      log,
	})
	if err != nil {
		log.Error("Failed to start service", "error", err)
		os.Exit(1)
	}

	// Registrations and edits arrive through the API.
	followCtx, stopFollowing := context.WithCancel(context.Background())
	defer stopFollowing()
	following, err := svc.FollowChanges(followCtx, events.NewListener(queueClient.GetRedisClient(), log))
	if err != nil {
		log.Error("Failed to follow registry changes", "error", err)
		os.Exit(1)
	}

	w := worker.New(pressQueue, svc, queueClient.GetRedisClient(), log, os.Getenv("WORKER_ID"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	log.Info("Worker started, waiting for presses...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Worker did not finish in time")
	}

	stopFollowing()
	<-following

	if err := svc.Close(); err != nil {
		log.Error("Error closing service", "error", err)
	}

	log.Info("Worker exited")
}

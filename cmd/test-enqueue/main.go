package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jwebster45206/button-commands/internal/services/queue"
	"github.com/jwebster45206/button-commands/pkg/host"
	queuePkg "github.com/jwebster45206/button-commands/pkg/queue"
)

func main() {
	redisURL := flag.String("redis", "redis://localhost:6379", "Redis URL")
	buttonID := flag.Uint64("button", 1, "button id")
	playerID := flag.Uint64("player", 76561198000000001, "player id")
	name := flag.String("name", "test-player", "player display name")
	unpowered := flag.Bool("unpowered", false, "report the button as unpowered")
	count := flag.Int("n", 1, "number of presses to enqueue")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := queue.NewClient(*redisURL, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer client.Close()

	fmt.Println("Connected to Redis successfully!")

	ctx := context.Background()
	pq := queue.NewPressQueue(client)

	btn := host.ButtonSnapshot{ButtonID: *buttonID, Powered: !*unpowered}
	player := host.PlayerSnapshot{ID: *playerID, Name: *name, Pos: host.Vector3{X: 12.5, Y: 4, Z: -80}}

	for i := 0; i < *count; i++ {
		req := queuePkg.NewPressRequest(btn, player)
		if err := pq.Enqueue(ctx, req); err != nil {
			log.Fatal("Failed to enqueue press: ", err)
		}
		fmt.Printf("Enqueued press %s (button %d, player %d)\n", req.RequestID, btn.ButtonID, player.ID)
	}

	depth, err := pq.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth: ", err)
	}
	fmt.Printf("Press queue depth: %d\n", depth)

	ob := queue.NewOutbox(client)
	commands, replies, err := ob.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get outbox depth: ", err)
	}
	fmt.Printf("Outbox: %d commands, %d replies\n", commands, replies)
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// ConsoleConfig configures the operator console. The console plays the part
// of a game host: it reports presses for a simulated player and button.
type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	Player     host.PlayerSnapshot
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func main() {
	playerID, err := strconv.ParseUint(getEnv("PLAYER_ID", "76561198000000001"), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid PLAYER_ID: %v\n", err)
		os.Exit(1)
	}

	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
		Player: host.PlayerSnapshot{
			ID:   playerID,
			Name: getEnv("PLAYER_NAME", "Operator"),
			Lang: os.Getenv("PLAYER_LANG"),
		},
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

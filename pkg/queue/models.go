package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// Target says which console runs a command.
type Target string

const (
	// TargetPlayer: run through the pressing player's client console.
	TargetPlayer Target = "player"

	// TargetServer: run on the server console, not attributed to anyone.
	TargetServer Target = "server"
)

// PressRequest is a button press reported by a host that talks to the
// service through Redis instead of HTTP.
type PressRequest struct {
	RequestID  string              `json:"request_id"`
	Button     host.ButtonSnapshot `json:"button"`
	Player     host.PlayerSnapshot `json:"player"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
}

// NewPressRequest stamps a press with a fresh request id.
func NewPressRequest(btn host.ButtonSnapshot, player host.PlayerSnapshot) *PressRequest {
	return &PressRequest{
		RequestID:  uuid.New().String(),
		Button:     btn,
		Player:     player,
		EnqueuedAt: time.Now(),
	}
}

// ToJSON converts the request to JSON bytes for Redis
func (r *PressRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// PressRequestFromJSON parses a request from JSON bytes
func PressRequestFromJSON(data []byte) (*PressRequest, error) {
	var req PressRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// CommandEnvelope is a rendered command waiting for the host to execute it.
type CommandEnvelope struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	Target   Target    `json:"target"`
	PlayerID string    `json:"player_id"`
	Text     string    `json:"text"`
	Console  string    `json:"console"`
	IssuedAt time.Time `json:"issued_at"`
}

// ReplyEnvelope is a message waiting to be shown to a player.
type ReplyEnvelope struct {
	ID       uuid.UUID `json:"id"`
	PlayerID string    `json:"player_id"`
	Message  string    `json:"message"`
	IssuedAt time.Time `json:"issued_at"`
}

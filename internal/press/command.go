package press

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// Command is a rendered command ready for the host.
type Command struct {
	Type     button.CommandType `json:"type"`
	Text     string             `json:"text"`
	PlayerID string             `json:"player_id"`
}

// RunsAsPlayer reports whether the host must execute the command through
// the player's console rather than the server console.
func (c Command) RunsAsPlayer() bool {
	return c.Type == button.CommandTypeChat || c.Type == button.CommandTypeClient
}

// ConsoleLine is the console input that carries out the command. Chat lines
// are sent by having the player run chat.say.
func (c Command) ConsoleLine() string {
	if c.Type == button.CommandTypeChat {
		return `chat.say "` + strings.ReplaceAll(c.Text, `"`, `\"`) + `"`
	}
	return c.Text
}

// Dispatcher hands rendered commands to the host's command surface.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) error
}

// Replier sends a single line of feedback to a player.
type Replier interface {
	Reply(ctx context.Context, player host.Player, message string) error
}

// LogSink is a Dispatcher and Replier that only logs. Hosts talking to the
// HTTP bridge read commands from the press response, so nothing else is needed.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Dispatch(ctx context.Context, cmd Command) error {
	s.Logger.Debug("Command dispatched",
		"type", cmd.Type.String(),
		"player_id", cmd.PlayerID,
		"console", cmd.ConsoleLine())
	return nil
}

func (s LogSink) Reply(ctx context.Context, player host.Player, message string) error {
	s.Logger.Debug("Reply to player", "player_id", player.UserIDString(), "message", message)
	return nil
}

var (
	_ Dispatcher = LogSink{}
	_ Replier    = LogSink{}
)

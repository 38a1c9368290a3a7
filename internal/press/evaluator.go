package press

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jwebster45206/button-commands/internal/cooldown"
	"github.com/jwebster45206/button-commands/internal/lang"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/format"
	"github.com/jwebster45206/button-commands/pkg/grid"
	"github.com/jwebster45206/button-commands/pkg/host"
	"github.com/jwebster45206/button-commands/pkg/placeholder"
)

// Outcome is how a press was handled.
type Outcome string

const (
	// OutcomeIgnored: not our button, missing references, or unpowered.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeGated: cooldown still running; the player was told how long.
	OutcomeGated Outcome = "gated"
	// OutcomeDispatched: commands ran (possibly none, for an empty list).
	OutcomeDispatched Outcome = "dispatched"
)

// Result describes what a press did. SuppressOutput tells the host to skip the
// button's normal power output; Remaining is the cooldown left on a gated press.
type Result struct {
	Outcome          Outcome       `json:"outcome"`
	SuppressOutput   bool          `json:"suppress_output"`
	Commands         []Command     `json:"commands,omitempty"`
	Remaining        time.Duration `json:"-"`
	RemainingSeconds float64       `json:"remaining_seconds,omitempty"`
	Message          string        `json:"message,omitempty"`
}

// Lookup is the part of the registry the evaluator reads.
type Lookup interface {
	Get(id uint64) (button.Behavior, bool)
}

// Cooldowns gates repeat presses of a button by the same player. On ok the
// press is recorded; otherwise remaining is the time left.
type Cooldowns interface {
	Allow(ctx context.Context, buttonID, playerID uint64, cooldown time.Duration) (remaining time.Duration, ok bool, err error)
}

var (
	_ Cooldowns = (*cooldown.Tracker)(nil)
	_ Cooldowns = (*cooldown.RedisTracker)(nil)
)

// Publisher receives press notifications. Failures are logged only.
type Publisher interface {
	PublishButtonPressed(ctx context.Context, buttonID, playerID uint64, commands int, suppressOutput bool) error
	PublishPressGated(ctx context.Context, buttonID, playerID uint64, remaining time.Duration) error
}

// Deps are the collaborators of an Evaluator. Publisher and Labeler are
// optional. Intn returns a uniform value in [0, n) and defaults to math/rand/v2.
type Deps struct {
	Registry   Lookup
	Cooldowns  Cooldowns
	Dispatcher Dispatcher
	Replier    Replier
	Localizer  *lang.Localizer
	Labeler    grid.Labeler
	Publisher  Publisher
	Intn       func(n int) int
	Logger     *slog.Logger
}

// Evaluator decides what a button press does and carries it out.
type Evaluator struct {
	registry   Lookup
	cooldowns  Cooldowns
	dispatcher Dispatcher
	replier    Replier
	localizer  *lang.Localizer
	labeler    grid.Labeler
	publisher  Publisher
	intn       func(n int) int
	logger     *slog.Logger
}

func NewEvaluator(d Deps) *Evaluator {
	e := &Evaluator{
		registry:   d.Registry,
		cooldowns:  d.Cooldowns,
		dispatcher: d.Dispatcher,
		replier:    d.Replier,
		localizer:  d.Localizer,
		labeler:    d.Labeler,
		publisher:  d.Publisher,
		intn:       d.Intn,
		logger:     d.Logger,
	}
	if e.cooldowns == nil {
		e.cooldowns = cooldown.NewTracker(nil)
	}
	if e.intn == nil {
		e.intn = rand.IntN
	}
	if e.dispatcher == nil || e.replier == nil {
		sink := LogSink{Logger: d.Logger}
		if e.dispatcher == nil {
			e.dispatcher = sink
		}
		if e.replier == nil {
			e.replier = sink
		}
	}
	return e
}

// Cooldowns exposes the cooldown gate so the owner can reset it on shutdown.
func (e *Evaluator) Cooldowns() Cooldowns {
	return e.cooldowns
}

// Press handles one press of btn by player. The checks run in order and stop
// at the first that fails: references present, button registered, power
// (when required), cooldown (when configured). A failed cooldown check
// ignores the press.
func (e *Evaluator) Press(ctx context.Context, btn host.Button, player host.Player) Result {
	if btn == nil || player == nil {
		return Result{Outcome: OutcomeIgnored}
	}

	buttonID := btn.ID()
	behavior, ok := e.registry.Get(buttonID)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}

	// Unpowered presses are dropped without telling the player.
	if behavior.RequireButtonPowered && !btn.IsPowered() {
		e.logger.Debug("Press ignored, button unpowered", "button_id", buttonID, "player_id", player.UserID())
		return Result{Outcome: OutcomeIgnored}
	}

	remaining, ok, err := e.cooldowns.Allow(ctx, buttonID, player.UserID(), behavior.Cooldown())
	if err != nil {
		// Without a cooldown answer nothing runs.
		e.logger.Error("Press ignored, cooldown check failed",
			"button_id", buttonID,
			"player_id", player.UserID(),
			"error", err)
		return Result{Outcome: OutcomeIgnored}
	}
	if !ok {
		return e.gate(ctx, buttonID, player, remaining)
	}

	values := placeholder.ValuesFor(player, e.labeler)
	result := Result{
		Outcome:        OutcomeDispatched,
		SuppressOutput: behavior.DisablePowerOutputOnPress,
	}
	for _, tpl := range e.selectCommands(behavior) {
		cmd := Command{
			Type:     tpl.Type,
			Text:     placeholder.Render(tpl.Command, values),
			PlayerID: player.UserIDString(),
		}
		if err := e.dispatcher.Dispatch(ctx, cmd); err != nil {
			e.logger.Error("Failed to dispatch command",
				"button_id", buttonID,
				"player_id", player.UserID(),
				"type", cmd.Type.String(),
				"error", err)
			continue
		}
		result.Commands = append(result.Commands, cmd)
	}

	e.logger.Info("Button pressed",
		"button_id", buttonID,
		"player_id", player.UserID(),
		"commands", len(result.Commands),
		"suppress_output", result.SuppressOutput)

	if e.publisher != nil {
		if err := e.publisher.PublishButtonPressed(ctx, buttonID, player.UserID(), len(result.Commands), result.SuppressOutput); err != nil {
			e.logger.Error("Failed to publish press event", "button_id", buttonID, "error", err)
		}
	}
	return result
}

func (e *Evaluator) gate(ctx context.Context, buttonID uint64, player host.Player, remaining time.Duration) Result {
	msg := e.message(player, lang.ErrorCooldownActive, format.Duration(remaining.Seconds()))
	if msg != "" {
		if err := e.replier.Reply(ctx, player, msg); err != nil {
			e.logger.Error("Failed to reply to player", "player_id", player.UserID(), "error", err)
		}
	}

	e.logger.Debug("Press gated by cooldown",
		"button_id", buttonID,
		"player_id", player.UserID(),
		"remaining", remaining)

	if e.publisher != nil {
		if err := e.publisher.PublishPressGated(ctx, buttonID, player.UserID(), remaining); err != nil {
			e.logger.Error("Failed to publish gated event", "button_id", buttonID, "error", err)
		}
	}
	return Result{
		Outcome:          OutcomeGated,
		Remaining:        remaining,
		RemainingSeconds: remaining.Seconds(),
		Message:          msg,
	}
}

func (e *Evaluator) message(player host.Player, key string, args ...any) string {
	if e.localizer == nil {
		return ""
	}
	return e.localizer.Message(player, key, args...)
}

// selectCommands returns one random template when the behavior asks for it,
// otherwise every template in order.
func (e *Evaluator) selectCommands(b button.Behavior) []button.CommandTemplate {
	if b.RunRandomCommand && len(b.Commands) > 0 {
		i := e.intn(len(b.Commands))
		return b.Commands[i : i+1]
	}
	return b.Commands
}

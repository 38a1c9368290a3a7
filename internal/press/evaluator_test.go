package press

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/button-commands/internal/cooldown"
	"github.com/jwebster45206/button-commands/internal/lang"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup map[uint64]button.Behavior

func (m mapLookup) Get(id uint64) (button.Behavior, bool) {
	b, ok := m[id]
	return b, ok
}

type fixedLabel string

func (f fixedLabel) Label(host.Vector3) string { return string(f) }

type recordingPublisher struct {
	pressed []uint64
	gated   []time.Duration
}

func (p *recordingPublisher) PublishButtonPressed(ctx context.Context, buttonID, playerID uint64, commands int, suppress bool) error {
	p.pressed = append(p.pressed, buttonID)
	return nil
}

func (p *recordingPublisher) PublishPressGated(ctx context.Context, buttonID, playerID uint64, remaining time.Duration) error {
	p.gated = append(p.gated, remaining)
	return errors.New("publisher down")
}

type testClock struct{ now time.Duration }

func (c *testClock) read() time.Duration { return c.now }

type fixture struct {
	sink      *MockSink
	clock     *testClock
	tracker   *cooldown.Tracker
	publisher *recordingPublisher
	eval      *Evaluator
}

func newFixture(t *testing.T, behaviors mapLookup, intn func(int) int) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	f := &fixture{
		sink:      NewMockSink(),
		clock:     &testClock{},
		publisher: &recordingPublisher{},
	}
	f.tracker = cooldown.NewTracker(f.clock.read)
	f.eval = NewEvaluator(Deps{
		Registry:   behaviors,
		Cooldowns:  f.tracker,
		Dispatcher: f.sink,
		Replier:    f.sink,
		Localizer:  lang.New("en", logger),
		Labeler:    fixedLabel("K14"),
		Publisher:  f.publisher,
		Intn:       intn,
		Logger:     logger,
	})
	return f
}

func testPlayer() *host.PlayerSnapshot {
	return &host.PlayerSnapshot{ID: 76561198000000001, Name: "Ava", Pos: host.Vector3{X: 1.5, Y: 2, Z: -3}}
}

func powered(id uint64) *host.ButtonSnapshot   { return &host.ButtonSnapshot{ButtonID: id, Powered: true} }
func unpowered(id uint64) *host.ButtonSnapshot { return &host.ButtonSnapshot{ButtonID: id} }

func threeCommands() []button.CommandTemplate {
	return []button.CommandTemplate{
		{Type: button.CommandTypeChat, Command: "Hi {PlayerName}, you are at {Grid}"},
		{Type: button.CommandTypeServer, Command: "inventory.giveto {PlayerId} scrap 50"},
		{Type: button.CommandTypeClient, Command: "teleportpos {PositionX} {PositionY} {PositionZ}"},
	}
}

func TestPress_UnregisteredButtonIsIgnored(t *testing.T) {
	f := newFixture(t, mapLookup{}, nil)

	res := f.eval.Press(context.Background(), powered(1), testPlayer())

	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.False(t, res.SuppressOutput)
	assert.Empty(t, f.sink.DispatchCalls)
	assert.Empty(t, f.sink.ReplyCalls)
	assert.Empty(t, f.publisher.pressed)
}

func TestPress_MissingReferencesAreIgnored(t *testing.T) {
	f := newFixture(t, mapLookup{1: button.DefaultBehavior()}, nil)

	assert.Equal(t, OutcomeIgnored, f.eval.Press(context.Background(), nil, testPlayer()).Outcome)
	assert.Equal(t, OutcomeIgnored, f.eval.Press(context.Background(), powered(1), nil).Outcome)
	assert.Empty(t, f.sink.DispatchCalls)
	assert.Empty(t, f.sink.ReplyCalls)
}

func TestPress_UnpoweredButtonIsIgnoredSilently(t *testing.T) {
	b := button.Behavior{RequireButtonPowered: true, CooldownSeconds: 60, Commands: threeCommands()}
	f := newFixture(t, mapLookup{1: b}, nil)
	ctx := context.Background()

	res := f.eval.Press(ctx, unpowered(1), testPlayer())
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Empty(t, f.sink.DispatchCalls)
	assert.Empty(t, f.sink.ReplyCalls, "no message for an unpowered button")

	// The ignored press did not start a cooldown.
	res = f.eval.Press(ctx, powered(1), testPlayer())
	assert.Equal(t, OutcomeDispatched, res.Outcome)

	// Unpowered during an active cooldown is still silent.
	f.sink.Reset()
	res = f.eval.Press(ctx, unpowered(1), testPlayer())
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Empty(t, f.sink.ReplyCalls)
}

func TestPress_PowerNotRequired(t *testing.T) {
	f := newFixture(t, mapLookup{1: {Commands: threeCommands()}}, nil)

	res := f.eval.Press(context.Background(), unpowered(1), testPlayer())
	assert.Equal(t, OutcomeDispatched, res.Outcome)
	assert.Len(t, f.sink.DispatchCalls, 3)
}

func TestPress_RunsAllCommandsInOrderWithPlaceholders(t *testing.T) {
	b := button.Behavior{DisablePowerOutputOnPress: true, Commands: threeCommands()}
	f := newFixture(t, mapLookup{1: b}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.sink.Reset()
		res := f.eval.Press(ctx, powered(1), testPlayer())

		require.Equal(t, OutcomeDispatched, res.Outcome)
		assert.True(t, res.SuppressOutput)
		require.Len(t, f.sink.DispatchCalls, 3)
		assert.Equal(t, []Command{
			{Type: button.CommandTypeChat, Text: "Hi Ava, you are at K14", PlayerID: "76561198000000001"},
			{Type: button.CommandTypeServer, Text: "inventory.giveto 76561198000000001 scrap 50", PlayerID: "76561198000000001"},
			{Type: button.CommandTypeClient, Text: "teleportpos 1.5 2 -3", PlayerID: "76561198000000001"},
		}, f.sink.DispatchCalls)
		assert.Equal(t, f.sink.DispatchCalls, res.Commands)
	}
	assert.Len(t, f.publisher.pressed, 3)
}

func TestPress_SuppressOutputFollowsFlag(t *testing.T) {
	f := newFixture(t, mapLookup{1: {Commands: threeCommands()}}, nil)

	res := f.eval.Press(context.Background(), powered(1), testPlayer())
	assert.Equal(t, OutcomeDispatched, res.Outcome)
	assert.False(t, res.SuppressOutput)
}

func TestPress_EmptyCommandList(t *testing.T) {
	f := newFixture(t, mapLookup{
		1: {RunRandomCommand: true, DisablePowerOutputOnPress: true},
	}, func(int) int {
		t.Fatal("random pick must not happen for an empty list")
		return 0
	})

	res := f.eval.Press(context.Background(), powered(1), testPlayer())
	assert.Equal(t, OutcomeDispatched, res.Outcome)
	assert.Empty(t, res.Commands)
	assert.Empty(t, f.sink.DispatchCalls)
	assert.True(t, res.SuppressOutput)
}

func TestPress_RandomPicksExactlyOne(t *testing.T) {
	b := button.Behavior{RunRandomCommand: true, Commands: threeCommands()}
	f := newFixture(t, mapLookup{1: b}, func(n int) int {
		assert.Equal(t, 3, n)
		return 1
	})

	res := f.eval.Press(context.Background(), powered(1), testPlayer())
	require.Len(t, res.Commands, 1)
	assert.Equal(t, button.CommandTypeServer, res.Commands[0].Type)
}

func TestPress_RandomSelectsEveryTemplate(t *testing.T) {
	b := button.Behavior{RunRandomCommand: true, Commands: threeCommands()}
	f := newFixture(t, mapLookup{1: b}, nil)
	ctx := context.Background()

	seen := map[button.CommandType]int{}
	for i := 0; i < 600; i++ {
		res := f.eval.Press(ctx, powered(1), testPlayer())
		require.Len(t, res.Commands, 1)
		seen[res.Commands[0].Type]++
	}
	for _, tpl := range threeCommands() {
		assert.Positive(t, seen[tpl.Type], "template %s was never selected", tpl.Type)
	}
}

func TestPress_Cooldown(t *testing.T) {
	b := button.Behavior{CooldownSeconds: 60, Commands: threeCommands()[:1]}
	f := newFixture(t, mapLookup{1: b}, nil)
	ctx := context.Background()
	p := testPlayer()

	res := f.eval.Press(ctx, powered(1), p)
	require.Equal(t, OutcomeDispatched, res.Outcome, "first press has no prior timestamp")

	f.clock.now = 4500 * time.Millisecond
	res = f.eval.Press(ctx, powered(1), p)
	assert.Equal(t, OutcomeGated, res.Outcome)
	assert.Equal(t, 55500*time.Millisecond, res.Remaining)
	assert.Equal(t, 55.5, res.RemainingSeconds)
	assert.Equal(t, "You must wait 56s before using this button again.", res.Message)
	assert.Empty(t, res.Commands)
	require.Len(t, f.sink.ReplyCalls, 1)
	assert.Equal(t, ReplyCall{PlayerID: "76561198000000001", Message: res.Message}, f.sink.ReplyCalls[0])
	assert.Len(t, f.sink.DispatchCalls, 1, "gated press runs nothing")
	assert.Len(t, f.publisher.gated, 1)

	last, _ := f.tracker.LastPress(1, p.ID)
	assert.Equal(t, time.Duration(0), last, "gated press leaves the timestamp unchanged")

	// Another player is unaffected.
	other := &host.PlayerSnapshot{ID: 2, Name: "Bo"}
	assert.Equal(t, OutcomeDispatched, f.eval.Press(ctx, powered(1), other).Outcome)

	f.clock.now = 60 * time.Second
	res = f.eval.Press(ctx, powered(1), p)
	assert.Equal(t, OutcomeDispatched, res.Outcome, "press exactly at the cooldown succeeds")

	f.clock.now = 119 * time.Second
	res = f.eval.Press(ctx, powered(1), p)
	assert.Equal(t, OutcomeGated, res.Outcome)
	assert.Equal(t, "You must wait 1s before using this button again.", res.Message)
}

func TestPress_DispatchErrorDoesNotStopRemainingCommands(t *testing.T) {
	f := newFixture(t, mapLookup{1: {Commands: threeCommands()}}, nil)
	f.sink.DispatchFunc = func(ctx context.Context, cmd Command) error {
		if cmd.Type == button.CommandTypeServer {
			return errors.New("rcon unavailable")
		}
		return nil
	}

	res := f.eval.Press(context.Background(), powered(1), testPlayer())
	assert.Equal(t, OutcomeDispatched, res.Outcome)
	assert.Len(t, f.sink.DispatchCalls, 3)
	require.Len(t, res.Commands, 2)
	assert.Equal(t, button.CommandTypeChat, res.Commands[0].Type)
	assert.Equal(t, button.CommandTypeClient, res.Commands[1].Type)
}

type failingCooldowns struct{}

func (failingCooldowns) Allow(context.Context, uint64, uint64, time.Duration) (time.Duration, bool, error) {
	return 0, false, errors.New("redis unavailable")
}

func TestPress_CooldownErrorIgnoresPress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	sink := NewMockSink()
	e := NewEvaluator(Deps{
		Registry:   mapLookup{1: {CooldownSeconds: 10, Commands: threeCommands()}},
		Cooldowns:  failingCooldowns{},
		Dispatcher: sink,
		Replier:    sink,
		Localizer:  lang.New("en", logger),
		Logger:     logger,
	})

	res := e.Press(context.Background(), powered(1), testPlayer())
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Empty(t, sink.DispatchCalls)
	assert.Empty(t, sink.ReplyCalls)
}

func TestNewEvaluator_Defaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	e := NewEvaluator(Deps{
		Registry: mapLookup{1: {CooldownSeconds: 10, Commands: threeCommands()}},
		Logger:   logger,
	})
	ctx := context.Background()

	res := e.Press(ctx, powered(1), testPlayer())
	assert.Equal(t, OutcomeDispatched, res.Outcome)
	assert.Len(t, res.Commands, 3)

	res = e.Press(ctx, powered(1), testPlayer())
	assert.Equal(t, OutcomeGated, res.Outcome)
	assert.Empty(t, res.Message, "no localizer, no message")
}

func TestCommand_ConsoleLine(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
		asPlayer bool
	}{
		{Command{Type: button.CommandTypeChat, Text: "Hello, Ava!"}, `chat.say "Hello, Ava!"`, true},
		{Command{Type: button.CommandTypeChat, Text: `say "hi"`}, `chat.say "say \"hi\""`, true},
		{Command{Type: button.CommandTypeClient, Text: "heli.calltome"}, "heli.calltome", true},
		{Command{Type: button.CommandTypeServer, Text: "inventory.giveto 1 scrap 50"}, "inventory.giveto 1 scrap 50", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.cmd.ConsoleLine())
		assert.Equal(t, tt.asPlayer, tt.cmd.RunsAsPlayer())
	}
}

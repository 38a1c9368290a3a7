package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/handlers"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		name  string
		args  []string
	}{
		{"", "press", nil},
		{"   ", "press", nil},
		{"/press", "press", []string{}},
		{"/Button 42", "button", []string{"42"}},
		{"move 1 2 3", "move", []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseCommand(tt.input)
			assert.Equal(t, tt.name, got.name)
			assert.Equal(t, len(tt.args), len(got.args))
			for i := range tt.args {
				assert.Equal(t, tt.args[i], got.args[i])
			}
		})
	}
}

func newTestUI() ConsoleUI {
	cfg := &ConsoleConfig{APIBaseURL: "http://unused", Player: host.PlayerSnapshot{ID: 7, Name: "Op"}}
	return NewConsoleUI(cfg, http.DefaultClient)
}

func run(t *testing.T, m ConsoleUI, input string) ConsoleUI {
	t.Helper()
	next, _ := m.handleCommand(parseCommand(input))
	return next.(ConsoleUI)
}

func TestHandleCommand_LocalState(t *testing.T) {
	m := newTestUI()

	m = run(t, m, "/button 99")
	assert.Equal(t, uint64(99), m.button.ButtonID)

	m = run(t, m, "/button zero")
	assert.Equal(t, uint64(99), m.button.ButtonID)
	assert.Contains(t, m.lines[len(m.lines)-1], "invalid button id")

	assert.True(t, m.button.Powered)
	m = run(t, m, "/power")
	assert.False(t, m.button.Powered)

	m = run(t, m, "/move 1 2.5 -3")
	assert.Equal(t, host.Vector3{X: 1, Y: 2.5, Z: -3}, m.player.Pos)

	m = run(t, m, "/distance 12")
	assert.Equal(t, 12.0, m.distance)

	m = run(t, m, "/admin")
	assert.Contains(t, m.player.Permissions, admin.PermissionAdmin)
	m = run(t, m, "/admin")
	assert.NotContains(t, m.player.Permissions, admin.PermissionAdmin)

	m = run(t, m, "/lang de")
	assert.Equal(t, "de", m.player.Lang)

	m = run(t, m, "/bogus")
	assert.Contains(t, m.lines[len(m.lines)-1], "unknown command /bogus")

	m = run(t, m, "/clear")
	assert.Empty(t, m.lines)
}

func TestLogPress(t *testing.T) {
	m := newTestUI()
	m.logPress(&press.Result{
		Outcome:        press.OutcomeDispatched,
		SuppressOutput: true,
		Commands: []press.Command{
			{Type: button.CommandTypeChat, Text: "hi", PlayerID: "7"},
		},
	})
	require.Len(t, m.lastCommands, 1)
	assert.Contains(t, m.lines[len(m.lines)-1], `chat.say "hi"`)

	m.logPress(&press.Result{Outcome: press.OutcomeGated, RemainingSeconds: 4.5, Message: "wait"})
	assert.Contains(t, m.lines[len(m.lines)-2], "4.5s remaining")
	assert.Len(t, m.lastCommands, 1, "gated press keeps the last commands")
}

func TestAPIClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/press", func(w http.ResponseWriter, r *http.Request) {
		var req handlers.PressRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(press.Result{
			Outcome:  press.OutcomeDispatched,
			Commands: []press.Command{{Type: button.CommandTypeServer, Text: "say " + req.Player.Name}},
		})
	})
	mux.HandleFunc("/v1/buttons/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(admin.Outcome{Status: admin.StatusRegistered, ButtonID: 5})
	})
	mux.HandleFunc("/v1/buttons", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(handlers.ButtonListResponse{Version: "2.2.0", Buttons: []uint64{5}})
	})
	mux.HandleFunc("/v1/buttons/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Button not registered"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := srv.Client()

	res, err := pressButton(client, srv.URL, host.ButtonSnapshot{ButtonID: 5}, host.PlayerSnapshot{ID: 1, Name: "Ava"})
	require.NoError(t, err)
	require.Len(t, res.Commands, 1)
	assert.Equal(t, "say Ava", res.Commands[0].Text)

	out, err := registerButton(client, srv.URL, host.PlayerSnapshot{ID: 1}, host.Sight{Hit: true, ButtonID: 5})
	require.NoError(t, err)
	assert.Equal(t, admin.StatusRegistered, out.Status)

	list, err := listButtons(client, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, list.Buttons)

	_, err = getButton(client, srv.URL, 404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Button not registered")
}

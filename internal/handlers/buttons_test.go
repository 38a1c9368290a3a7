package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/lang"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/internal/registry"
	"github.com/jwebster45206/button-commands/internal/storage"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buttonsFixture struct {
	store    *storage.MockStorage
	registry *registry.Registry
	sink     *press.MockSink
	handler  *ButtonsHandler
}

func newButtonsFixture(t *testing.T) *buttonsFixture {
	t.Helper()
	logger := testLogger()

	doc := button.NewStoredData()
	doc.PressButtons[30] = button.DefaultBehavior()
	doc.PressButtons[10] = button.Behavior{}
	store := storage.NewMockStorageWith(doc)

	reg, err := registry.New(context.Background(), store, logger)
	require.NoError(t, err)

	sink := press.NewMockSink()
	registrar := admin.NewRegistrar(reg, admin.HostGrants{}, lang.New("en", logger), sink, nil, logger)

	return &buttonsFixture{
		store:    store,
		registry: reg,
		sink:     sink,
		handler:  NewButtonsHandler(reg, registrar, logger),
	}
}

func (f *buttonsFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestButtonsHandler_List(t *testing.T) {
	f := newButtonsFixture(t)

	rr := f.do(http.MethodGet, "/v1/buttons", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ButtonListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, button.CurrentVersion, resp.Version)
	assert.Equal(t, []uint64{10, 30}, resp.Buttons)
}

func TestButtonsHandler_Read(t *testing.T) {
	f := newButtonsFixture(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"registered", "/v1/buttons/30", http.StatusOK},
		{"trailing slash", "/v1/buttons/30/", http.StatusOK},
		{"not registered", "/v1/buttons/31", http.StatusNotFound},
		{"not a number", "/v1/buttons/abc", http.StatusBadRequest},
		{"zero id", "/v1/buttons/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}

	rr := f.do(http.MethodGet, "/v1/buttons/30", "")
	var resp ButtonResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, uint64(30), resp.ID)
	assert.Equal(t, button.DefaultBehavior(), resp.Behavior)
}

func TestButtonsHandler_Update(t *testing.T) {
	f := newButtonsFixture(t)

	body := `{
		"Require Button Powered": false,
		"Disable Power Output On Press": false,
		"Run Random Command": true,
		"Cooldown Seconds": 5,
		"Commands": [{"Type": "Server", "Command": "say {PlayerName}"}]
	}`
	rr := f.do(http.MethodPut, "/v1/buttons/10", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ButtonResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Behavior.RunRandomCommand)
	assert.Equal(t, 5.0, resp.Behavior.CooldownSeconds)

	saved := f.store.Saved().PressButtons[10]
	assert.Equal(t, resp.Behavior, saved)

	t.Run("not registered", func(t *testing.T) {
		rr := f.do(http.MethodPut, "/v1/buttons/99", body)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid behavior", func(t *testing.T) {
		rr := f.do(http.MethodPut, "/v1/buttons/10", `{"Cooldown Seconds": -4}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown command type", func(t *testing.T) {
		rr := f.do(http.MethodPut, "/v1/buttons/10", `{"Commands": [{"Type": "Broadcast", "Command": "x"}]}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		f.store.SetSaveError(errors.New("disk full"))
		defer f.store.SetSaveError(nil)

		rr := f.do(http.MethodPut, "/v1/buttons/10", body)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestButtonsHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedResult admin.Status
		expectedReply  string
	}{
		{
			name:           "registers button in sight",
			body:           `{"player":{"id":1,"name":"op","permissions":["buttoncommands.admin"]},"sight":{"hit":true,"button_id":77,"distance":2}}`,
			expectedStatus: http.StatusCreated,
			expectedResult: admin.StatusRegistered,
			expectedReply:  "Button registered successfully. It will now run the assigned commands.",
		},
		{
			name:           "already registered",
			body:           `{"player":{"id":1,"name":"op","permissions":["buttoncommands.admin"]},"sight":{"hit":true,"button_id":30,"distance":2}}`,
			expectedStatus: http.StatusOK,
			expectedResult: admin.StatusAlreadyRegistered,
			expectedReply:  "This button already has commands assigned.",
		},
		{
			name:           "no permission",
			body:           `{"player":{"id":2,"name":"guest"},"sight":{"hit":true,"button_id":77,"distance":2}}`,
			expectedStatus: http.StatusOK,
			expectedResult: admin.StatusNoPermission,
			expectedReply:  "You do not have permission to use this command.",
		},
		{
			name:           "too far",
			body:           `{"player":{"id":1,"name":"op","permissions":["buttoncommands.admin"]},"sight":{"hit":true,"button_id":77,"distance":11}}`,
			expectedStatus: http.StatusOK,
			expectedResult: admin.StatusNoButtonInRange,
			expectedReply:  "You are too far away from the button to register it.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newButtonsFixture(t)
			rr := f.do(http.MethodPost, "/v1/buttons/register", tt.body)
			require.Equal(t, tt.expectedStatus, rr.Code)

			var out admin.Outcome
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
			assert.Equal(t, tt.expectedResult, out.Status)
			assert.Equal(t, tt.expectedReply, out.Message)
			require.Len(t, f.sink.ReplyCalls, 1)
			assert.Equal(t, tt.expectedReply, f.sink.ReplyCalls[0].Message)
		})
	}
}

func TestButtonsHandler_RegisterErrors(t *testing.T) {
	f := newButtonsFixture(t)

	rr := f.do(http.MethodPost, "/v1/buttons/register", `{"sight":{"hit":true}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.store.SetSaveError(errors.New("disk full"))
	rr = f.do(http.MethodPost, "/v1/buttons/register",
		`{"player":{"id":1,"name":"op","permissions":["buttoncommands.admin"]},"sight":{"hit":true,"button_id":77,"distance":1}}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	_, ok := f.registry.Get(77)
	assert.False(t, ok, "failed registration is rolled back")
}

func TestButtonsHandler_MethodNotAllowed(t *testing.T) {
	f := newButtonsFixture(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/buttons"},
		{http.MethodGet, "/v1/buttons/register"},
		{http.MethodDelete, "/v1/buttons/30"},
	} {
		rr := f.do(tc.method, tc.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, "%s %s", tc.method, tc.path)
	}
}

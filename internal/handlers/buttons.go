package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/registry"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// ButtonStore is the registry surface the buttons API needs.
type ButtonStore interface {
	Get(id uint64) (button.Behavior, bool)
	Update(ctx context.Context, id uint64, b button.Behavior) error
	List() []uint64
	Version() string
}

// Registerer runs the operator registration command.
type Registerer interface {
	RegisterNearest(ctx context.Context, player host.Player, sight host.Sight) (admin.Outcome, error)
}

type ButtonListResponse struct {
	Version string   `json:"version"`
	Buttons []uint64 `json:"buttons"`
}

type ButtonResponse struct {
	ID       uint64          `json:"id"`
	Behavior button.Behavior `json:"behavior"`
}

// RegisterRequest is the body of POST /v1/buttons/register.
type RegisterRequest struct {
	Player *host.PlayerSnapshot `json:"player"`
	Sight  host.Sight           `json:"sight"`
}

type ButtonsHandler struct {
	store     ButtonStore
	registrar Registerer
	logger    *slog.Logger
}

func NewButtonsHandler(store ButtonStore, registrar Registerer, logger *slog.Logger) *ButtonsHandler {
	return &ButtonsHandler{
		store:     store,
		registrar: registrar,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for button records
// Routes:
// GET  /v1/buttons           - List registered button ids
// GET  /v1/buttons/{id}      - Read a button's behavior
// PUT  /v1/buttons/{id}      - Replace a button's behavior
// POST /v1/buttons/register  - Register the button in a player's sight
func (h *ButtonsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/buttons"), "/")

	switch {
	case path == "":
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleList(w)
	case path == "register":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleRegister(w, r)
	default:
		id, err := strconv.ParseUint(path, 10, 64)
		if err != nil || id == 0 {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid button ID")
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, id)
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func (h *ButtonsHandler) handleList(w http.ResponseWriter) {
	writeJSON(w, h.logger, http.StatusOK, ButtonListResponse{
		Version: h.store.Version(),
		Buttons: h.store.List(),
	})
}

func (h *ButtonsHandler) handleRead(w http.ResponseWriter, id uint64) {
	b, ok := h.store.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Button not registered")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ButtonResponse{ID: id, Behavior: b})
}

func (h *ButtonsHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id uint64) {
	var b button.Behavior
	if err := decodeBody(w, r, &b); err != nil {
		h.logger.Warn("Invalid behavior body", "button_id", id, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.Update(r.Context(), id, b); err != nil {
		switch {
		case errors.Is(err, registry.ErrNotRegistered):
			writeError(w, h.logger, http.StatusNotFound, "Button not registered")
		case errors.Is(err, registry.ErrInvalidBehavior):
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update button", "button_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save button")
		}
		return
	}

	updated, _ := h.store.Get(id)
	writeJSON(w, h.logger, http.StatusOK, ButtonResponse{ID: id, Behavior: updated})
}

func (h *ButtonsHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid register request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Player == nil {
		writeError(w, h.logger, http.StatusBadRequest, "player is required")
		return
	}

	out, err := h.registrar.RegisterNearest(r.Context(), req.Player, req.Sight)
	if err != nil {
		writeJSON(w, h.logger, http.StatusInternalServerError, out)
		return
	}

	status := http.StatusOK
	if out.Status == admin.StatusRegistered {
		status = http.StatusCreated
	}
	writeJSON(w, h.logger, status, out)
}

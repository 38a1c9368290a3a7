package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/button-commands/internal/logger"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// Presser evaluates a single button press.
type Presser interface {
	Press(ctx context.Context, btn host.Button, player host.Player) press.Result
}

// PressRequest is the body of POST /v1/press. A missing button or player is
// passed to the evaluator as absent and yields an ignored result.
type PressRequest struct {
	Button *host.ButtonSnapshot `json:"button"`
	Player *host.PlayerSnapshot `json:"player"`
}

type PressHandler struct {
	presser Presser
	logger  *slog.Logger
}

func NewPressHandler(presser Presser, logger *slog.Logger) *PressHandler {
	return &PressHandler{
		presser: presser,
		logger:  logger,
	}
}

// ServeHTTP handles POST /v1/press. The response is the evaluator's Result;
// the host applies SuppressOutput and runs Commands when it is not consuming
// the Redis outbox.
func (h *PressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req PressRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid press request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		btn    host.Button
		player host.Player
	)
	if req.Button != nil {
		btn = req.Button
	}
	if req.Player != nil {
		player = req.Player
	}

	res := h.presser.Press(r.Context(), btn, player)

	if req.Button != nil && req.Player != nil {
		logger.WithButton(h.logger, req.Button.ButtonID, req.Player.ID).Debug("Press evaluated",
			"outcome", res.Outcome,
			"commands", len(res.Commands))
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

package admin

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jwebster45206/button-commands/internal/lang"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/internal/registry"
	"github.com/jwebster45206/button-commands/pkg/host"
)

const (
	// PermissionAdmin gates the register command.
	PermissionAdmin = "buttoncommands.admin"

	// MaxRange is how far from the player's eyes a button can be registered.
	MaxRange = 10.0
)

// Status is the outcome of a registration attempt.
type Status string

const (
	StatusIgnored           Status = "ignored"
	StatusNoPermission      Status = "no_permission"
	StatusNoButtonInRange   Status = "no_button_in_range"
	StatusNoButtonInSight   Status = "no_button_in_sight"
	StatusAlreadyRegistered Status = "already_registered"
	StatusRegistered        Status = "registered"
	StatusFailed            Status = "failed"
)

// Outcome is returned to the caller of RegisterNearest.
type Outcome struct {
	Status   Status `json:"status"`
	ButtonID uint64 `json:"button_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Registerer is the part of the registry the registrar writes to.
type Registerer interface {
	Register(ctx context.Context, id uint64) error
}

// Notifier is told about successful registrations.
type Notifier interface {
	PublishButtonRegistered(ctx context.Context, buttonID, playerID uint64) error
}

// Authorizer decides whether a player holds a permission.
type Authorizer interface {
	Allowed(player host.Player, perm string) bool
}

// Registrar handles the operator command that registers the button a player
// is looking at.
type Registrar struct {
	registry  Registerer
	auth      Authorizer
	localizer *lang.Localizer
	replier   press.Replier
	notifier  Notifier
	logger    *slog.Logger
}

// NewRegistrar creates a registrar. notifier may be nil.
func NewRegistrar(reg Registerer, auth Authorizer, localizer *lang.Localizer, replier press.Replier, notifier Notifier, logger *slog.Logger) *Registrar {
	if replier == nil {
		replier = press.LogSink{Logger: logger}
	}
	return &Registrar{
		registry:  reg,
		auth:      auth,
		localizer: localizer,
		replier:   replier,
		notifier:  notifier,
		logger:    logger,
	}
}

// RegisterNearest registers the button in the player's line of sight. Every
// outcome except a missing player produces exactly one reply. A storage
// failure is logged and reported as StatusFailed along with the error.
func (r *Registrar) RegisterNearest(ctx context.Context, player host.Player, sight host.Sight) (Outcome, error) {
	if player == nil {
		return Outcome{Status: StatusIgnored}, nil
	}

	if !r.auth.Allowed(player, PermissionAdmin) {
		return r.reply(ctx, player, Outcome{Status: StatusNoPermission}, lang.ErrorNoPermission), nil
	}

	if !sight.Hit || sight.Distance > MaxRange {
		return r.reply(ctx, player, Outcome{Status: StatusNoButtonInRange}, lang.ErrorNoButtonInRange), nil
	}

	if sight.ButtonID == 0 {
		return r.reply(ctx, player, Outcome{Status: StatusNoButtonInSight}, lang.ErrorNoButtonInSight), nil
	}

	id := sight.ButtonID
	if err := r.registry.Register(ctx, id); err != nil {
		if errors.Is(err, registry.ErrAlreadyRegistered) {
			return r.reply(ctx, player, Outcome{Status: StatusAlreadyRegistered, ButtonID: id}, lang.ErrorAlreadyRegistered), nil
		}
		r.logger.Error("Failed to register button",
			"button_id", id,
			"player_id", player.UserID(),
			"error", err)
		return Outcome{Status: StatusFailed, ButtonID: id}, err
	}

	if r.notifier != nil {
		if err := r.notifier.PublishButtonRegistered(ctx, id, player.UserID()); err != nil {
			r.logger.Error("Failed to publish registration event", "button_id", id, "error", err)
		}
	}
	return r.reply(ctx, player, Outcome{Status: StatusRegistered, ButtonID: id}, lang.InfoButtonRegistered), nil
}

func (r *Registrar) reply(ctx context.Context, player host.Player, out Outcome, key string) Outcome {
	out.Message = r.localizer.Message(player, key)
	if out.Message == "" {
		return out
	}
	if err := r.replier.Reply(ctx, player, out.Message); err != nil {
		r.logger.Error("Failed to reply to player", "player_id", player.UserID(), "error", err)
	}
	return out
}

// HostGrants trusts the permissions the host reports for the player.
type HostGrants struct{}

func (HostGrants) Allowed(player host.Player, perm string) bool {
	holder, ok := player.(host.PermissionHolder)
	return ok && holder.HasPermission(perm)
}

// StaticAdmins grants every permission to a fixed set of player ids.
type StaticAdmins map[string]struct{}

// NewStaticAdmins builds a StaticAdmins from player id strings.
func NewStaticAdmins(ids []string) StaticAdmins {
	s := make(StaticAdmins, len(ids))
	for _, id := range ids {
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

func (s StaticAdmins) Allowed(player host.Player, perm string) bool {
	_, ok := s[player.UserIDString()]
	return ok
}

// AnyOf allows when any of its authorizers does.
type AnyOf []Authorizer

func (a AnyOf) Allowed(player host.Player, perm string) bool {
	for _, auth := range a {
		if auth.Allowed(player, perm) {
			return true
		}
	}
	return false
}

var (
	_ Authorizer = HostGrants{}
	_ Authorizer = StaticAdmins{}
	_ Authorizer = AnyOf{}
)

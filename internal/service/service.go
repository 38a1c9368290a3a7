// Package service assembles the button registry, press evaluator and
// registration command into one object built at startup. Entry points hold a
// *Service; nothing here is global.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/config"
	"github.com/jwebster45206/button-commands/internal/cooldown"
	"github.com/jwebster45206/button-commands/internal/lang"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/internal/registry"
	"github.com/jwebster45206/button-commands/internal/services/events"
	"github.com/jwebster45206/button-commands/internal/storage"
	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/grid"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// Broadcaster receives press, registration and update events.
type Broadcaster interface {
	press.Publisher
	admin.Notifier
	PublishButtonUpdated(ctx context.Context, buttonID uint64) error
}

// Options are the collaborators chosen by the entry point. Dispatcher,
// Replier and Broadcaster are optional. A nil Cooldowns keeps cooldowns in
// process memory; processes that share presses must share Cooldowns too.
type Options struct {
	Config      *config.Config
	Store       storage.Storage
	Dispatcher  press.Dispatcher
	Replier     press.Replier
	Broadcaster Broadcaster
	Cooldowns   press.Cooldowns
	Logger      *slog.Logger
}

type Service struct {
	Registry  *registry.Registry
	Localizer *lang.Localizer
	Evaluator *press.Evaluator
	Registrar *admin.Registrar

	store       storage.Storage
	broadcaster Broadcaster
	logger      *slog.Logger
}

// New loads the registry and language files and wires the evaluator.
func New(ctx context.Context, opts Options) (*Service, error) {
	cfg := opts.Config
	log := opts.Logger

	reg, err := registry.New(ctx, opts.Store, log)
	if err != nil {
		return nil, err
	}

	loc := lang.New(cfg.DefaultLanguage, log)
	if err := loc.LoadDir(cfg.LangDir); err != nil {
		return nil, fmt.Errorf("failed to load language files: %w", err)
	}

	var (
		publisher press.Publisher
		notifier  admin.Notifier
	)
	if opts.Broadcaster != nil {
		publisher = opts.Broadcaster
		notifier = opts.Broadcaster
	}

	cooldowns := opts.Cooldowns
	if cooldowns == nil {
		cooldowns = cooldown.NewTracker(nil)
	}

	eval := press.NewEvaluator(press.Deps{
		Registry:   reg,
		Cooldowns:  cooldowns,
		Dispatcher: opts.Dispatcher,
		Replier:    opts.Replier,
		Localizer:  loc,
		Labeler:    grid.NewMap(cfg.WorldSize),
		Publisher:  publisher,
		Logger:     log,
	})

	var auth admin.Authorizer = admin.NewStaticAdmins(cfg.AdminIDs)
	if cfg.TrustHostPermissions {
		auth = admin.AnyOf{admin.HostGrants{}, auth}
	}
	registrar := admin.NewRegistrar(reg, auth, loc, opts.Replier, notifier, log)

	return &Service{
		Registry:  reg,
		Localizer: loc,
		Evaluator: eval,
		Registrar: registrar,
		store:       opts.Store,
		broadcaster: opts.Broadcaster,
		logger:      log,
	}, nil
}

// Press is the press-evaluation entry point.
func (s *Service) Press(ctx context.Context, btn host.Button, player host.Player) press.Result {
	return s.Evaluator.Press(ctx, btn, player)
}

// RegisterNearest is the administrative registration entry point.
func (s *Service) RegisterNearest(ctx context.Context, player host.Player, sight host.Sight) (admin.Outcome, error) {
	return s.Registrar.RegisterNearest(ctx, player, sight)
}

// Get returns the behavior of a registered button.
func (s *Service) Get(id uint64) (button.Behavior, bool) {
	return s.Registry.Get(id)
}

// Update replaces a button's behavior and tells other processes about it.
func (s *Service) Update(ctx context.Context, id uint64, b button.Behavior) error {
	if err := s.Registry.Update(ctx, id, b); err != nil {
		return err
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.PublishButtonUpdated(ctx, id); err != nil {
			s.logger.Error("Failed to publish update event", "button_id", id, "error", err)
		}
	}
	return nil
}

func (s *Service) List() []uint64  { return s.Registry.List() }
func (s *Service) Version() string { return s.Registry.Version() }

// FollowChanges reloads the registry whenever any process registers or
// updates a button. It returns once subscribed. The returned channel is
// closed after ctx ends.
func (s *Service) FollowChanges(ctx context.Context, l *events.Listener) (<-chan struct{}, error) {
	return l.Listen(ctx, func(ctx context.Context, ev events.Event) {
		switch ev.Type {
		case events.EventTypeButtonRegistered, events.EventTypeButtonUpdated:
		default:
			return
		}
		if err := s.Registry.Reload(ctx); err != nil {
			s.logger.Error("Failed to reload registry", "event_type", ev.Type, "button_id", ev.ButtonID, "error", err)
			return
		}
		s.logger.Debug("Registry reloaded", "event_type", ev.Type, "button_id", ev.ButtonID)
	})
}

// Close forgets in-process cooldowns and closes the store. Shared cooldowns
// are left to expire.
func (s *Service) Close() error {
	if tracker, ok := s.Evaluator.Cooldowns().(*cooldown.Tracker); ok {
		tracker.Reset()
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	s.logger.Info("Service stopped")
	return nil
}

// OpenStorage returns the store selected by cfg.StorageBackend.
func OpenStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		rs, err := storage.NewRedisStorage(cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		fs := storage.NewFileStorage(cfg.DataDir, cfg.DataFile, log)
		if err := fs.Ping(ctx); err != nil {
			return nil, err
		}
		return fs, nil
	}
}

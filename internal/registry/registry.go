package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jwebster45206/button-commands/internal/storage"
	"github.com/jwebster45206/button-commands/pkg/button"
)

var (
	ErrAlreadyRegistered = errors.New("button already registered")
	ErrNotRegistered     = errors.New("button not registered")
	ErrInvalidBehavior   = errors.New("invalid behavior")
)

// Registry maps button ids to their behavior and persists every mutation.
type Registry struct {
	mu     sync.RWMutex
	data   *button.StoredData
	store  storage.Storage
	logger *slog.Logger
}

// New loads the registry from store, migrating and re-saving it when the
// stored version is out of date.
func New(ctx context.Context, store storage.Storage, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		store:  store,
		logger: logger,
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the document from storage, replacing the in-memory copy.
func (r *Registry) Reload(ctx context.Context) error {
	loaded, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	oldVersion := ""
	if loaded != nil {
		oldVersion = loaded.Version
	}
	data, changed := button.Migrate(loaded)
	if changed {
		r.logger.Info("Migrating registry",
			"from_version", oldVersion,
			"to_version", data.Version,
			"buttons", len(data.PressButtons))
		if err := r.store.Save(ctx, data); err != nil {
			return fmt.Errorf("failed to save migrated registry: %w", err)
		}
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()

	r.logger.Info("Registry loaded", "buttons", len(data.PressButtons), "version", data.Version)
	return nil
}

// Get returns the behavior for id. ok is false when the button is not registered.
func (r *Registry) Get(id uint64) (button.Behavior, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data.PressButtons[id]
	if !ok {
		return button.Behavior{}, false
	}
	return b.Clone(), true
}

// Register inserts the default behavior for id and persists the registry.
// An existing record is left untouched and ErrAlreadyRegistered returned.
func (r *Registry) Register(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.PressButtons[id]; ok {
		return ErrAlreadyRegistered
	}

	r.data.PressButtons[id] = button.DefaultBehavior()
	if err := r.store.Save(ctx, r.data); err != nil {
		delete(r.data.PressButtons, id)
		r.logger.Error("Failed to persist registration", "button_id", id, "error", err)
		return fmt.Errorf("failed to save registry: %w", err)
	}

	r.logger.Info("Button registered", "button_id", id)
	return nil
}

// Update replaces the behavior of an already registered button.
func (r *Registry) Update(ctx context.Context, id uint64, b button.Behavior) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBehavior, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.data.PressButtons[id]
	if !ok {
		return ErrNotRegistered
	}

	r.data.PressButtons[id] = b.Clone()
	if err := r.store.Save(ctx, r.data); err != nil {
		r.data.PressButtons[id] = prev
		r.logger.Error("Failed to persist behavior update", "button_id", id, "error", err)
		return fmt.Errorf("failed to save registry: %w", err)
	}

	r.logger.Info("Button behavior updated", "button_id", id, "commands", len(b.Commands))
	return nil
}

// List returns the registered button ids in ascending order.
func (r *Registry) List() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint64, 0, len(r.data.PressButtons))
	for id := range r.data.PressButtons {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered buttons.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data.PressButtons)
}

// Version returns the version stamped on the loaded document.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data.Version
}

package storage

import (
	"context"

	"github.com/jwebster45206/button-commands/pkg/button"
)

// Storage persists the button registry as a single document.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Load returns the stored document, or nil if nothing has been saved yet.
	Load(ctx context.Context) (*button.StoredData, error)

	// Save replaces the stored document.
	Save(ctx context.Context, data *button.StoredData) error
}

// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// DeckRepository provides keyed access to decks.
type DeckRepository interface {
	// Insert stores a new deck.
	Insert(ctx context.Context, d *model.Deck) error
	// Update overwrites an existing deck by id.
	Update(ctx context.Context, d *model.Deck) error
	// GetByID loads a deck by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Deck, error)
	// GetByName loads a deck by exact name match (used by CSV import).
	GetByName(ctx context.Context, name string) (*model.Deck, error)
	// List returns all decks.
	List(ctx context.Context) ([]model.Deck, error)
	// Delete removes a deck by id. Cascading to cards is the service's job.
	Delete(ctx context.Context, id uuid.UUID) error
	// UpsertBatch inserts or overwrites decks by id (remote-wins merge).
	UpsertBatch(ctx context.Context, decks []model.Deck) error
}

// CheckpointStore persists the lastSync timestamp between sync cycles.
// The zero value (never synced) is reported as the Unix epoch.
type CheckpointStore interface {
	// LastSync returns the most recent successful sync time.
	LastSync(ctx context.Context) (time.Time, error)
	// SetLastSync records a successful sync time.
	SetLastSync(ctx context.Context, t time.Time) error
}

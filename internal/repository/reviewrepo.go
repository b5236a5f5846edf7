package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// ReviewRepository provides append-only access to review history.
// Reviews are never updated in place; UpsertBatch exists only for restoring
// backups and for the remote-wins pull merge, where an id collision rewrites
// an identical fact.
type ReviewRepository interface {
	// Insert stores a new review.
	Insert(ctx context.Context, r *model.Review) error
	// List returns all reviews.
	List(ctx context.Context) ([]model.Review, error)
	// ListByCard returns reviews referencing a card, oldest first.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]model.Review, error)
	// DeleteByCard removes every review of a card (cascade from card deletion).
	DeleteByCard(ctx context.Context, cardID uuid.UUID) error
	// UpsertBatch inserts or overwrites reviews by id.
	UpsertBatch(ctx context.Context, reviews []model.Review) error
}

// SnapshotRepository is the server-side durable store behind the sync
// protocol: whole-collection reads and the asymmetric snapshot merge.
type SnapshotRepository interface {
	// GetSnapshot returns every deck, card, and review owned by the user.
	GetSnapshot(ctx context.Context, userID string) (*model.Snapshot, error)
	// ApplySnapshot merges an uploaded snapshot in one transaction:
	// decks and cards upsert by id, reviews insert only if absent.
	ApplySnapshot(ctx context.Context, userID string, snap *model.Snapshot) error
}

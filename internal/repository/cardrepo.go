package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// CardRepository provides keyed and filtered access to cards.
type CardRepository interface {
	// Insert stores a new card.
	Insert(ctx context.Context, c *model.Card) error
	// Update overwrites an existing card by id. Scheduling fields and content
	// travel together so a review lands as one atomic write.
	Update(ctx context.Context, c *model.Card) error
	// GetByID loads a card by id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error)
	// List returns all cards.
	List(ctx context.Context) ([]model.Card, error)
	// ListByDeck returns all cards belonging to a deck.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]model.Card, error)
	// ListDue returns the deck's cards with next_review at or before now.
	ListDue(ctx context.Context, deckID uuid.UUID, now time.Time) ([]model.Card, error)
	// Delete removes a card by id.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByDeck removes every card of a deck (cascade from deck deletion).
	DeleteByDeck(ctx context.Context, deckID uuid.UUID) error
	// UpsertBatch inserts or overwrites cards by id (remote-wins merge).
	UpsertBatch(ctx context.Context, cards []model.Card) error
}

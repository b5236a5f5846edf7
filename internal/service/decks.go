// Package service implements the application logic between transport/CLI and
// repositories: deck and card management, study sessions, and server-side
// snapshot handling.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
)

var validate = validator.New()

// CreateDeckInput carries user-supplied fields for a new deck.
type CreateDeckInput struct {
	Name         string     `validate:"required,max=200"`
	Description  string     `validate:"max=2000"`
	ParentDeckID *uuid.UUID `validate:"-"`
	Color        string     `validate:"max=32"`
}

// UpdateDeckInput carries optional field updates; nil means keep current value.
type UpdateDeckInput struct {
	Name         *string
	Description  *string
	ParentDeckID *uuid.UUID
	Color        *string
}

// DeckService defines deck management operations.
type DeckService interface {
	// Create validates input and stores a new deck.
	Create(ctx context.Context, in CreateDeckInput) (*model.Deck, error)
	// Update applies partial changes to an existing deck.
	Update(ctx context.Context, id uuid.UUID, in UpdateDeckInput) (*model.Deck, error)
	// Get loads a deck by id.
	Get(ctx context.Context, id uuid.UUID) (*model.Deck, error)
	// List returns all decks.
	List(ctx context.Context) ([]model.Deck, error)
	// Delete removes a deck together with its cards and their reviews.
	Delete(ctx context.Context, id uuid.UUID) error
	// Stats returns each deck with total and due card counts.
	Stats(ctx context.Context, now time.Time) ([]model.DeckStats, error)
}

type DeckServiceImpl struct {
	decks   repository.DeckRepository
	cards   repository.CardRepository
	reviews repository.ReviewRepository
}

// NewDeckService constructs DeckService over the given repositories.
func NewDeckService(decks repository.DeckRepository, cards repository.CardRepository, reviews repository.ReviewRepository) *DeckServiceImpl {
	return &DeckServiceImpl{decks: decks, cards: cards, reviews: reviews}
}

func (s *DeckServiceImpl) Create(ctx context.Context, in CreateDeckInput) (*model.Deck, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if in.ParentDeckID != nil {
		if _, err := s.decks.GetByID(ctx, *in.ParentDeckID); err != nil {
			return nil, fmt.Errorf("parent deck: %w", err)
		}
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d := &model.Deck{
		ID:           id,
		Name:         in.Name,
		Description:  in.Description,
		ParentDeckID: in.ParentDeckID,
		Color:        in.Color,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.decks.Insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DeckServiceImpl) Update(ctx context.Context, id uuid.UUID, in UpdateDeckInput) (*model.Deck, error) {
	d, err := s.decks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: empty name", errs.ErrValidation)
		}
		d.Name = *in.Name
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Color != nil {
		d.Color = *in.Color
	}
	if in.ParentDeckID != nil {
		if *in.ParentDeckID == id {
			return nil, fmt.Errorf("%w: deck cannot be its own parent", errs.ErrValidation)
		}
		if _, err := s.decks.GetByID(ctx, *in.ParentDeckID); err != nil {
			return nil, fmt.Errorf("parent deck: %w", err)
		}
		d.ParentDeckID = in.ParentDeckID
	}
	d.UpdatedAt = time.Now().UTC()
	if err := s.decks.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DeckServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Deck, error) {
	return s.decks.GetByID(ctx, id)
}

func (s *DeckServiceImpl) List(ctx context.Context) ([]model.Deck, error) {
	return s.decks.List(ctx)
}

// Delete removes the deck, its cards, and every review of those cards. The
// sqlite schema also cascades via foreign keys; the explicit walk keeps the
// behavior identical on backends without enforcement.
func (s *DeckServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.decks.GetByID(ctx, id); err != nil {
		return err
	}
	cards, err := s.cards.ListByDeck(ctx, id)
	if err != nil {
		return err
	}
	for i := range cards {
		if err := s.reviews.DeleteByCard(ctx, cards[i].ID); err != nil {
			return err
		}
	}
	if err := s.cards.DeleteByDeck(ctx, id); err != nil {
		return err
	}
	return s.decks.Delete(ctx, id)
}

func (s *DeckServiceImpl) Stats(ctx context.Context, now time.Time) ([]model.DeckStats, error) {
	decks, err := s.decks.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DeckStats, 0, len(decks))
	for i := range decks {
		cards, err := s.cards.ListByDeck(ctx, decks[i].ID)
		if err != nil {
			return nil, err
		}
		due, err := s.cards.ListDue(ctx, decks[i].ID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, model.DeckStats{
			Deck:      decks[i],
			CardCount: len(cards),
			DueCards:  len(due),
		})
	}
	return out, nil
}

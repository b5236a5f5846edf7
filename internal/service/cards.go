package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
	"github.com/Antoine-savt/anki-antoine/internal/sm2"
)

// CreateCardInput carries user-supplied fields for a new card. Scheduling
// state always starts at the SM-2 defaults regardless of input.
type CreateCardInput struct {
	DeckID uuid.UUID `validate:"required"`
	Front  string    `validate:"required"`
	Back   string    `validate:"required"`
	Tags   []string  `validate:"dive,max=100"`
}

// UpdateCardInput carries optional content updates; nil means keep current
// value. Scheduling fields are not editable here, only the scheduler moves
// them.
type UpdateCardInput struct {
	Front *string
	Back  *string
	Tags  *[]string
}

// CardService defines card management operations.
type CardService interface {
	// Create validates input and stores a new card with fresh scheduling state.
	Create(ctx context.Context, in CreateCardInput) (*model.Card, error)
	// Update applies partial content changes to an existing card.
	Update(ctx context.Context, id uuid.UUID, in UpdateCardInput) (*model.Card, error)
	// Get loads a card by id.
	Get(ctx context.Context, id uuid.UUID) (*model.Card, error)
	// ListByDeck returns all cards of a deck.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]model.Card, error)
	// ListDue returns the deck's cards due at or before now.
	ListDue(ctx context.Context, deckID uuid.UUID, now time.Time) ([]model.Card, error)
	// Delete removes a card and its reviews.
	Delete(ctx context.Context, id uuid.UUID) error
}

type CardServiceImpl struct {
	decks   repository.DeckRepository
	cards   repository.CardRepository
	reviews repository.ReviewRepository
}

// NewCardService constructs CardService over the given repositories.
func NewCardService(decks repository.DeckRepository, cards repository.CardRepository, reviews repository.ReviewRepository) *CardServiceImpl {
	return &CardServiceImpl{decks: decks, cards: cards, reviews: reviews}
}

func (s *CardServiceImpl) Create(ctx context.Context, in CreateCardInput) (*model.Card, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if _, err := s.decks.GetByID(ctx, in.DeckID); err != nil {
		return nil, fmt.Errorf("deck: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	fresh := sm2.NewState(now)
	c := &model.Card{
		ID:          id,
		DeckID:      in.DeckID,
		Front:       in.Front,
		Back:        in.Back,
		Tags:        in.Tags,
		EaseFactor:  fresh.EaseFactor,
		Interval:    fresh.Interval,
		Repetitions: fresh.Repetitions,
		NextReview:  fresh.NextReview,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.cards.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CardServiceImpl) Update(ctx context.Context, id uuid.UUID, in UpdateCardInput) (*model.Card, error) {
	c, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Front != nil {
		if *in.Front == "" {
			return nil, fmt.Errorf("%w: empty front", errs.ErrValidation)
		}
		c.Front = *in.Front
	}
	if in.Back != nil {
		if *in.Back == "" {
			return nil, fmt.Errorf("%w: empty back", errs.ErrValidation)
		}
		c.Back = *in.Back
	}
	if in.Tags != nil {
		c.Tags = *in.Tags
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.cards.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CardServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	return s.cards.GetByID(ctx, id)
}

func (s *CardServiceImpl) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]model.Card, error) {
	return s.cards.ListByDeck(ctx, deckID)
}

func (s *CardServiceImpl) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time) ([]model.Card, error) {
	return s.cards.ListDue(ctx, deckID, now)
}

func (s *CardServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.cards.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.reviews.DeleteByCard(ctx, id); err != nil {
		return err
	}
	return s.cards.Delete(ctx, id)
}

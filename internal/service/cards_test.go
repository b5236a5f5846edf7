package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/sm2"
)

func newCardService() (*CardServiceImpl, *fakeDeckRepo, *fakeCardRepo, *fakeReviewRepo) {
	decks := newFakeDeckRepo()
	cards := newFakeCardRepo()
	reviews := newFakeReviewRepo()
	return NewCardService(decks, cards, reviews), decks, cards, reviews
}

func seedDeck(t *testing.T, decks *fakeDeckRepo) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	require.NoError(t, decks.Insert(context.Background(), &model.Deck{
		ID: id, Name: "deck", CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

func TestCardService_Create_FreshSchedulingState(t *testing.T) {
	svc, decks, _, _ := newCardService()
	ctx := context.Background()
	deckID := seedDeck(t, decks)

	before := time.Now().UTC()
	c, err := svc.Create(ctx, CreateCardInput{
		DeckID: deckID, Front: "hola", Back: "hello", Tags: []string{"greeting"},
	})
	require.NoError(t, err)
	require.Equal(t, sm2.DefaultEaseFactor, c.EaseFactor)
	require.Equal(t, 0, c.Interval)
	require.Equal(t, 0, c.Repetitions)
	require.False(t, c.NextReview.Before(before))
	require.False(t, c.NextReview.After(time.Now().UTC()))
}

func TestCardService_Create_UnknownDeck(t *testing.T) {
	svc, _, _, _ := newCardService()

	_, err := svc.Create(context.Background(), CreateCardInput{
		DeckID: uuid.Must(uuid.NewV4()), Front: "f", Back: "b",
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCardService_Create_Validation(t *testing.T) {
	svc, decks, _, _ := newCardService()
	deckID := seedDeck(t, decks)

	_, err := svc.Create(context.Background(), CreateCardInput{DeckID: deckID, Front: "", Back: "b"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCardService_Update_KeepsSchedulingState(t *testing.T) {
	svc, decks, cards, _ := newCardService()
	ctx := context.Background()
	deckID := seedDeck(t, decks)

	c, err := svc.Create(ctx, CreateCardInput{DeckID: deckID, Front: "f", Back: "b"})
	require.NoError(t, err)

	// Simulate scheduler progress before the content edit.
	c.EaseFactor = 2.7
	c.Interval = 6
	c.Repetitions = 2
	require.NoError(t, cards.Update(ctx, c))

	front := "f2"
	got, err := svc.Update(ctx, c.ID, UpdateCardInput{Front: &front})
	require.NoError(t, err)
	require.Equal(t, "f2", got.Front)
	require.Equal(t, 2.7, got.EaseFactor)
	require.Equal(t, 6, got.Interval)
	require.Equal(t, 2, got.Repetitions)
	require.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestCardService_Delete_CascadesReviews(t *testing.T) {
	svc, decks, _, reviews := newCardService()
	ctx := context.Background()
	deckID := seedDeck(t, decks)

	c, err := svc.Create(ctx, CreateCardInput{DeckID: deckID, Front: "f", Back: "b"})
	require.NoError(t, err)
	require.NoError(t, reviews.Insert(ctx, &model.Review{
		ID: uuid.Must(uuid.NewV4()), CardID: c.ID, Quality: 5, ReviewDate: time.Now().UTC(),
	}))

	require.NoError(t, svc.Delete(ctx, c.ID))

	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	rvs, err := reviews.ListByCard(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, rvs)
}

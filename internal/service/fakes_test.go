package service

import (
	"context"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// In-memory fakes used by service tests.

type fakeDeckRepo struct {
	decks map[uuid.UUID]model.Deck
}

func newFakeDeckRepo() *fakeDeckRepo {
	return &fakeDeckRepo{decks: make(map[uuid.UUID]model.Deck)}
}

func (f *fakeDeckRepo) Insert(_ context.Context, d *model.Deck) error {
	if _, ok := f.decks[d.ID]; ok {
		return errs.ErrAlreadyExists
	}
	f.decks[d.ID] = *d
	return nil
}

func (f *fakeDeckRepo) Update(_ context.Context, d *model.Deck) error {
	if _, ok := f.decks[d.ID]; !ok {
		return errs.ErrNotFound
	}
	f.decks[d.ID] = *d
	return nil
}

func (f *fakeDeckRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Deck, error) {
	d, ok := f.decks[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDeckRepo) GetByName(_ context.Context, name string) (*model.Deck, error) {
	for _, d := range f.decks {
		if d.Name == name {
			d := d
			return &d, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeDeckRepo) List(_ context.Context) ([]model.Deck, error) {
	out := make([]model.Deck, 0, len(f.decks))
	for _, d := range f.decks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDeckRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.decks[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.decks, id)
	return nil
}

func (f *fakeDeckRepo) UpsertBatch(_ context.Context, decks []model.Deck) error {
	for i := range decks {
		f.decks[decks[i].ID] = decks[i]
	}
	return nil
}

type fakeCardRepo struct {
	cards map[uuid.UUID]model.Card
	// updateErr, when set, fails the next Update call.
	updateErr error
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{cards: make(map[uuid.UUID]model.Card)}
}

func (f *fakeCardRepo) Insert(_ context.Context, c *model.Card) error {
	if _, ok := f.cards[c.ID]; ok {
		return errs.ErrAlreadyExists
	}
	f.cards[c.ID] = *c
	return nil
}

func (f *fakeCardRepo) Update(_ context.Context, c *model.Card) error {
	if f.updateErr != nil {
		err := f.updateErr
		f.updateErr = nil
		return err
	}
	if _, ok := f.cards[c.ID]; !ok {
		return errs.ErrNotFound
	}
	f.cards[c.ID] = *c
	return nil
}

func (f *fakeCardRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Card, error) {
	c, ok := f.cards[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCardRepo) List(_ context.Context) ([]model.Card, error) {
	out := make([]model.Card, 0, len(f.cards))
	for _, c := range f.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCardRepo) ListByDeck(_ context.Context, deckID uuid.UUID) ([]model.Card, error) {
	var out []model.Card
	for _, c := range f.cards {
		if c.DeckID == deckID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCardRepo) ListDue(_ context.Context, deckID uuid.UUID, now time.Time) ([]model.Card, error) {
	var out []model.Card
	for _, c := range f.cards {
		if c.DeckID == deckID && !c.NextReview.After(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextReview.Before(out[j].NextReview) })
	return out, nil
}

func (f *fakeCardRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.cards[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.cards, id)
	return nil
}

func (f *fakeCardRepo) DeleteByDeck(_ context.Context, deckID uuid.UUID) error {
	for id, c := range f.cards {
		if c.DeckID == deckID {
			delete(f.cards, id)
		}
	}
	return nil
}

func (f *fakeCardRepo) UpsertBatch(_ context.Context, cards []model.Card) error {
	for i := range cards {
		f.cards[cards[i].ID] = cards[i]
	}
	return nil
}

type fakeReviewRepo struct {
	reviews map[uuid.UUID]model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[uuid.UUID]model.Review)}
}

func (f *fakeReviewRepo) Insert(_ context.Context, r *model.Review) error {
	if _, ok := f.reviews[r.ID]; ok {
		return errs.ErrAlreadyExists
	}
	f.reviews[r.ID] = *r
	return nil
}

func (f *fakeReviewRepo) List(_ context.Context) ([]model.Review, error) {
	out := make([]model.Review, 0, len(f.reviews))
	for _, r := range f.reviews {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewDate.Before(out[j].ReviewDate) })
	return out, nil
}

func (f *fakeReviewRepo) ListByCard(_ context.Context, cardID uuid.UUID) ([]model.Review, error) {
	var out []model.Review
	for _, r := range f.reviews {
		if r.CardID == cardID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewDate.Before(out[j].ReviewDate) })
	return out, nil
}

func (f *fakeReviewRepo) DeleteByCard(_ context.Context, cardID uuid.UUID) error {
	for id, r := range f.reviews {
		if r.CardID == cardID {
			delete(f.reviews, id)
		}
	}
	return nil
}

func (f *fakeReviewRepo) UpsertBatch(_ context.Context, reviews []model.Review) error {
	for i := range reviews {
		f.reviews[reviews[i].ID] = reviews[i]
	}
	return nil
}

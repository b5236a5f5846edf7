package sqlite

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// ReviewRepo implements repository.ReviewRepository on SQLite.
type ReviewRepo struct{ s *Store }

// NewReviewRepo constructs a review repository.
func NewReviewRepo(s *Store) *ReviewRepo { return &ReviewRepo{s: s} }

const reviewColumns = `id, card_id, quality, review_date, time_spent`

// Insert stores a new review.
func (r *ReviewRepo) Insert(ctx context.Context, rv *model.Review) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		rv.ID.String(), rv.CardID.String(), rv.Quality, rv.ReviewDate.UTC(), rv.TimeSpent,
	)
	if err != nil {
		return fmt.Errorf("insert review %s: %w", rv.ID, err)
	}
	return nil
}

// List returns all reviews ordered by review date.
func (r *ReviewRepo) List(ctx context.Context) ([]model.Review, error) {
	return r.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY review_date`)
}

// ListByCard returns the card's reviews, oldest first.
func (r *ReviewRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]model.Review, error) {
	return r.queryReviews(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE card_id = ? ORDER BY review_date`,
		cardID.String())
}

// DeleteByCard removes every review of a card.
func (r *ReviewRepo) DeleteByCard(ctx context.Context, cardID uuid.UUID) error {
	_, err := r.s.db.ExecContext(ctx, `DELETE FROM reviews WHERE card_id = ?`, cardID.String())
	if err != nil {
		return fmt.Errorf("delete reviews of card %s: %w", cardID, err)
	}
	return nil
}

// UpsertBatch inserts or overwrites reviews by id in one transaction.
func (r *ReviewRepo) UpsertBatch(ctx context.Context, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range reviews {
		rv := &reviews[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (`+reviewColumns+`)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				card_id = excluded.card_id,
				quality = excluded.quality,
				review_date = excluded.review_date,
				time_spent = excluded.time_spent`,
			rv.ID.String(), rv.CardID.String(), rv.Quality, rv.ReviewDate.UTC(), rv.TimeSpent,
		); err != nil {
			return fmt.Errorf("upsert review %s: %w", rv.ID, err)
		}
	}
	return tx.Commit()
}

func (r *ReviewRepo) queryReviews(ctx context.Context, query string, args ...any) ([]model.Review, error) {
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var (
			rv         model.Review
			id, cardID string
		)
		if err := rows.Scan(&id, &cardID, &rv.Quality, &rv.ReviewDate, &rv.TimeSpent); err != nil {
			return nil, err
		}
		uid, err := uuid.FromString(id)
		if err != nil {
			return nil, fmt.Errorf("bad review id %q: %w", id, err)
		}
		cid, err := uuid.FromString(cardID)
		if err != nil {
			return nil, fmt.Errorf("bad card id %q: %w", cardID, err)
		}
		rv.ID, rv.CardID = uid, cid
		out = append(out, rv)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// CardRepo implements repository.CardRepository on SQLite.
type CardRepo struct{ s *Store }

// NewCardRepo constructs a card repository.
func NewCardRepo(s *Store) *CardRepo { return &CardRepo{s: s} }

const cardColumns = `id, deck_id, front, back, tags, ease_factor, interval, repetitions, next_review, created_at, updated_at`

// Insert stores a new card.
func (r *CardRepo) Insert(ctx context.Context, c *model.Card) error {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return err
	}
	_, err = r.s.db.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.DeckID.String(), c.Front, c.Back, tags,
		c.EaseFactor, c.Interval, c.Repetitions,
		c.NextReview.UTC(), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert card %s: %w", c.ID, err)
	}
	return nil
}

// Update overwrites an existing card by id. Content and scheduling state
// land in a single statement so a review is one atomic write.
func (r *CardRepo) Update(ctx context.Context, c *model.Card) error {
	tags, err := encodeTags(c.Tags)
	if err != nil {
		return err
	}
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE cards
		SET front = ?, back = ?, tags = ?, ease_factor = ?, interval = ?,
		    repetitions = ?, next_review = ?, updated_at = ?
		WHERE id = ?`,
		c.Front, c.Back, tags, c.EaseFactor, c.Interval, c.Repetitions,
		c.NextReview.UTC(), c.UpdatedAt.UTC(), c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update card %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// GetByID loads a card by id.
func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String())
	c, err := scanCardRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return c, err
}

// List returns all cards.
func (r *CardRepo) List(ctx context.Context) ([]model.Card, error) {
	return r.queryCards(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY created_at`)
}

// ListByDeck returns all cards belonging to a deck.
func (r *CardRepo) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]model.Card, error) {
	return r.queryCards(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY created_at`,
		deckID.String())
}

// ListDue returns the deck's cards whose next_review is at or before now.
func (r *CardRepo) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time) ([]model.Card, error) {
	return r.queryCards(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE deck_id = ? AND next_review <= ?
		ORDER BY next_review`,
		deckID.String(), now.UTC())
}

// Delete removes a card by id.
func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	return nil
}

// DeleteByDeck removes every card of a deck.
func (r *CardRepo) DeleteByDeck(ctx context.Context, deckID uuid.UUID) error {
	_, err := r.s.db.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, deckID.String())
	if err != nil {
		return fmt.Errorf("delete cards of deck %s: %w", deckID, err)
	}
	return nil
}

// UpsertBatch inserts or overwrites cards by id in one transaction.
func (r *CardRepo) UpsertBatch(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range cards {
		c := &cards[i]
		tags, err := encodeTags(c.Tags)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cards (`+cardColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				deck_id = excluded.deck_id,
				front = excluded.front,
				back = excluded.back,
				tags = excluded.tags,
				ease_factor = excluded.ease_factor,
				interval = excluded.interval,
				repetitions = excluded.repetitions,
				next_review = excluded.next_review,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at`,
			c.ID.String(), c.DeckID.String(), c.Front, c.Back, tags,
			c.EaseFactor, c.Interval, c.Repetitions,
			c.NextReview.UTC(), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("upsert card %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (r *CardRepo) queryCards(ctx context.Context, query string, args ...any) ([]model.Card, error) {
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var out []model.Card
	for rows.Next() {
		c, err := scanCardRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCardRow(row rowScanner) (*model.Card, error) {
	var (
		c          model.Card
		id, deckID string
		rawTags    string
	)
	if err := row.Scan(&id, &deckID, &c.Front, &c.Back, &rawTags,
		&c.EaseFactor, &c.Interval, &c.Repetitions,
		&c.NextReview, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	uid, err := uuid.FromString(id)
	if err != nil {
		return nil, fmt.Errorf("bad card id %q: %w", id, err)
	}
	did, err := uuid.FromString(deckID)
	if err != nil {
		return nil, fmt.Errorf("bad deck id %q: %w", deckID, err)
	}
	tags, err := decodeTags(rawTags)
	if err != nil {
		return nil, err
	}
	c.ID, c.DeckID, c.Tags = uid, did, tags
	return &c, nil
}

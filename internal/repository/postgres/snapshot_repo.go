package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// SnapshotRepo implements repository.SnapshotRepository using PostgreSQL.
type SnapshotRepo struct{ db *DB }

// NewSnapshotRepo constructs a snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

// GetSnapshot returns every deck, card, and review owned by the user.
func (r *SnapshotRepo) GetSnapshot(ctx context.Context, userID string) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		Decks:   []model.Deck{},
		Cards:   []model.Card{},
		Reviews: []model.Review{},
	}

	const qDecks = `
SELECT id, name, description, parent_deck_id, color, created_at, updated_at
FROM decks
WHERE user_id=$1
ORDER BY created_at`
	rows, err := r.db.Pool.Query(ctx, qDecks, userID)
	if err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	for rows.Next() {
		var (
			d      model.Deck
			parent uuid.NullUUID
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &parent, &d.Color,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		if parent.Valid {
			p := parent.UUID
			d.ParentDeckID = &p
		}
		snap.Decks = append(snap.Decks, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qCards = `
SELECT c.id, c.deck_id, c.front, c.back, c.tags, c.ease_factor, c."interval",
       c.repetitions, c.next_review, c.created_at, c.updated_at
FROM cards c
JOIN decks d ON c.deck_id = d.id
WHERE d.user_id=$1
ORDER BY c.created_at`
	rows, err = r.db.Pool.Query(ctx, qCards, userID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	for rows.Next() {
		var c model.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Tags,
			&c.EaseFactor, &c.Interval, &c.Repetitions,
			&c.NextReview, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan card: %w", err)
		}
		snap.Cards = append(snap.Cards, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const qReviews = `
SELECT r.id, r.card_id, r.quality, r.review_date, r.time_spent
FROM reviews r
JOIN cards c ON r.card_id = c.id
JOIN decks d ON c.deck_id = d.id
WHERE d.user_id=$1
ORDER BY r.review_date`
	rows, err = r.db.Pool.Query(ctx, qReviews, userID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.CardID, &rv.Quality, &rv.ReviewDate,
			&rv.TimeSpent); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan review: %w", err)
		}
		snap.Reviews = append(snap.Reviews, rv)
	}
	rows.Close()
	return snap, rows.Err()
}

// ApplySnapshot merges an uploaded snapshot in a single transaction.
// Decks and cards upsert by primary key; reviews are immutable facts and
// insert only when the id is unseen. The asymmetry is deliberate.
func (r *SnapshotRepo) ApplySnapshot(ctx context.Context, userID string, snap *model.Snapshot) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const upsertDeck = `
INSERT INTO decks (id, user_id, name, description, parent_deck_id, color, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	name=EXCLUDED.name,
	description=EXCLUDED.description,
	parent_deck_id=EXCLUDED.parent_deck_id,
	color=EXCLUDED.color,
	updated_at=EXCLUDED.updated_at`
	for i := range snap.Decks {
		d := &snap.Decks[i]
		var parent uuid.NullUUID
		if d.ParentDeckID != nil {
			parent = uuid.NullUUID{UUID: *d.ParentDeckID, Valid: true}
		}
		if _, err = tx.Exec(ctx, upsertDeck,
			d.ID, userID, d.Name, d.Description, parent, d.Color,
			d.CreatedAt, d.UpdatedAt); err != nil {
			return fmt.Errorf("upsert deck %s: %w", d.ID, err)
		}
	}

	const upsertCard = `
INSERT INTO cards (id, deck_id, front, back, tags, ease_factor, "interval", repetitions, next_review, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
	deck_id=EXCLUDED.deck_id,
	front=EXCLUDED.front,
	back=EXCLUDED.back,
	tags=EXCLUDED.tags,
	ease_factor=EXCLUDED.ease_factor,
	"interval"=EXCLUDED."interval",
	repetitions=EXCLUDED.repetitions,
	next_review=EXCLUDED.next_review,
	updated_at=EXCLUDED.updated_at`
	for i := range snap.Cards {
		c := &snap.Cards[i]
		tags := c.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err = tx.Exec(ctx, upsertCard,
			c.ID, c.DeckID, c.Front, c.Back, tags,
			c.EaseFactor, c.Interval, c.Repetitions,
			c.NextReview, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("upsert card %s: %w", c.ID, err)
		}
	}

	const insertReview = `
INSERT INTO reviews (id, card_id, quality, review_date, time_spent)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING`
	for i := range snap.Reviews {
		rv := &snap.Reviews[i]
		if _, err = tx.Exec(ctx, insertReview,
			rv.ID, rv.CardID, rv.Quality, rv.ReviewDate, rv.TimeSpent); err != nil {
			return fmt.Errorf("insert review %s: %w", rv.ID, err)
		}
	}
	return nil
}

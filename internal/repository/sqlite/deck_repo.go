package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
)

// DeckRepo implements repository.DeckRepository on SQLite.
type DeckRepo struct{ s *Store }

// NewDeckRepo constructs a deck repository.
func NewDeckRepo(s *Store) *DeckRepo { return &DeckRepo{s: s} }

const deckColumns = `id, name, description, parent_deck_id, color, created_at, updated_at`

// Insert stores a new deck.
func (r *DeckRepo) Insert(ctx context.Context, d *model.Deck) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO decks (`+deckColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Name, d.Description, parentArg(d.ParentDeckID), d.Color,
		d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert deck %s: %w", d.ID, err)
	}
	return nil
}

// Update overwrites an existing deck by id.
func (r *DeckRepo) Update(ctx context.Context, d *model.Deck) error {
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE decks
		SET name = ?, description = ?, parent_deck_id = ?, color = ?, updated_at = ?
		WHERE id = ?`,
		d.Name, d.Description, parentArg(d.ParentDeckID), d.Color, d.UpdatedAt.UTC(),
		d.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update deck %s: %w", d.ID, err)
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

// GetByID loads a deck by id.
func (r *DeckRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Deck, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id = ?`, id.String())
	return scanDeck(row)
}

// GetByName loads a deck by exact name match.
func (r *DeckRepo) GetByName(ctx context.Context, name string) (*model.Deck, error) {
	row := r.s.db.QueryRowContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE name = ? LIMIT 1`, name)
	return scanDeck(row)
}

// List returns all decks ordered by creation time.
func (r *DeckRepo) List(ctx context.Context) ([]model.Deck, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT `+deckColumns+` FROM decks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var out []model.Deck
	for rows.Next() {
		d, err := scanDeckRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Delete removes a deck by id.
func (r *DeckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete deck %s: %w", id, err)
	}
	return nil
}

// UpsertBatch inserts or overwrites decks by id in one transaction.
func (r *DeckRepo) UpsertBatch(ctx context.Context, decks []model.Deck) error {
	if len(decks) == 0 {
		return nil
	}
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range decks {
		d := &decks[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decks (`+deckColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				parent_deck_id = excluded.parent_deck_id,
				color = excluded.color,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at`,
			d.ID.String(), d.Name, d.Description, parentArg(d.ParentDeckID), d.Color,
			d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("upsert deck %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row *sql.Row) (*model.Deck, error) {
	d, err := scanDeckRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return d, err
}

func scanDeckRow(row rowScanner) (*model.Deck, error) {
	var (
		d      model.Deck
		id     string
		parent sql.NullString
	)
	if err := row.Scan(&id, &d.Name, &d.Description, &parent, &d.Color,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	uid, err := uuid.FromString(id)
	if err != nil {
		return nil, fmt.Errorf("bad deck id %q: %w", id, err)
	}
	d.ID = uid
	if parent.Valid {
		pid, err := uuid.FromString(parent.String)
		if err != nil {
			return nil, fmt.Errorf("bad parent deck id %q: %w", parent.String, err)
		}
		d.ParentDeckID = &pid
	}
	return &d, nil
}

func parentArg(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

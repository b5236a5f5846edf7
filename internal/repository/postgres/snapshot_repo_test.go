package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/Antoine-savt/anki-antoine/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

const testUser = "temp-user"

func TestSnapshotRepo_GetSnapshot(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSnapshotRepo(db)

	ctx := context.Background()
	deckID := uuid.Must(uuid.NewV4())
	parentID := uuid.Must(uuid.NewV4())
	cardID := uuid.Must(uuid.NewV4())
	reviewID := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, description, parent_deck_id, color, created_at, updated_at FROM decks WHERE user_id=\$1`).
		WithArgs(testUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "parent_deck_id", "color", "created_at", "updated_at"}).
			AddRow(deckID, "Spanish", "vocab", uuid.NullUUID{UUID: parentID, Valid: true}, "#fff", ts, ts))

	mock.ExpectQuery(`SELECT c.id, c.deck_id, c.front, c.back, c.tags, c.ease_factor, c."interval", c.repetitions, c.next_review, c.created_at, c.updated_at FROM cards c`).
		WithArgs(testUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "deck_id", "front", "back", "tags", "ease_factor", "interval", "repetitions", "next_review", "created_at", "updated_at"}).
			AddRow(cardID, deckID, "hola", "hello", []string{"greeting"}, 2.5, 6, 2, ts, ts, ts))

	mock.ExpectQuery(`SELECT r.id, r.card_id, r.quality, r.review_date, r.time_spent FROM reviews r`).
		WithArgs(testUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "card_id", "quality", "review_date", "time_spent"}).
			AddRow(reviewID, cardID, 5, ts, 12))

	snap, err := r.GetSnapshot(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, snap.Decks, 1)
	require.Equal(t, "Spanish", snap.Decks[0].Name)
	require.NotNil(t, snap.Decks[0].ParentDeckID)
	require.Equal(t, parentID, *snap.Decks[0].ParentDeckID)
	require.Len(t, snap.Cards, 1)
	require.Equal(t, []string{"greeting"}, snap.Cards[0].Tags)
	require.Equal(t, 6, snap.Cards[0].Interval)
	require.Len(t, snap.Reviews, 1)
	require.Equal(t, 5, snap.Reviews[0].Quality)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_GetSnapshot_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSnapshotRepo(db)

	mock.ExpectQuery(`FROM decks WHERE user_id=\$1`).WithArgs(testUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "parent_deck_id", "color", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM cards c`).WithArgs(testUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "deck_id", "front", "back", "tags", "ease_factor", "interval", "repetitions", "next_review", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM reviews r`).WithArgs(testUser).
		WillReturnRows(pgxmock.NewRows([]string{"id", "card_id", "quality", "review_date", "time_spent"}))

	snap, err := r.GetSnapshot(context.Background(), testUser)
	require.NoError(t, err)
	require.NotNil(t, snap.Decks)
	require.NotNil(t, snap.Cards)
	require.NotNil(t, snap.Reviews)
	require.Empty(t, snap.Decks)
}

func TestSnapshotRepo_ApplySnapshot_MergeAsymmetry(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSnapshotRepo(db)

	ctx := context.Background()
	deckID := uuid.Must(uuid.NewV4())
	cardID := uuid.Must(uuid.NewV4())
	reviewID := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	snap := &model.Snapshot{
		Decks: []model.Deck{{ID: deckID, Name: "Spanish", CreatedAt: ts, UpdatedAt: ts}},
		Cards: []model.Card{{
			ID: cardID, DeckID: deckID, Front: "hola", Back: "hello",
			EaseFactor: 2.5, NextReview: ts, CreatedAt: ts, UpdatedAt: ts,
		}},
		Reviews: []model.Review{{ID: reviewID, CardID: cardID, Quality: 4, ReviewDate: ts, TimeSpent: 3}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO decks .* ON CONFLICT \(id\) DO UPDATE SET`).
		WithArgs(deckID, testUser, "Spanish", "", uuid.NullUUID{}, "", ts, ts).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO cards .* ON CONFLICT \(id\) DO UPDATE SET`).
		WithArgs(cardID, deckID, "hola", "hello", []string{}, 2.5, 0, 0, ts, ts, ts).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO reviews .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(reviewID, cardID, 4, ts, 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	require.NoError(t, r.ApplySnapshot(ctx, testUser, snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepo_ApplySnapshot_RollbackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSnapshotRepo(db)

	deckID := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()
	snap := &model.Snapshot{
		Decks: []model.Deck{{ID: deckID, Name: "boom", CreatedAt: ts, UpdatedAt: ts}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO decks`).
		WithArgs(deckID, testUser, "boom", "", uuid.NullUUID{}, "", ts, ts).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := r.ApplySnapshot(context.Background(), testUser, snap)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

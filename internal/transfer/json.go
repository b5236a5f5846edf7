package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
)

// BackupVersion is the format version written to and accepted from backups.
const BackupVersion = "1.0"

// Backup is the full-fidelity JSON export: every deck, card, and review with
// scheduling state intact.
type Backup struct {
	Version    string         `json:"version"`
	ExportDate time.Time      `json:"exportDate"`
	Decks      []model.Deck   `json:"decks"`
	Cards      []model.Card   `json:"cards"`
	Reviews    []model.Review `json:"reviews"`
}

// JSONStore bundles the repositories a backup touches.
type JSONStore struct {
	Decks   repository.DeckRepository
	Cards   repository.CardRepository
	Reviews repository.ReviewRepository
}

// ExportJSON writes a versioned backup of the whole collection.
func ExportJSON(ctx context.Context, s JSONStore, w io.Writer) error {
	decks, err := s.Decks.List(ctx)
	if err != nil {
		return err
	}
	cards, err := s.Cards.List(ctx)
	if err != nil {
		return err
	}
	reviews, err := s.Reviews.List(ctx)
	if err != nil {
		return err
	}

	b := Backup{
		Version:    BackupVersion,
		ExportDate: time.Now().UTC(),
		Decks:      decks,
		Cards:      cards,
		Reviews:    reviews,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// ImportJSON restores a backup. Unlike CSV import it is all-or-nothing:
// a malformed or version-mismatched file changes nothing, and restored cards
// keep their scheduling state.
func ImportJSON(ctx context.Context, s JSONStore, r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decode backup: %v", errs.ErrValidation, err)
	}
	if b.Version != BackupVersion {
		return nil, fmt.Errorf("%w: unsupported backup version %q", errs.ErrValidation, b.Version)
	}

	if err := s.Decks.UpsertBatch(ctx, b.Decks); err != nil {
		return nil, err
	}
	if err := s.Cards.UpsertBatch(ctx, b.Cards); err != nil {
		return nil, err
	}
	if err := s.Reviews.UpsertBatch(ctx, b.Reviews); err != nil {
		return nil, err
	}
	return &b, nil
}

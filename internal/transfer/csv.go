// Package transfer implements CSV and JSON import/export. CSV is the lossy
// human-facing format: content only, scheduling history stays behind. JSON is
// the full-fidelity backup.
package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
	"github.com/Antoine-savt/anki-antoine/internal/service"
)

// csvHeader is the fixed column set of the CSV dialect. Order matters.
var csvHeader = []string{"Deck Name", "Deck Description", "Card Front", "Card Back", "Tags", "Next Review"}

// CSVImportResult reports how an import went. Rows that fail validation are
// skipped and reported; the rest import anyway.
type CSVImportResult struct {
	Imported int
	Errors   []string
}

// CSVExporter writes deck contents as CSV.
type CSVExporter struct {
	decks repository.DeckRepository
	cards repository.CardRepository
}

// NewCSVExporter constructs a CSVExporter.
func NewCSVExporter(decks repository.DeckRepository, cards repository.CardRepository) *CSVExporter {
	return &CSVExporter{decks: decks, cards: cards}
}

// Export writes every deck's cards, one row per card. Each field is quoted;
// embedded quotes double, embedded newlines flatten to spaces. Tags join with
// semicolons.
func (e *CSVExporter) Export(ctx context.Context, w io.Writer) error {
	decks, err := e.decks.List(ctx)
	if err != nil {
		return err
	}

	if err := writeCSVRow(w, csvHeader); err != nil {
		return err
	}
	for i := range decks {
		d := &decks[i]
		cards, err := e.cards.ListByDeck(ctx, d.ID)
		if err != nil {
			return err
		}
		for j := range cards {
			c := &cards[j]
			row := []string{
				d.Name,
				d.Description,
				c.Front,
				c.Back,
				strings.Join(c.Tags, ";"),
				c.NextReview.UTC().Format(time.RFC3339),
			}
			if err := writeCSVRow(w, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCSVRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		f = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(f)
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// CSVImporter creates decks and cards from CSV rows.
type CSVImporter struct {
	decks repository.DeckRepository
	cards service.CardService
	deck  service.DeckService
}

// NewCSVImporter constructs a CSVImporter.
func NewCSVImporter(decks repository.DeckRepository, deckSvc service.DeckService, cardSvc service.CardService) *CSVImporter {
	return &CSVImporter{decks: decks, deck: deckSvc, cards: cardSvc}
}

// Import reads rows, resolving each deck by exact name or creating it, then
// creating the card. Imported cards always start with fresh scheduling state;
// the Next Review column is informational and ignored on the way in. Bad rows
// are collected, not fatal.
func (im *CSVImporter) Import(ctx context.Context, r io.Reader) (*CSVImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("%w: unrecognized CSV header", errs.ErrValidation)
	}

	res := &CSVImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if err := im.importRow(ctx, record); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}

func (im *CSVImporter) importRow(ctx context.Context, record []string) error {
	if len(record) < 4 {
		return fmt.Errorf("expected at least 4 columns, got %d", len(record))
	}
	deckName := strings.TrimSpace(record[0])
	deckDesc := record[1]
	front := record[2]
	back := record[3]
	var tags []string
	if len(record) > 4 {
		for _, t := range strings.Split(record[4], ";") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	if deckName == "" {
		return errors.New("empty deck name")
	}
	if front == "" || back == "" {
		return errors.New("empty front or back")
	}

	deck, err := im.decks.GetByName(ctx, deckName)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		deck, err = im.deck.Create(ctx, service.CreateDeckInput{Name: deckName, Description: deckDesc})
		if err != nil {
			return fmt.Errorf("create deck %q: %w", deckName, err)
		}
	case err != nil:
		return err
	}

	_, err = im.cards.Create(ctx, service.CreateCardInput{
		DeckID: deck.ID,
		Front:  front,
		Back:   back,
		Tags:   tags,
	})
	return err
}

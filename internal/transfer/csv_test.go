package transfer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Antoine-savt/anki-antoine/internal/repository/sqlite"
	"github.com/Antoine-savt/anki-antoine/internal/service"
	"github.com/Antoine-savt/anki-antoine/internal/sm2"
)

type fixture struct {
	store   *sqlite.Store
	decks   *sqlite.DeckRepo
	cards   *sqlite.CardRepo
	reviews *sqlite.ReviewRepo
	deckSvc *service.DeckServiceImpl
	cardSvc *service.CardServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	decks := sqlite.NewDeckRepo(store)
	cards := sqlite.NewCardRepo(store)
	reviews := sqlite.NewReviewRepo(store)
	return &fixture{
		store:   store,
		decks:   decks,
		cards:   cards,
		reviews: reviews,
		deckSvc: service.NewDeckService(decks, cards, reviews),
		cardSvc: service.NewCardService(decks, cards, reviews),
	}
}

func TestCSVExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.deckSvc.Create(ctx, service.CreateDeckInput{Name: "Spanish", Description: "core vocab"})
	require.NoError(t, err)
	_, err = f.cardSvc.Create(ctx, service.CreateCardInput{
		DeckID: d.ID, Front: "say \"hello\"", Back: "di\nhola", Tags: []string{"greeting", "a1"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	exp := NewCSVExporter(f.decks, f.cards)
	require.NoError(t, exp.Export(ctx, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `"Deck Name","Deck Description","Card Front","Card Back","Tags","Next Review"`, lines[0])
	require.Contains(t, lines[1], `"say ""hello"""`)
	require.Contains(t, lines[1], `"di hola"`)
	require.Contains(t, lines[1], `"greeting;a1"`)
}

func TestCSVImport_CreatesDecksAndCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`"Deck Name","Deck Description","Card Front","Card Back","Tags","Next Review"`,
		`"Spanish","vocab","hola","hello","greeting;a1","2026-01-01T00:00:00Z"`,
		`"Spanish","vocab","adios","goodbye","",""`,
		`"French","","bonjour","hello","",""`,
	}, "\n")

	im := NewCSVImporter(f.decks, f.deckSvc, f.cardSvc)
	res, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, res.Imported)
	require.Empty(t, res.Errors)

	decks, err := f.decks.List(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 2)

	spanish, err := f.decks.GetByName(ctx, "Spanish")
	require.NoError(t, err)
	cards, err := f.cards.ListByDeck(ctx, spanish.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
}

func TestCSVImport_AlwaysFreshSchedulingState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The Next Review column claims the card is far in the future; import
	// ignores it.
	input := `"Deck Name","Deck Description","Card Front","Card Back","Tags","Next Review"` + "\n" +
		`"Spanish","","hola","hello","","2099-01-01T00:00:00Z"` + "\n"

	im := NewCSVImporter(f.decks, f.deckSvc, f.cardSvc)
	res, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	d, err := f.decks.GetByName(ctx, "Spanish")
	require.NoError(t, err)
	cards, err := f.cards.ListByDeck(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, sm2.DefaultEaseFactor, cards[0].EaseFactor)
	require.Equal(t, 0, cards[0].Repetitions)
	require.True(t, cards[0].NextReview.Before(time.Now().UTC().Add(time.Minute)))
}

func TestCSVImport_TrimsTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := `"Deck Name","Deck Description","Card Front","Card Back","Tags","Next Review"` + "\n" +
		`"Spanish","","hola","hello","greeting; a1;",""` + "\n"

	im := NewCSVImporter(f.decks, f.deckSvc, f.cardSvc)
	res, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	d, err := f.decks.GetByName(ctx, "Spanish")
	require.NoError(t, err)
	cards, err := f.cards.ListByDeck(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, []string{"greeting", "a1"}, cards[0].Tags)
}

func TestCSVImport_ReusesExistingDeck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.deckSvc.Create(ctx, service.CreateDeckInput{Name: "Spanish", Description: "mine"})
	require.NoError(t, err)

	input := `"Deck Name","Deck Description","Card Front","Card Back","Tags","Next Review"` + "\n" +
		`"Spanish","other description","hola","hello","",""` + "\n"

	im := NewCSVImporter(f.decks, f.deckSvc, f.cardSvc)
	res, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	decks, err := f.decks.List(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	require.Equal(t, "mine", decks[0].Description)

	cards, err := f.cards.ListByDeck(ctx, existing.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
}

func TestCSVImport_CollectsRowErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`"Deck Name","Deck Description","Card Front","Card Back","Tags","Next Review"`,
		`"Spanish","","hola","hello","",""`,
		`"","","orphan","card","",""`,
		`"Spanish","","","missing front","",""`,
		`"Spanish","","adios","goodbye","",""`,
	}, "\n")

	im := NewCSVImporter(f.decks, f.deckSvc, f.cardSvc)
	res, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 2)
	require.Contains(t, res.Errors[0], "line 3")
	require.Contains(t, res.Errors[1], "line 4")
}

func TestCSVImport_BadHeader(t *testing.T) {
	f := newFixture(t)
	im := NewCSVImporter(f.decks, f.deckSvc, f.cardSvc)

	_, err := im.Import(context.Background(), strings.NewReader("just,three,columns\n"))
	require.Error(t, err)
}

func TestCSVRoundTrip_ContentSurvives(t *testing.T) {
	src := newFixture(t)
	ctx := context.Background()

	d, err := src.deckSvc.Create(ctx, service.CreateDeckInput{Name: "Spanish", Description: "vocab"})
	require.NoError(t, err)
	_, err = src.cardSvc.Create(ctx, service.CreateCardInput{
		DeckID: d.ID, Front: "hola", Back: "hello", Tags: []string{"greeting"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter(src.decks, src.cards).Export(ctx, &buf))

	dst := newFixture(t)
	res, err := NewCSVImporter(dst.decks, dst.deckSvc, dst.cardSvc).Import(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	got, err := dst.decks.GetByName(ctx, "Spanish")
	require.NoError(t, err)
	cards, err := dst.cards.ListByDeck(ctx, got.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Equal(t, "hola", cards[0].Front)
	require.Equal(t, []string{"greeting"}, cards[0].Tags)
}

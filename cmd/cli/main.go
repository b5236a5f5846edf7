// Command anki is the local client: decks, cards, and study sessions live in
// a sqlite database, with push/pull sync against the remote store.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Antoine-savt/anki-antoine/internal/config"
	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository/sqlite"
	"github.com/Antoine-savt/anki-antoine/internal/service"
	"github.com/Antoine-savt/anki-antoine/internal/sm2"
	syncengine "github.com/Antoine-savt/anki-antoine/internal/sync"
	"github.com/Antoine-savt/anki-antoine/internal/transfer"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `anki CLI
Usage:
  anki [--config file] [--server_url URL] [--user_id ID] [--db_path file] <cmd> [args]

Commands:
  version
  deck add      --name N [--description D] [--parent NAME] [--color C]
  deck list
  deck edit     --deck NAME|ID [--name N] [--description D] [--color C]
  deck rm       --deck NAME|ID
  card add      --deck NAME|ID --front F --back B [--tags a;b]
  card list     --deck NAME|ID [--due]
  card edit     --id UUID [--front F] [--back B] [--tags a;b]
  card rm       --id UUID
  study         --deck NAME|ID            (due cards only)
  drill         --deck NAME|ID            (every card, skipping allowed)
  sync push | pull | full | status
  export csv|json  --file PATH
  import csv|json  --file PATH
`)
	os.Exit(2)
}

type app struct {
	cfg     *config.Client
	store   *sqlite.Store
	decks   *sqlite.DeckRepo
	cards   *sqlite.CardRepo
	reviews *sqlite.ReviewRepo
	deckSvc *service.DeckServiceImpl
	cardSvc *service.CardServiceImpl
}

func main() {
	fs := flag.NewFlagSet("anki", flag.ExitOnError)
	config.ClientFlags(fs)
	fs.Usage = usage
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() < 1 {
		usage()
	}
	cmd := fs.Arg(0)
	args := fs.Args()[1:]

	cfg, err := config.LoadClient(fs)
	if err != nil {
		fail(err)
	}

	if cmd == "version" {
		fmt.Printf("anki %s (%s)\n", version, buildDate)
		return
	}

	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700)
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		fail(err)
	}
	defer store.Close()

	decks := sqlite.NewDeckRepo(store)
	cards := sqlite.NewCardRepo(store)
	reviews := sqlite.NewReviewRepo(store)
	a := &app{
		cfg:     cfg,
		store:   store,
		decks:   decks,
		cards:   cards,
		reviews: reviews,
		deckSvc: service.NewDeckService(decks, cards, reviews),
		cardSvc: service.NewCardService(decks, cards, reviews),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch cmd {
	case "deck":
		a.runDeck(ctx, args)
	case "card":
		a.runCard(ctx, args)
	case "study":
		a.runSession(ctx, args, service.ModeDueOnly)
	case "drill":
		a.runSession(ctx, args, service.ModeFullDeck)
	case "sync":
		a.runSync(ctx, args)
	case "export":
		a.runExport(ctx, args)
	case "import":
		a.runImport(ctx, args)
	default:
		usage()
	}
}

// ---- deck commands ----

func (a *app) runDeck(ctx context.Context, args []string) {
	if len(args) < 1 {
		usage()
	}
	switch args[0] {

	case "add":
		fs := flag.NewFlagSet("deck add", flag.ExitOnError)
		name := fs.String("name", "", "deck name")
		desc := fs.String("description", "", "deck description")
		parent := fs.String("parent", "", "parent deck name or id")
		color := fs.String("color", "", "display color")
		_ = fs.Parse(args[1:])
		if *name == "" {
			fail(errors.New("need --name"))
		}
		in := service.CreateDeckInput{Name: *name, Description: *desc, Color: *color}
		if *parent != "" {
			p, err := a.resolveDeck(ctx, *parent)
			if err != nil {
				fail(err)
			}
			in.ParentDeckID = &p.ID
		}
		d, err := a.deckSvc.Create(ctx, in)
		if err != nil {
			fail(err)
		}
		fmt.Println(d.ID)

	case "list":
		stats, err := a.deckSvc.Stats(ctx, time.Now().UTC())
		if err != nil {
			fail(err)
		}
		printJSON(stats)

	case "edit":
		fs := flag.NewFlagSet("deck edit", flag.ExitOnError)
		ref := fs.String("deck", "", "deck name or id")
		name := fs.String("name", "", "new name")
		desc := fs.String("description", "", "new description")
		color := fs.String("color", "", "new color")
		_ = fs.Parse(args[1:])
		d, err := a.resolveDeck(ctx, *ref)
		if err != nil {
			fail(err)
		}
		var in service.UpdateDeckInput
		if fs.Changed("name") {
			in.Name = name
		}
		if fs.Changed("description") {
			in.Description = desc
		}
		if fs.Changed("color") {
			in.Color = color
		}
		got, err := a.deckSvc.Update(ctx, d.ID, in)
		if err != nil {
			fail(err)
		}
		printJSON(got)

	case "rm":
		fs := flag.NewFlagSet("deck rm", flag.ExitOnError)
		ref := fs.String("deck", "", "deck name or id")
		_ = fs.Parse(args[1:])
		d, err := a.resolveDeck(ctx, *ref)
		if err != nil {
			fail(err)
		}
		if err := a.deckSvc.Delete(ctx, d.ID); err != nil {
			fail(err)
		}
		fmt.Println("deleted", d.Name)

	default:
		usage()
	}
}

// ---- card commands ----

func (a *app) runCard(ctx context.Context, args []string) {
	if len(args) < 1 {
		usage()
	}
	switch args[0] {

	case "add":
		fs := flag.NewFlagSet("card add", flag.ExitOnError)
		ref := fs.String("deck", "", "deck name or id")
		front := fs.String("front", "", "card front")
		back := fs.String("back", "", "card back")
		tags := fs.String("tags", "", "semicolon-separated tags")
		_ = fs.Parse(args[1:])
		d, err := a.resolveDeck(ctx, *ref)
		if err != nil {
			fail(err)
		}
		in := service.CreateCardInput{DeckID: d.ID, Front: *front, Back: *back}
		if *tags != "" {
			in.Tags = strings.Split(*tags, ";")
		}
		c, err := a.cardSvc.Create(ctx, in)
		if err != nil {
			fail(err)
		}
		fmt.Println(c.ID)

	case "list":
		fs := flag.NewFlagSet("card list", flag.ExitOnError)
		ref := fs.String("deck", "", "deck name or id")
		dueOnly := fs.Bool("due", false, "only cards due now")
		_ = fs.Parse(args[1:])
		d, err := a.resolveDeck(ctx, *ref)
		if err != nil {
			fail(err)
		}
		var list []model.Card
		if *dueOnly {
			list, err = a.cardSvc.ListDue(ctx, d.ID, time.Now().UTC())
		} else {
			list, err = a.cardSvc.ListByDeck(ctx, d.ID)
		}
		if err != nil {
			fail(err)
		}
		printJSON(list)

	case "edit":
		fs := flag.NewFlagSet("card edit", flag.ExitOnError)
		id := fs.String("id", "", "card id (uuid)")
		front := fs.String("front", "", "new front")
		back := fs.String("back", "", "new back")
		tags := fs.String("tags", "", "semicolon-separated tags")
		_ = fs.Parse(args[1:])
		cardID, err := uuid.FromString(*id)
		if err != nil {
			fail(fmt.Errorf("bad card id: %w", err))
		}
		var in service.UpdateCardInput
		if fs.Changed("front") {
			in.Front = front
		}
		if fs.Changed("back") {
			in.Back = back
		}
		if fs.Changed("tags") {
			var list []string
			if *tags != "" {
				list = strings.Split(*tags, ";")
			}
			in.Tags = &list
		}
		c, err := a.cardSvc.Update(ctx, cardID, in)
		if err != nil {
			fail(err)
		}
		printJSON(c)

	case "rm":
		fs := flag.NewFlagSet("card rm", flag.ExitOnError)
		id := fs.String("id", "", "card id (uuid)")
		_ = fs.Parse(args[1:])
		cardID, err := uuid.FromString(*id)
		if err != nil {
			fail(fmt.Errorf("bad card id: %w", err))
		}
		if err := a.cardSvc.Delete(ctx, cardID); err != nil {
			fail(err)
		}
		fmt.Println("deleted")

	default:
		usage()
	}
}

// ---- study / drill ----

func (a *app) runSession(ctx context.Context, args []string, mode service.SessionMode) {
	fs := flag.NewFlagSet("study", flag.ExitOnError)
	ref := fs.String("deck", "", "deck name or id")
	_ = fs.Parse(args)
	d, err := a.resolveDeck(ctx, *ref)
	if err != nil {
		fail(err)
	}

	svc := service.NewSessionService(a.cards, a.reviews)
	ss, err := svc.Start(ctx, d.ID, mode)
	if err != nil {
		if errors.Is(err, errs.ErrEmptyDeck) {
			if mode == service.ModeDueOnly {
				fmt.Println("nothing due — come back later")
			} else {
				fmt.Println("deck has no cards")
			}
			return
		}
		fail(err)
	}

	in := bufio.NewScanner(os.Stdin)
	for !ss.Finished() {
		card, err := ss.Current()
		if err != nil {
			fail(err)
		}
		pos, total := ss.Progress()
		fmt.Printf("\n[%d/%d] %s\n", pos, total, card.Front)
		fmt.Print("(enter to flip, q to quit) ")
		if !in.Scan() {
			break
		}
		if strings.TrimSpace(in.Text()) == "q" {
			break
		}
		_ = ss.Flip()
		fmt.Printf("  -> %s\n", card.Back)

		if mode == service.ModeFullDeck {
			fmt.Print("(enter for next, q to quit) ")
			if !in.Scan() || strings.TrimSpace(in.Text()) == "q" {
				break
			}
			if err := ss.Advance(); err != nil {
				fail(err)
			}
			continue
		}

		shown := time.Now()
		answered := false
		for !answered {
			fmt.Print("easy (e) / medium (m) / hard (h) / quit (q): ")
			if !in.Scan() {
				ss.End()
				printStats(ss.Stats())
				return
			}
			spent := int(time.Since(shown).Seconds())
			switch strings.TrimSpace(in.Text()) {
			case "e":
				err, answered = ss.Answer(ctx, sm2.Easy, spent), true
			case "m":
				err, answered = ss.Answer(ctx, sm2.Medium, spent), true
			case "h":
				err, answered = ss.Answer(ctx, sm2.Hard, spent), true
			case "q":
				ss.End()
				printStats(ss.Stats())
				return
			}
			if err != nil {
				fail(err)
			}
		}
	}
	ss.End()
	printStats(ss.Stats())
}

func printStats(st service.SessionStats) {
	fmt.Printf("\nsession done: %d answered, %d viewed of %d in %s\n",
		st.Answered, st.Viewed, st.Total, st.Duration.Round(time.Second))
}

// ---- sync ----

func (a *app) runSync(ctx context.Context, args []string) {
	if len(args) < 1 {
		usage()
	}

	client := syncengine.NewClient(a.cfg.ServerURL, a.cfg.UserID, a.cfg.HTTPTimeout)
	checkpoint := sqlite.NewCheckpointStore(a.store)
	engine := syncengine.NewEngine(client, a.decks, a.cards, a.reviews, checkpoint, zap.NewNop())

	switch args[0] {
	case "push":
		requireRemote(ctx, engine)
		if err := engine.Push(ctx); err != nil {
			fail(err)
		}
		fmt.Println("push ok")
	case "pull":
		requireRemote(ctx, engine)
		if err := engine.Pull(ctx); err != nil {
			fail(err)
		}
		fmt.Println("pull ok")
	case "full":
		requireRemote(ctx, engine)
		if err := engine.FullSync(ctx); err != nil {
			fail(err)
		}
		fmt.Println("sync ok")
	case "status":
		last, err := engine.LastSync(ctx)
		if err != nil {
			fail(err)
		}
		state := "unavailable"
		if engine.Available(ctx) {
			state = "available"
		}
		if last.Equal(time.Unix(0, 0)) {
			fmt.Printf("server %s, never synced\n", state)
		} else {
			fmt.Printf("server %s, last sync %s\n", state, last.Format(time.RFC3339))
		}
	default:
		usage()
	}
}

func requireRemote(ctx context.Context, engine *syncengine.Engine) {
	if !engine.Available(ctx) {
		fail(errs.ErrRemoteUnavailable)
	}
}

// ---- import / export ----

func (a *app) runExport(ctx context.Context, args []string) {
	format, path := transferArgs(args)
	f, err := os.Create(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()

	switch format {
	case "csv":
		err = transfer.NewCSVExporter(a.decks, a.cards).Export(ctx, f)
	case "json":
		err = transfer.ExportJSON(ctx, transfer.JSONStore{Decks: a.decks, Cards: a.cards, Reviews: a.reviews}, f)
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
	fmt.Println("exported to", path)
}

func (a *app) runImport(ctx context.Context, args []string) {
	format, path := transferArgs(args)
	f, err := os.Open(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()

	switch format {
	case "csv":
		res, err := transfer.NewCSVImporter(a.decks, a.deckSvc, a.cardSvc).Import(ctx, f)
		if err != nil {
			fail(err)
		}
		fmt.Printf("imported %d cards\n", res.Imported)
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, "skipped:", e)
		}
	case "json":
		b, err := transfer.ImportJSON(ctx, transfer.JSONStore{Decks: a.decks, Cards: a.cards, Reviews: a.reviews}, f)
		if err != nil {
			fail(err)
		}
		fmt.Printf("restored %d decks, %d cards, %d reviews\n", len(b.Decks), len(b.Cards), len(b.Reviews))
	default:
		usage()
	}
}

func transferArgs(args []string) (format, path string) {
	if len(args) < 1 {
		usage()
	}
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	file := fs.String("file", "", "target file")
	_ = fs.Parse(args[1:])
	if *file == "" {
		fail(errors.New("need --file"))
	}
	return args[0], *file
}

// ---- helpers ----

// resolveDeck accepts either an exact deck name or a uuid.
func (a *app) resolveDeck(ctx context.Context, ref string) (*model.Deck, error) {
	if ref == "" {
		return nil, errors.New("need --deck")
	}
	if d, err := a.decks.GetByName(ctx, ref); err == nil {
		return d, nil
	}
	id, err := uuid.FromString(ref)
	if err != nil {
		return nil, fmt.Errorf("no deck named %q", ref)
	}
	return a.decks.GetByID(ctx, id)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

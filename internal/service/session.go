package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
	"github.com/Antoine-savt/anki-antoine/internal/sm2"
)

// SessionMode selects which cards a study session works through and how it
// advances.
type SessionMode string

const (
	// ModeDueOnly studies cards whose next review is at or before the session
	// start. Every shown card must be graded; answers feed the scheduler.
	ModeDueOnly SessionMode = "due"

	// ModeFullDeck drills every card in the deck regardless of due date.
	// Advancing is flip-then-advance only: no grading, no scheduler call, no
	// review record.
	ModeFullDeck SessionMode = "full"
)

// Session is an in-progress walk through a fixed queue of cards. The queue is
// snapshotted at start; later store mutations do not alter it. A session is
// not safe for concurrent use and is never persisted: abandoning one loses
// nothing beyond the answers not yet given.
type Session struct {
	svc *SessionService

	mode    SessionMode
	deckID  uuid.UUID
	queue   []model.Card
	pos     int
	flipped bool

	answered int
	viewed   int
	started  time.Time
}

// SessionStats summarizes a finished (or ended) session.
type SessionStats struct {
	Total    int
	Answered int
	Viewed   int // advanced without grading (drill mode)
	Duration time.Duration
}

// SessionService starts study sessions over a deck.
type SessionService struct {
	cards   repository.CardRepository
	reviews repository.ReviewRepository
	now     func() time.Time
}

// NewSessionService constructs a SessionService over the given repositories.
func NewSessionService(cards repository.CardRepository, reviews repository.ReviewRepository) *SessionService {
	return &SessionService{cards: cards, reviews: reviews, now: time.Now}
}

// Start builds the session queue according to mode. An empty queue is
// ErrEmptyDeck; in due-only mode that means nothing is due yet, not that the
// deck has no cards.
func (s *SessionService) Start(ctx context.Context, deckID uuid.UUID, mode SessionMode) (*Session, error) {
	now := s.now().UTC()

	var (
		queue []model.Card
		err   error
	)
	switch mode {
	case ModeDueOnly:
		queue, err = s.cards.ListDue(ctx, deckID, now)
	case ModeFullDeck:
		queue, err = s.cards.ListByDeck(ctx, deckID)
	default:
		return nil, fmt.Errorf("%w: unknown session mode %q", errs.ErrValidation, mode)
	}
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, errs.ErrEmptyDeck
	}

	return &Session{
		svc:     s,
		mode:    mode,
		deckID:  deckID,
		queue:   queue,
		started: now,
	}, nil
}

// Current returns the card being studied. Past the end it returns
// ErrSessionFinished.
func (ss *Session) Current() (*model.Card, error) {
	if ss.Finished() {
		return nil, errs.ErrSessionFinished
	}
	return &ss.queue[ss.pos], nil
}

// Flipped reports whether the back of the current card is showing.
func (ss *Session) Flipped() bool { return ss.flipped }

// Flip reveals the back of the current card. Advancing requires a flip first;
// flipping twice is a no-op.
func (ss *Session) Flip() error {
	if ss.Finished() {
		return errs.ErrSessionFinished
	}
	ss.flipped = true
	return nil
}

// Answer grades the current card, persists the new scheduling state and the
// review record as one step, then advances. Only due-only sessions grade;
// drills never touch the scheduler. timeSpent is seconds looking at the card,
// best effort.
func (ss *Session) Answer(ctx context.Context, d sm2.Difficulty, timeSpent int) error {
	if ss.Finished() {
		return errs.ErrSessionFinished
	}
	if ss.mode != ModeDueOnly {
		return fmt.Errorf("%w: drill sessions are not graded", errs.ErrValidation)
	}
	if !ss.flipped {
		return fmt.Errorf("%w: answer before flip", errs.ErrValidation)
	}

	card := &ss.queue[ss.pos]
	now := ss.svc.now().UTC()
	quality := sm2.DifficultyToQuality(d)
	res := sm2.Schedule(sm2.State{
		EaseFactor:  card.EaseFactor,
		Interval:    card.Interval,
		Repetitions: card.Repetitions,
	}, quality, now)

	card.EaseFactor = res.EaseFactor
	card.Interval = res.Interval
	card.Repetitions = res.Repetitions
	card.NextReview = res.NextReview
	card.UpdatedAt = now
	if err := ss.svc.cards.Update(ctx, card); err != nil {
		return err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	rv := &model.Review{
		ID:         id,
		CardID:     card.ID,
		Quality:    quality,
		ReviewDate: now,
		TimeSpent:  timeSpent,
	}
	if err := ss.svc.reviews.Insert(ctx, rv); err != nil {
		return err
	}

	ss.answered++
	ss.advance()
	return nil
}

// Advance moves past the current card without grading it. Only full-deck
// drills advance unscored, and only after a flip.
func (ss *Session) Advance() error {
	if ss.Finished() {
		return errs.ErrSessionFinished
	}
	if ss.mode != ModeFullDeck {
		return fmt.Errorf("%w: graded sessions advance by answering", errs.ErrValidation)
	}
	if !ss.flipped {
		return fmt.Errorf("%w: advance before flip", errs.ErrValidation)
	}
	ss.viewed++
	ss.advance()
	return nil
}

// End aborts the session. Card updates and reviews already persisted stay;
// only the in-memory queue is discarded.
func (ss *Session) End() {
	ss.pos = len(ss.queue)
	ss.flipped = false
}

// Finished reports whether the queue is exhausted.
func (ss *Session) Finished() bool { return ss.pos >= len(ss.queue) }

// Progress returns the 1-based position and the queue length.
func (ss *Session) Progress() (int, int) {
	pos := ss.pos + 1
	if pos > len(ss.queue) {
		pos = len(ss.queue)
	}
	return pos, len(ss.queue)
}

// Stats summarizes the session so far.
func (ss *Session) Stats() SessionStats {
	return SessionStats{
		Total:    len(ss.queue),
		Answered: ss.answered,
		Viewed:   ss.viewed,
		Duration: ss.svc.now().UTC().Sub(ss.started),
	}
}

func (ss *Session) advance() {
	ss.pos++
	ss.flipped = false
}

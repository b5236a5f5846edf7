package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/Antoine-savt/anki-antoine/internal/errs"
	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
)

// Engine runs push and pull cycles against the remote store. A mutex
// serializes cycles so a pull never interleaves with a push. The lastSync
// checkpoint only ever advances on a fully successful cycle.
type Engine struct {
	mu gosync.Mutex

	client     *Client
	decks      repository.DeckRepository
	cards      repository.CardRepository
	reviews    repository.ReviewRepository
	checkpoint repository.CheckpointStore
	logger     *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(client *Client, decks repository.DeckRepository, cards repository.CardRepository,
	reviews repository.ReviewRepository, checkpoint repository.CheckpointStore, logger *zap.Logger) *Engine {
	return &Engine{
		client:     client,
		decks:      decks,
		cards:      cards,
		reviews:    reviews,
		checkpoint: checkpoint,
		logger:     logger,
	}
}

// Available reports whether the remote store answers its health probe.
func (e *Engine) Available(ctx context.Context) bool {
	return e.client.Health(ctx)
}

// Push uploads the full local snapshot. On success the checkpoint advances to
// the server's lastSync stamp; on any failure it stays untouched.
func (e *Engine) Push(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.localSnapshot(ctx)
	if err != nil {
		return err
	}
	// The upload body carries the last-known checkpoint; the server echoes
	// its own stamp back and that is what advances the checkpoint below.
	snap.LastSync, err = e.checkpoint.LastSync(ctx)
	if err != nil {
		return err
	}

	var lastSync time.Time
	err = e.withRetry(ctx, func(ctx context.Context) error {
		var uErr error
		lastSync, uErr = e.client.Upload(ctx, snap)
		return uErr
	})
	if err != nil {
		e.logger.Warn("push failed", zap.Error(err))
		return err
	}

	if err := e.checkpoint.SetLastSync(ctx, lastSync); err != nil {
		return err
	}
	e.logger.Info("push complete",
		zap.Int("decks", len(snap.Decks)),
		zap.Int("cards", len(snap.Cards)),
		zap.Int("reviews", len(snap.Reviews)),
		zap.Time("lastSync", lastSync),
	)
	return nil
}

// Pull downloads the remote snapshot and merges it remote-wins: decks and
// cards are overwritten whole by id, reviews are added. Local records absent
// from the remote are kept, never deleted.
func (e *Engine) Pull(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var snap *model.Snapshot
	err := e.withRetry(ctx, func(ctx context.Context) error {
		var dErr error
		snap, dErr = e.client.Download(ctx)
		return dErr
	})
	if err != nil {
		e.logger.Warn("pull failed", zap.Error(err))
		return err
	}

	if err := e.decks.UpsertBatch(ctx, snap.Decks); err != nil {
		return err
	}
	if err := e.cards.UpsertBatch(ctx, snap.Cards); err != nil {
		return err
	}
	if err := e.reviews.UpsertBatch(ctx, snap.Reviews); err != nil {
		return err
	}

	if err := e.checkpoint.SetLastSync(ctx, snap.LastSync); err != nil {
		return err
	}
	e.logger.Info("pull complete",
		zap.Int("decks", len(snap.Decks)),
		zap.Int("cards", len(snap.Cards)),
		zap.Int("reviews", len(snap.Reviews)),
		zap.Time("lastSync", snap.LastSync),
	)
	return nil
}

// FullSync pushes then pulls, so local changes land on the server before the
// merged state comes back down.
func (e *Engine) FullSync(ctx context.Context) error {
	if err := e.Push(ctx); err != nil {
		return err
	}
	return e.Pull(ctx)
}

// LastSync reports the checkpoint of the most recent successful cycle.
func (e *Engine) LastSync(ctx context.Context) (time.Time, error) {
	return e.checkpoint.LastSync(ctx)
}

func (e *Engine) localSnapshot(ctx context.Context) (*model.Snapshot, error) {
	decks, err := e.decks.List(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := e.cards.List(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := e.reviews.List(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Snapshot{Decks: decks, Cards: cards, Reviews: reviews}, nil
}

// withRetry wraps a transport call with a short fibonacci backoff. Only
// remote-unavailable failures retry; anything else fails immediately.
func (e *Engine) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, errs.ErrRemoteUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

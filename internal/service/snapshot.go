package service

import (
	"context"
	"time"

	"github.com/Antoine-savt/anki-antoine/internal/model"
	"github.com/Antoine-savt/anki-antoine/internal/repository"
)

// SnapshotService is the server-side logic behind the sync endpoints.
type SnapshotService interface {
	// Download returns the user's full collections stamped with the server time.
	Download(ctx context.Context, userID string) (*model.Snapshot, error)
	// Upload merges the client's snapshot and returns the new lastSync stamp.
	Upload(ctx context.Context, userID string, snap *model.Snapshot) (time.Time, error)
}

type SnapshotServiceImpl struct {
	repo repository.SnapshotRepository
	now  func() time.Time
}

// NewSnapshotService constructs SnapshotService over the given repository.
func NewSnapshotService(repo repository.SnapshotRepository) *SnapshotServiceImpl {
	return &SnapshotServiceImpl{repo: repo, now: time.Now}
}

func (s *SnapshotServiceImpl) Download(ctx context.Context, userID string) (*model.Snapshot, error) {
	snap, err := s.repo.GetSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap.LastSync = s.now().UTC()
	return snap, nil
}

func (s *SnapshotServiceImpl) Upload(ctx context.Context, userID string, snap *model.Snapshot) (time.Time, error) {
	if err := s.repo.ApplySnapshot(ctx, userID, snap); err != nil {
		return time.Time{}, err
	}
	return s.now().UTC(), nil
}

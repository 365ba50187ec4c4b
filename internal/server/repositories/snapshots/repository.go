package snapshots

import (
	"context"
	"time"

	"github.com/drivepool/drivepool/internal/server/models"
)

// Repository caches usage snapshots. Snapshots are a performance cache only;
// correctness never depends on one being present.
type Repository interface {
	// LatestSince returns the newest snapshot taken at or after cutoff,
	// or common.ErrNotFound.
	LatestSince(ctx context.Context, cutoff time.Time) (*models.UsageSnapshot, error)

	// Latest returns the newest snapshot regardless of age, or
	// common.ErrNotFound.
	Latest(ctx context.Context) (*models.UsageSnapshot, error)

	// Save persists a new snapshot.
	Save(ctx context.Context, s *models.UsageSnapshot) error

	// DeleteAll removes every snapshot.
	DeleteAll(ctx context.Context) error
}

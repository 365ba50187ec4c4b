package files

import (
	"context"

	"github.com/drivepool/drivepool/internal/server/models"
)

// Repository is the persistent index of uploaded files. The dedup key is
// (file name, folder path, user).
type Repository interface {
	// FindByKey returns the record for the dedup key, or common.ErrNotFound.
	FindByKey(ctx context.Context, fileName, folderPath, user string) (*models.FileRecord, error)

	// Upsert inserts the record or, when the dedup key already exists,
	// replaces the stored fields in place.
	Upsert(ctx context.Context, rec *models.FileRecord) error

	// Search returns records matching the filter, oldest first.
	Search(ctx context.Context, f models.FileFilter) ([]*models.FileRecord, error)

	// SumSizeByOwner returns total stored bytes attributed to one account.
	SumSizeByOwner(ctx context.Context, ownerEmail string) (int64, error)

	// DeleteAll removes every record. Used by the reset operation only.
	DeleteAll(ctx context.Context) error
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/drivepool/drivepool/internal/dbx"
	"github.com/drivepool/drivepool/internal/server/repositories/cursor"
	"github.com/drivepool/drivepool/internal/server/repositories/files"
	"github.com/drivepool/drivepool/internal/server/repositories/snapshots"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes the schema migration hook.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Cursor(db dbx.DBTX) cursor.Repository
	Snapshots(db dbx.DBTX) snapshots.Repository
}

package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/drivepool/drivepool/internal/dbx"
)

// PostgresRepository implements the cursor over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Advance increments and returns the cursor in one statement. The upsert
// makes first use and every later increment a single atomic row update.
func (r *PostgresRepository) Advance(ctx context.Context, name string) (int64, error) {
	query :=
		`INSERT INTO pool_cursor (name, value) VALUES ($1, 1)
		 ON CONFLICT (name)
		 DO UPDATE SET value = pool_cursor.value + 1
		 RETURNING value
		 `

	var value int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&value)

	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return value, nil
}

// Current reads the cursor without advancing it.
func (r *PostgresRepository) Current(ctx context.Context, name string) (int64, error) {
	query := `SELECT value FROM pool_cursor WHERE name=$1`

	var value int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return value, nil
}

// Reset sets the cursor back to 0.
func (r *PostgresRepository) Reset(ctx context.Context, name string) error {
	query :=
		`INSERT INTO pool_cursor (name, value) VALUES ($1, 0)
		 ON CONFLICT (name)
		 DO UPDATE SET value = 0
		 `

	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

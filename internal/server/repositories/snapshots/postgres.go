package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/dbx"
	"github.com/drivepool/drivepool/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository stores snapshots as JSONB payloads; the shape evolves
// with the dashboard, so individual columns would only get in the way.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) latest(ctx context.Context, query string, args ...any) (*models.UsageSnapshot, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	var s models.UsageSnapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("snapshot decode error: %w", err)
	}
	return &s, nil
}

// LatestSince returns the newest snapshot not older than cutoff.
func (r *PostgresRepository) LatestSince(ctx context.Context, cutoff time.Time) (*models.UsageSnapshot, error) {
	query := ` SELECT payload FROM usage_snapshots
		WHERE created_at >= $1
		ORDER BY created_at DESC LIMIT 1
		`
	return r.latest(ctx, query, cutoff)
}

// Latest returns the newest snapshot regardless of age.
func (r *PostgresRepository) Latest(ctx context.Context) (*models.UsageSnapshot, error) {
	query := ` SELECT payload FROM usage_snapshots
		ORDER BY created_at DESC LIMIT 1
		`
	return r.latest(ctx, query)
}

// Save persists a new snapshot row.
func (r *PostgresRepository) Save(ctx context.Context, s *models.UsageSnapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot encode error: %w", err)
	}

	query := `INSERT INTO usage_snapshots (id, payload, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), payload, s.Timestamp); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAll removes every snapshot.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM usage_snapshots`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

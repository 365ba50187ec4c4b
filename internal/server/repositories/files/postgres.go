package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/dbx"
	"github.com/drivepool/drivepool/internal/server/models"
)

// PostgresRepository implements the file index over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, file_name, folder_path, user_name, folder_id, owner_email, backing_id,
		mime_type, size, md5_checksum, sha256_checksum, public, starred, trashed,
		permissions, download_url, created_at, modified_at`

func scanFile(row interface{ Scan(dest ...any) error }) (*models.FileRecord, error) {
	var rec models.FileRecord
	var permissions []byte
	err := row.Scan(&rec.ID, &rec.FileName, &rec.FolderPath, &rec.User, &rec.FolderID,
		&rec.OwnerEmail, &rec.BackingID, &rec.MimeType, &rec.Size, &rec.MD5Checksum,
		&rec.SHA256, &rec.Public, &rec.Starred, &rec.Trashed, &permissions,
		&rec.DownloadURL, &rec.CreatedAt, &rec.ModifiedAt)
	if err != nil {
		return nil, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &rec.Permissions); err != nil {
			return nil, fmt.Errorf("permissions decode error: %w", err)
		}
	}
	return &rec, nil
}

// FindByKey looks a file up by its dedup key.
func (r *PostgresRepository) FindByKey(ctx context.Context, fileName, folderPath, user string) (*models.FileRecord, error) {
	query := ` SELECT ` + fileColumns + ` FROM files
		WHERE file_name=$1 AND folder_path=$2 AND user_name=$3
		`
	rec, err := scanFile(r.db.QueryRowContext(ctx, query, fileName, folderPath, user))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Upsert writes the record, replacing the stored fields when the dedup key
// already exists. The record is written as one statement so a failed backing
// upload never leaves a partial row behind.
func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.FileRecord) error {
	permissions, err := json.Marshal(rec.Permissions)
	if err != nil {
		return fmt.Errorf("permissions encode error: %w", err)
	}
	if rec.Permissions == nil {
		permissions = []byte(`[]`)
	}

	query := `
		INSERT INTO files (id, file_name, folder_path, user_name, folder_id, owner_email, backing_id,
			mime_type, size, md5_checksum, sha256_checksum, public, starred, trashed,
			permissions, download_url, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (file_name, folder_path, user_name)
		DO UPDATE SET
			folder_id = EXCLUDED.folder_id,
			owner_email = EXCLUDED.owner_email,
			backing_id = EXCLUDED.backing_id,
			mime_type = EXCLUDED.mime_type,
			size = EXCLUDED.size,
			md5_checksum = EXCLUDED.md5_checksum,
			sha256_checksum = EXCLUDED.sha256_checksum,
			public = EXCLUDED.public,
			starred = EXCLUDED.starred,
			trashed = EXCLUDED.trashed,
			permissions = EXCLUDED.permissions,
			download_url = EXCLUDED.download_url,
			modified_at = EXCLUDED.modified_at;
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.FileName, rec.FolderPath, rec.User, rec.FolderID, rec.OwnerEmail, rec.BackingID,
		rec.MimeType, rec.Size, rec.MD5Checksum, rec.SHA256, rec.Public, rec.Starred, rec.Trashed,
		permissions, rec.DownloadURL, rec.CreatedAt, rec.ModifiedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Search returns records matching the filter, oldest first. Zero-valued
// filter fields are ignored.
func (r *PostgresRepository) Search(ctx context.Context, f models.FileFilter) ([]*models.FileRecord, error) {
	conditions := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if f.FileName != "" {
		add("file_name", f.FileName)
	}
	if f.FolderPath != "" {
		add("folder_path", f.FolderPath)
	}
	if f.User != "" {
		add("user_name", f.User)
	}
	if f.OwnerEmail != "" {
		add("owner_email", f.OwnerEmail)
	}
	if f.BackingID != "" {
		add("backing_id", f.BackingID)
	}
	if f.MimeType != "" {
		add("mime_type", f.MimeType)
	}
	if f.Starred != nil {
		add("starred", *f.Starred)
	}
	if f.Trashed != nil {
		add("trashed", *f.Trashed)
	}

	query := `SELECT ` + fileColumns + ` FROM files`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SumSizeByOwner returns total live bytes attributed to one account.
// Capacity-aware selection reads this instead of scanning the account.
func (r *PostgresRepository) SumSizeByOwner(ctx context.Context, ownerEmail string) (int64, error) {
	query := ` SELECT COALESCE(SUM(size), 0) FROM files
		WHERE owner_email=$1 AND trashed=false
		`
	var total int64
	if err := r.db.QueryRowContext(ctx, query, ownerEmail).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

// DeleteAll removes every file record.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

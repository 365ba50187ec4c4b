// Package services contains the upload orchestration: dedup check, account
// selection, folder resolution, streaming upload, permissioning, and the
// index write, in that order.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/dbx"
	"github.com/drivepool/drivepool/internal/logging"
	sc "github.com/drivepool/drivepool/internal/server/config"
	"github.com/drivepool/drivepool/internal/server/drive"
	"github.com/drivepool/drivepool/internal/server/folder"
	"github.com/drivepool/drivepool/internal/server/models"
	"github.com/drivepool/drivepool/internal/server/permissions"
	"github.com/drivepool/drivepool/internal/server/pool"
	"github.com/drivepool/drivepool/internal/server/repositories/files"
	"github.com/drivepool/drivepool/internal/server/repositories/repomanager"
	"github.com/drivepool/drivepool/internal/server/stats"
	"github.com/drivepool/drivepool/internal/server/upload"
)

// AnonymousUser is recorded when a request carries no user identity.
const AnonymousUser = "anonymous"

// UploadRequest is the typed, validated form of one inbound upload. The core
// never inspects transport-level request objects; the HTTP boundary fills
// this in.
type UploadRequest struct {
	Source     upload.Source
	FileName   string
	User       string
	FolderName string
	SetPublic  bool
	ReUpload   bool
	ShareWith  []string
}

// folderSegments is the ordered folder path for the request: the user's
// folder, optionally with one named subfolder.
func (r *UploadRequest) folderSegments() []string {
	if r.FolderName != "" {
		return []string{r.User, r.FolderName}
	}
	return []string{r.User}
}

// UploadResult is the outcome of SubmitUpload.
type UploadResult struct {
	Record        *models.FileRecord
	FoundExisting bool
	Message       string
}

// Service owns one handle to the index store and one to the account pool for
// the process lifetime; both are threaded through every call.
type Service struct {
	db         *sql.DB
	rm         repomanager.RepositoryManager
	files      files.Repository
	pool       *pool.Pool
	selector   *pool.Selector
	pipeline   *upload.Pipeline
	aggregator *stats.Aggregator
	cfg        *sc.Config
	logger     logging.Logger
	newID      func() string
}

// NewService wires the service from a database handle, the repository
// manager, and the constructed pool.
func NewService(db *sql.DB, rm repomanager.RepositoryManager, p *pool.Pool, cfg *sc.Config, logger logging.Logger) *Service {
	filesRepo := rm.Files(db)
	cursorRepo := rm.Cursor(db)
	snapshotsRepo := rm.Snapshots(db)

	selector := pool.NewSelector(p, cursorRepo, filesRepo.SumSizeByOwner, cfg.CapacityAware, logger)
	aggregator := stats.NewAggregator(p, snapshotsRepo, cursorRepo, cfg.StatsFreshness, logger)

	return &Service{
		db:         db,
		rm:         rm,
		files:      filesRepo,
		pool:       p,
		selector:   selector,
		pipeline:   upload.NewPipeline(),
		aggregator: aggregator,
		cfg:        cfg,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// SubmitUpload runs the full pipeline for one upload request.
//
// A record that already exists under the dedup key short-circuits unless the
// caller asked for a re-upload, in which case the replacement is routed to
// the account that holds the original file. The index is written only after
// the backing upload succeeds, so a failed transfer never leaves a
// dedup-visible record behind.
func (s *Service) SubmitUpload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req.User == "" {
		req.User = AnonymousUser
	}
	segments := req.folderSegments()
	folderPath := strings.Join(segments, "/")

	existing, err := s.files.FindByKey(ctx, req.FileName, folderPath, req.User)
	found := err == nil
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if found && !req.ReUpload {
		return &UploadResult{Record: existing, FoundExisting: true}, nil
	}

	override := ""
	existingBackingID := ""
	if found {
		override = existing.OwnerEmail
		existingBackingID = existing.BackingID
	}

	account, err := s.selector.Select(ctx, override)
	if err != nil {
		return nil, err
	}

	folderID, err := folder.NewResolver().Resolve(ctx, account.Client, segments, drive.RootFolderID)
	if err != nil {
		return nil, err
	}

	rec, err := s.pipeline.Run(ctx, upload.Target{
		Client:     account.Client,
		OwnerEmail: account.Identity,
		FolderID:   folderID,
		FolderPath: segments,
		User:       req.User,
	}, req.FileName, req.Source, existingBackingID)
	if err != nil {
		return nil, err
	}

	message := ""
	if req.SetPublic || len(req.ShareWith) > 0 {
		res := permissions.Apply(ctx, account.Client, rec.BackingID, req.SetPublic, req.ShareWith)
		message = res.Message
		rec.Permissions = make([]models.Permission, len(res.Applied))
		for i, p := range res.Applied {
			rec.Permissions[i] = models.Permission(p)
		}
		for _, p := range res.Applied {
			if p.Type == "anyone" {
				rec.Public = true
			}
		}
		if !res.Status {
			s.logger.Warn(ctx, "permission grants partially failed",
				"file", req.FileName, "message", res.Message)
		}
	}

	if found {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = s.newID()
	}

	if err := s.files.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	return &UploadResult{Record: rec, FoundExisting: found, Message: message}, nil
}

// SourceFetchTimeout is the configured ceiling on fetching a URL source.
func (s *Service) SourceFetchTimeout() time.Duration {
	return s.cfg.SourceFetchTimeout
}

// QueryFiles returns index records matching the filter, oldest first.
func (s *Service) QueryFiles(ctx context.Context, f models.FileFilter) ([]*models.FileRecord, error) {
	return s.files.Search(ctx, f)
}

// FileLink returns a short-lived download link for one indexed file,
// regardless of its public flag.
func (s *Service) FileLink(ctx context.Context, fileName, folderPath, user string, ttl time.Duration) (string, error) {
	rec, err := s.files.FindByKey(ctx, fileName, folderPath, user)
	if err != nil {
		return "", err
	}
	account, ok := s.pool.ByIdentity(rec.OwnerEmail)
	if !ok {
		return "", common.ErrNoAccountAvailable
	}
	return account.Client.PresignGet(ctx, rec.BackingID, ttl)
}

// ResetAll deletes every object in every account, clears the index and the
// snapshots, and reinitializes the cursor. Destructive and irreversible.
//
// The index cleanup runs in one transaction: a reset must never leave the
// cursor pointing into an index that was only partially cleared.
func (s *Service) ResetAll(ctx context.Context) error {
	for _, account := range s.pool.Accounts() {
		if err := s.drainAccount(ctx, account); err != nil {
			return err
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Files(tx).DeleteAll(ctx); err != nil {
			return err
		}
		if err := s.rm.Snapshots(tx).DeleteAll(ctx); err != nil {
			return err
		}
		return s.rm.Cursor(tx).Reset(ctx, pool.CursorName)
	})
}

func (s *Service) drainAccount(ctx context.Context, account *pool.Account) error {
	for _, trashed := range []bool{false, true} {
		// Collect first: deleting while paging would shift the listing.
		var ids []string
		token := ""
		for {
			page, err := account.Client.ListFiles(ctx, drive.ListQuery{Trashed: trashed}, token)
			if err != nil {
				return err
			}
			for _, f := range page.Files {
				ids = append(ids, f.ID)
			}
			if page.NextToken == "" {
				break
			}
			token = page.NextToken
		}

		for _, id := range ids {
			if err := account.Client.DeleteFile(ctx, id); err != nil {
				return err
			}
		}
	}

	s.logger.Info(ctx, "account drained", "identity", account.Identity)
	return nil
}

// GetStats returns the pool-wide usage snapshot.
func (s *Service) GetStats(ctx context.Context) (*models.UsageSnapshot, error) {
	return s.aggregator.GetStats(ctx)
}

package upload

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strings"
	"time"

	"github.com/drivepool/drivepool/internal/server/drive"
	"github.com/drivepool/drivepool/internal/server/models"
)

// digestReader computes md5, sha256 and the byte count of a stream while it
// is being consumed, so the record's hashes and size cost no extra pass.
type digestReader struct {
	r    io.Reader
	md5  hash.Hash
	sha  hash.Hash
	size int64
}

func newDigestReader(r io.Reader) *digestReader {
	return &digestReader{r: r, md5: md5.New(), sha: sha256.New()}
}

func (d *digestReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if n > 0 {
		d.md5.Write(p[:n])
		d.sha.Write(p[:n])
		d.size += int64(n)
	}
	return n, err
}

// Pipeline performs the create-or-replace upload for one request.
type Pipeline struct {
	now func() time.Time
}

// NewPipeline constructs a pipeline using the wall clock.
func NewPipeline() *Pipeline {
	return &Pipeline{now: func() time.Time { return time.Now().UTC() }}
}

// Target names the destination of one upload: the account, the resolved
// folder, and the human-readable path that was resolved into it.
type Target struct {
	Client     drive.Client
	OwnerEmail string
	FolderID   string
	FolderPath []string
	User       string
}

// Run streams the source into the target account and returns the assembled
// file record. With an empty existingBackingID a new file is created;
// otherwise the existing file's content is replaced in place.
//
// Nothing is retried here and no record is persisted by this call: if the
// source stream or the upstream call fails mid-transfer the error is returned
// and the caller's index is untouched, so a resubmission goes through the
// normal dedup path.
func (p *Pipeline) Run(ctx context.Context, t Target, name string, src Source, existingBackingID string) (*models.FileRecord, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dr := newDigestReader(rc)
	mimeType := MimeType(name)

	var f *drive.File
	if existingBackingID == "" {
		f, err = t.Client.CreateFile(ctx, name, t.FolderID, mimeType, dr)
	} else {
		f, err = t.Client.UpdateFile(ctx, existingBackingID, name, t.FolderID, mimeType, dr)
	}
	if err != nil {
		return nil, err
	}

	now := p.now()
	return &models.FileRecord{
		FileName:    name,
		FolderID:    t.FolderID,
		FolderPath:  strings.Join(t.FolderPath, "/"),
		User:        t.User,
		OwnerEmail:  t.OwnerEmail,
		BackingID:   f.ID,
		MimeType:    mimeType,
		Size:        dr.size,
		MD5Checksum: hex.EncodeToString(dr.md5.Sum(nil)),
		SHA256:      hex.EncodeToString(dr.sha.Sum(nil)),
		DownloadURL: t.Client.DownloadURL(f.ID),
		CreatedAt:   now,
		ModifiedAt:  now,
	}, nil
}

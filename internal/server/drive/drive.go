// Package drive abstracts one backing storage account. The interface mirrors
// the remote API surface the upload flow needs: create/update/list/delete
// files, find/create folders, grant permissions.
package drive

import (
	"context"
	"io"
	"time"
)

// RootFolderID addresses the top of an account's namespace.
const RootFolderID = ""

// File describes one stored object as the account reports it. ID is the
// account's own backing identifier and is meaningless outside that account.
type File struct {
	ID         string
	Name       string
	MimeType   string
	Size       int64
	IsFolder   bool
	Trashed    bool
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Folder identifies one folder inside an account.
type Folder struct {
	ID   string
	Name string
}

// Permission is one grant on a stored file.
type Permission struct {
	Type    string // "anyone" or "user"
	Role    string // "reader" or "writer"
	Grantee string // principal identifier; empty for "anyone"
}

// ListQuery restricts a listing to live or trashed objects.
type ListQuery struct {
	Trashed bool
}

// Page is one page of a file listing. An empty NextToken means the listing
// is exhausted.
type Page struct {
	Files     []File
	NextToken string
}

// Client is the per-account storage handle. Implementations must be safe for
// concurrent use; the pool shares one client across all requests.
type Client interface {
	// CreateFile streams body into a new file under folderID.
	CreateFile(ctx context.Context, name, folderID, mimeType string, body io.Reader) (*File, error)

	// UpdateFile replaces the content of backingID in place and repoints it
	// under folderID, removing the prior parent link first.
	UpdateFile(ctx context.Context, backingID, name, folderID, mimeType string, body io.Reader) (*File, error)

	// ListFiles returns one page of the account's objects.
	ListFiles(ctx context.Context, q ListQuery, pageToken string) (*Page, error)

	// DeleteFile permanently removes one object.
	DeleteFile(ctx context.Context, backingID string) error

	// FindFolder looks up a child folder by exact name under parentID and
	// returns common.ErrNotFound when no such folder exists.
	FindFolder(ctx context.Context, name, parentID string) (*Folder, error)

	// CreateFolder creates a child folder under parentID.
	CreateFolder(ctx context.Context, name, parentID string) (*Folder, error)

	// SetPermission applies one grant to a stored file.
	SetPermission(ctx context.Context, backingID string, p Permission) error

	// DownloadURL derives the stable public link for a backing identifier.
	// Pure computation, no network round trip.
	DownloadURL(backingID string) string

	// PresignGet returns a short-lived link usable without public access.
	PresignGet(ctx context.Context, backingID string, ttl time.Duration) (string, error)
}

package folder

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/server/drive"
)

// fakeClient keeps folders as parentID+name keys and counts calls so tests
// can assert how often the resolver went to the account.
type fakeClient struct {
	folders     map[string]string // parentID + "\x00" + name -> folder id
	findCalls   int
	createCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{folders: make(map[string]string)}
}

func (f *fakeClient) key(name, parentID string) string { return parentID + "\x00" + name }

func (f *fakeClient) FindFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	f.findCalls++
	if id, ok := f.folders[f.key(name, parentID)]; ok {
		return &drive.Folder{ID: id, Name: name}, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeClient) CreateFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	f.createCalls++
	id := parentID + name + "/"
	f.folders[f.key(name, parentID)] = id
	return &drive.Folder{ID: id, Name: name}, nil
}

func (f *fakeClient) CreateFile(ctx context.Context, name, folderID, mimeType string, body io.Reader) (*drive.File, error) {
	return nil, nil
}

func (f *fakeClient) UpdateFile(ctx context.Context, backingID, name, folderID, mimeType string, body io.Reader) (*drive.File, error) {
	return nil, nil
}

func (f *fakeClient) ListFiles(ctx context.Context, q drive.ListQuery, pageToken string) (*drive.Page, error) {
	return &drive.Page{}, nil
}

func (f *fakeClient) DeleteFile(ctx context.Context, backingID string) error { return nil }

func (f *fakeClient) SetPermission(ctx context.Context, backingID string, p drive.Permission) error {
	return nil
}

func (f *fakeClient) DownloadURL(backingID string) string { return "http://store/" + backingID }

func (f *fakeClient) PresignGet(ctx context.Context, backingID string, ttl time.Duration) (string, error) {
	return "", nil
}

func TestResolve_EmptyPath(t *testing.T) {
	client := newFakeClient()
	r := NewResolver()

	got, err := r.Resolve(context.Background(), client, nil, drive.RootFolderID)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != drive.RootFolderID {
		t.Fatalf("empty path must return the root, got %q", got)
	}
	if client.findCalls != 0 {
		t.Fatalf("empty path must not touch the account, findCalls=%d", client.findCalls)
	}
}

func TestResolve_CreatesMissingSegments(t *testing.T) {
	client := newFakeClient()
	r := NewResolver()

	got, err := r.Resolve(context.Background(), client, []string{"alice", "photos"}, drive.RootFolderID)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != "alice/photos/" {
		t.Fatalf("unexpected folder id: %q", got)
	}
	if client.createCalls != 2 {
		t.Fatalf("want 2 creations, got %d", client.createCalls)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	client := newFakeClient()

	first, err := NewResolver().Resolve(context.Background(), client, []string{"alice"}, drive.RootFolderID)
	if err != nil {
		t.Fatalf("first Resolve error: %v", err)
	}
	second, err := NewResolver().Resolve(context.Background(), client, []string{"alice"}, drive.RootFolderID)
	if err != nil {
		t.Fatalf("second Resolve error: %v", err)
	}

	if first != second {
		t.Fatalf("resolutions differ: %q vs %q", first, second)
	}
	if client.createCalls != 1 {
		t.Fatalf("second resolution must reuse the folder, createCalls=%d", client.createCalls)
	}
}

func TestResolve_MemoSkipsLookup(t *testing.T) {
	client := newFakeClient()
	r := NewResolver()

	if _, err := r.Resolve(context.Background(), client, []string{"alice"}, drive.RootFolderID); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	calls := client.findCalls

	if _, err := r.Resolve(context.Background(), client, []string{"alice"}, drive.RootFolderID); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if client.findCalls != calls {
		t.Fatalf("memoized resolution must not look up again, findCalls=%d", client.findCalls)
	}
}

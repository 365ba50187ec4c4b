package permissions

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/drivepool/drivepool/internal/server/drive"
)

// grantRecorder captures grants and fails the principals listed in failFor.
type grantRecorder struct {
	grants  []drive.Permission
	failFor map[string]bool
}

func (g *grantRecorder) SetPermission(ctx context.Context, backingID string, p drive.Permission) error {
	if g.failFor[p.Grantee] || (p.Type == "anyone" && g.failFor["anyone"]) {
		return errors.New("access denied")
	}
	g.grants = append(g.grants, p)
	return nil
}

func (g *grantRecorder) CreateFile(ctx context.Context, name, folderID, mimeType string, body io.Reader) (*drive.File, error) {
	return nil, nil
}

func (g *grantRecorder) UpdateFile(ctx context.Context, backingID, name, folderID, mimeType string, body io.Reader) (*drive.File, error) {
	return nil, nil
}

func (g *grantRecorder) ListFiles(ctx context.Context, q drive.ListQuery, pageToken string) (*drive.Page, error) {
	return &drive.Page{}, nil
}

func (g *grantRecorder) DeleteFile(ctx context.Context, backingID string) error { return nil }

func (g *grantRecorder) FindFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	return nil, nil
}

func (g *grantRecorder) CreateFolder(ctx context.Context, name, parentID string) (*drive.Folder, error) {
	return nil, nil
}

func (g *grantRecorder) DownloadURL(backingID string) string { return "" }

func (g *grantRecorder) PresignGet(ctx context.Context, backingID string, ttl time.Duration) (string, error) {
	return "", nil
}

func TestApply_PublicAndShares(t *testing.T) {
	client := &grantRecorder{}

	res := Apply(context.Background(), client, "alice/report.pdf", true,
		[]string{"bob@example.com", " ", "carol@example.com"})

	if !res.Status {
		t.Fatalf("unexpected failure: %s", res.Message)
	}
	if len(res.Applied) != 3 {
		t.Fatalf("want 3 grants, got %+v", res.Applied)
	}
	if res.Applied[0].Type != "anyone" || res.Applied[0].Role != "reader" {
		t.Fatalf("public grant must come first: %+v", res.Applied[0])
	}
	if !strings.Contains(res.Message, "File set to public.") {
		t.Fatalf("message missing public note: %q", res.Message)
	}
	if !strings.Contains(res.Message, "File shared with: bob@example.com, carol@example.com.") {
		t.Fatalf("message missing share note: %q", res.Message)
	}
}

func TestApply_PartialFailureContinues(t *testing.T) {
	client := &grantRecorder{failFor: map[string]bool{"bob@example.com": true}}

	res := Apply(context.Background(), client, "alice/report.pdf", false,
		[]string{"bob@example.com", "carol@example.com"})

	if res.Status {
		t.Fatal("status must report the failed grant")
	}
	if len(res.Applied) != 1 || res.Applied[0].Grantee != "carol@example.com" {
		t.Fatalf("remaining grants must still run: %+v", res.Applied)
	}
	if !strings.Contains(res.Message, "failed to share with bob@example.com") {
		t.Fatalf("message missing failure note: %q", res.Message)
	}
}

func TestApply_PublicFailureDoesNotAbort(t *testing.T) {
	client := &grantRecorder{failFor: map[string]bool{"anyone": true}}

	res := Apply(context.Background(), client, "alice/report.pdf", true, []string{"bob@example.com"})

	if res.Status {
		t.Fatal("status must report the failed public grant")
	}
	if len(res.Applied) != 1 || res.Applied[0].Grantee != "bob@example.com" {
		t.Fatalf("share must still run after public failure: %+v", res.Applied)
	}
}

func TestApply_NothingRequested(t *testing.T) {
	client := &grantRecorder{}

	res := Apply(context.Background(), client, "alice/report.pdf", false, nil)

	if !res.Status || len(res.Applied) != 0 || res.Message != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

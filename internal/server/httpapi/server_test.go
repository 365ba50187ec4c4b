package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/logging"
	"github.com/drivepool/drivepool/internal/server/auth"
	"github.com/drivepool/drivepool/internal/server/models"
	"github.com/drivepool/drivepool/internal/server/services"
)

type noopLogger struct{}

func (noopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (noopLogger) With(args ...any) logging.Logger                    { return noopLogger{} }

// fakeService records the calls the handlers make and returns canned results.
type fakeService struct {
	uploads   []*services.UploadRequest
	uploadErr error
	lastQuery models.FileFilter
	resetDone bool
	statsErr  error
}

func (f *fakeService) SubmitUpload(ctx context.Context, req *services.UploadRequest) (*services.UploadResult, error) {
	f.uploads = append(f.uploads, req)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &services.UploadResult{
		Record: &models.FileRecord{ID: "rec-1", FileName: req.FileName, User: req.User},
	}, nil
}

func (f *fakeService) QueryFiles(ctx context.Context, filter models.FileFilter) ([]*models.FileRecord, error) {
	f.lastQuery = filter
	return []*models.FileRecord{{ID: "rec-1", FileName: "report.pdf"}}, nil
}

func (f *fakeService) FileLink(ctx context.Context, fileName, folderPath, user string, ttl time.Duration) (string, error) {
	if fileName == "ghost.pdf" {
		return "", common.ErrNotFound
	}
	return "http://signed/" + folderPath + "/" + fileName, nil
}

func (f *fakeService) ResetAll(ctx context.Context) error {
	f.resetDone = true
	return nil
}

func (f *fakeService) GetStats(ctx context.Context) (*models.UsageSnapshot, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &models.UsageSnapshot{NumberOfAccounts: 2}, nil
}

func (f *fakeService) SourceFetchTimeout() time.Duration { return time.Minute }

var testSecret = []byte("test-secret")

func newTestServer(svc Service) *Server {
	return NewServer(":0", testSecret, svc, noopLogger{})
}

func authedRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("test", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAuth_MissingToken(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/files", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "missing token" {
		t.Fatalf("body = %v", body)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	r := httptest.NewRequest("GET", "/api/files", nil)
	r.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatus_NoAuthRequired(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != true {
		t.Fatalf("body = %v", body)
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Fatal("missing cache header")
	}
}

func TestUpload_Base64(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc).Handler()

	payload := `{"base64File": "aGVsbG8=", "fileName": "hello.txt", "user": "alice"}`
	r := authedRequest(t, "POST", "/api/upload", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != true || body["foundInDB"] != false {
		t.Fatalf("body = %v", body)
	}
	if len(svc.uploads) != 1 {
		t.Fatalf("uploads = %d", len(svc.uploads))
	}
	got := svc.uploads[0]
	if got.FileName != "hello.txt" || got.User != "alice" || !got.SetPublic {
		t.Fatalf("request = %+v", got)
	}
}

func TestUpload_MissingSource(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	r := authedRequest(t, "POST", "/api/upload", strings.NewReader(`{"fileName": "x.txt"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpload_SourceErrorMapsToBadRequest(t *testing.T) {
	svc := &fakeService{uploadErr: common.ErrSourceUnreachable}
	h := newTestServer(svc).Handler()

	r := authedRequest(t, "POST", "/api/upload",
		strings.NewReader(`{"fileUrl": "https://example.com/a.bin"}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpload_Multipart(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc).Handler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = part.Write([]byte("content of " + name))
	}
	_ = mw.WriteField("user", "alice")
	_ = mw.Close()

	r := authedRequest(t, "POST", "/api/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	files, ok := body["files"].([]any)
	if !ok || len(files) != 2 {
		t.Fatalf("files = %v", body["files"])
	}
	if len(svc.uploads) != 2 {
		t.Fatalf("uploads = %d", len(svc.uploads))
	}
	// Multiple parts always keep their own file names.
	if svc.uploads[0].FileName != "a.txt" || svc.uploads[1].FileName != "b.txt" {
		t.Fatalf("part names: %q, %q", svc.uploads[0].FileName, svc.uploads[1].FileName)
	}
	if svc.uploads[0].User != "alice" {
		t.Fatalf("user = %q", svc.uploads[0].User)
	}
}

func TestUpload_MultipartNoParts(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("user", "alice")
	_ = mw.Close()

	r := authedRequest(t, "POST", "/api/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestFiles_FilterFromQuery(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc).Handler()

	r := authedRequest(t, "GET", "/api/files?fileName=report.pdf&user=alice&starred=true", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastQuery.FileName != "report.pdf" || svc.lastQuery.User != "alice" {
		t.Fatalf("filter = %+v", svc.lastQuery)
	}
	if svc.lastQuery.Starred == nil || !*svc.lastQuery.Starred {
		t.Fatalf("starred filter not set: %+v", svc.lastQuery.Starred)
	}
	if svc.lastQuery.Trashed != nil {
		t.Fatal("trashed filter must stay unset")
	}
}

func TestLink_RequiresKeyFields(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	r := authedRequest(t, "GET", "/api/link?fileName=report.pdf", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLink_Success(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	r := authedRequest(t, "GET", "/api/link?fileName=report.pdf&user=alice&folderName=alice", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["url"] != "http://signed/alice/report.pdf" {
		t.Fatalf("body = %v", body)
	}
}

func TestLink_UnknownFile(t *testing.T) {
	h := newTestServer(&fakeService{}).Handler()

	r := authedRequest(t, "GET", "/api/link?fileName=ghost.pdf&user=alice&folderName=alice", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReset(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc).Handler()

	r := authedRequest(t, "DELETE", "/api/upload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !svc.resetDone {
		t.Fatal("reset not invoked")
	}
	body := decodeBody(t, rec)
	if body["message"] != "All accounts and database entries have been reset successfully." {
		t.Fatalf("message = %v", body["message"])
	}
}

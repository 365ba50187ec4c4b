// Package httpapi is the thin HTTP shell around the upload service: routing,
// the authorization gate, parameter extraction, and the uniform JSON result
// shape. No business decisions live here.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/logging"
	"github.com/drivepool/drivepool/internal/server/models"
	"github.com/drivepool/drivepool/internal/server/services"
)

// Service is the slice of the upload service the shell needs.
type Service interface {
	SubmitUpload(ctx context.Context, req *services.UploadRequest) (*services.UploadResult, error)
	QueryFiles(ctx context.Context, f models.FileFilter) ([]*models.FileRecord, error)
	FileLink(ctx context.Context, fileName, folderPath, user string, ttl time.Duration) (string, error)
	ResetAll(ctx context.Context) error
	GetStats(ctx context.Context) (*models.UsageSnapshot, error)
	SourceFetchTimeout() time.Duration
}

// Server serves the public endpoints.
type Server struct {
	addr      string
	jwtSecret []byte
	service   Service
	logger    logging.Logger
}

// NewServer constructs the HTTP shell around the given service.
func NewServer(addr string, jwtSecret []byte, service Service, logger logging.Logger) *Server {
	return &Server{
		addr:      addr,
		jwtSecret: jwtSecret,
		service:   service,
		logger:    logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.withAuth(s.handleUpload))
	mux.HandleFunc("DELETE /api/upload", s.withAuth(s.handleReset))
	mux.HandleFunc("GET /api/files", s.withAuth(s.handleFiles))
	mux.HandleFunc("GET /api/link", s.withAuth(s.handleLink))
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"status": false, "error": msg})
}

// statusCode maps the error taxonomy onto HTTP classes: malformed input and
// unreachable sources are the caller's problem, unauthorized is its own
// class, everything else is a server-side failure.
func statusCode(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrSourceUnreachable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

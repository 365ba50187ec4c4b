package httpapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/drivepool/drivepool/internal/server/models"
	"github.com/drivepool/drivepool/internal/server/services"
	"github.com/drivepool/drivepool/internal/server/upload"
)

const (
	maxMultipartMemory = 64 << 20
	linkTTL            = 15 * time.Minute
)

// handleUpload dispatches on the content shape: multipart form data streams
// each file part, otherwise the request must carry a fileUrl or base64File.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.handleMultipartUpload(w, r)
		return
	}

	p := paramsFromRequest(r)

	var src upload.Source
	switch {
	case p.Base64File != "":
		src = upload.Base64Source{Data: p.Base64File}
	case p.FileURL != "":
		src = upload.URLSource{URL: p.FileURL, Timeout: s.service.SourceFetchTimeout()}
	default:
		writeError(w, http.StatusBadRequest, "Invalid or missing fileUrl or base64File parameter")
		return
	}

	if p.FileName == "" {
		writeError(w, http.StatusBadRequest, "file name is required and could not be derived")
		return
	}

	result, err := s.service.SubmitUpload(r.Context(), &services.UploadRequest{
		Source:     src,
		FileName:   p.FileName,
		User:       p.User,
		FolderName: p.FolderName,
		SetPublic:  p.SetPublic,
		ReUpload:   p.ReUpload,
		ShareWith:  p.ShareWith,
	})
	if err != nil {
		s.logger.Error(r.Context(), "upload failed", "file", p.FileName, "error", err)
		writeError(w, statusCode(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       true,
		"fileDocument": result.Record,
		"foundInDB":    result.FoundExisting,
		"reUpload":     p.ReUpload,
		"message":      result.Message,
	})
}

// handleMultipartUpload runs every uploaded part through the same pipeline
// and collects the per-file results into one response.
func (s *Server) handleMultipartUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	p := paramsFromRequest(r)

	var headers = r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no file parts in multipart body")
		return
	}

	var records []*models.FileRecord
	foundAny := false
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file part")
			return
		}

		name := p.FileName
		if name == "" || len(headers) > 1 {
			name = header.Filename
		}

		result, err := s.service.SubmitUpload(r.Context(), &services.UploadRequest{
			Source:     upload.StreamSource{Reader: io.NopCloser(part)},
			FileName:   name,
			User:       p.User,
			FolderName: p.FolderName,
			SetPublic:  p.SetPublic,
			ReUpload:   p.ReUpload,
			ShareWith:  p.ShareWith,
		})
		part.Close()
		if err != nil {
			s.logger.Error(r.Context(), "upload failed", "file", name, "error", err)
			writeError(w, statusCode(err), err.Error())
			return
		}
		records = append(records, result.Record)
		foundAny = foundAny || result.FoundExisting
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    true,
		"files":     records,
		"foundInDB": foundAny,
		"reUpload":  p.ReUpload,
	})
}

// handleFiles searches the index by the filter fields present in the query.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.FileFilter{
		FileName:   q.Get("fileName"),
		FolderPath: q.Get("folderName"),
		User:       q.Get("user"),
		OwnerEmail: q.Get("ownerEmail"),
		BackingID:  q.Get("id"),
		MimeType:   q.Get("mimeType"),
	}
	if raw := q.Get("starred"); raw != "" {
		v := raw == "true"
		filter.Starred = &v
	}
	if raw := q.Get("trashed"); raw != "" {
		v := raw == "true"
		filter.Trashed = &v
	}

	records, err := s.service.QueryFiles(r.Context(), filter)
	if err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "files": records})
}

// handleLink returns a short-lived download link for one indexed file.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fileName := q.Get("fileName")
	user := q.Get("user")
	folderPath := q.Get("folderName")
	if fileName == "" || user == "" || folderPath == "" {
		writeError(w, http.StatusBadRequest, "fileName, user and folderName are required")
		return
	}

	url, err := s.service.FileLink(r.Context(), fileName, folderPath, user, linkTTL)
	if err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "url": url})
}

// handleReset wipes every account and the whole index.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetAll(r.Context()); err != nil {
		writeError(w, statusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "All accounts and database entries have been reset successfully.",
	})
}

// handleStatus serves the usage snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "s-maxage=17200, stale-while-revalidate")

	snapshot, err := s.service.GetStats(r.Context())
	if err != nil {
		writeJSON(w, statusCode(err), map[string]any{
			"status":  false,
			"data":    nil,
			"message": "Failed to retrieve usage stats: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"data":    snapshot,
		"message": "Usage stats retrieved successfully.",
	})
}

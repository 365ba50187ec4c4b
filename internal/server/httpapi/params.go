package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/drivepool/drivepool/internal/server/services"
	"github.com/drivepool/drivepool/internal/server/upload"
)

// RequestParams is the flattened view of one upload request. The same logical
// field may arrive in a header, the body, or the query string; extraction
// happens here once and the core only ever sees the typed struct.
type RequestParams struct {
	FileURL    string
	Base64File string
	FileName   string
	User       string
	FolderName string
	SetPublic  bool
	ReUpload   bool
	ShareWith  []string
}

// bodyValues decodes a JSON body into a flat string map. Non-JSON bodies
// (form posts) are handled through r.FormValue instead.
func bodyValues(r *http.Request) map[string]string {
	values := map[string]string{}
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return values
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return values
	}
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			values[k] = value
		case bool:
			values[k] = fmt.Sprintf("%t", value)
		case float64:
			values[k] = strings.TrimSuffix(fmt.Sprintf("%f", value), ".000000")
		case []any:
			parts := make([]string, 0, len(value))
			for _, item := range value {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
			values[k] = strings.Join(parts, ",")
		}
	}
	return values
}

// extract reads one parameter, body first, then form/query.
func extract(r *http.Request, body map[string]string, key string) string {
	if v, ok := body[key]; ok && v != "" {
		return v
	}
	return r.FormValue(key)
}

func parseBool(raw string, def bool) bool {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

// paramsFromRequest consolidates parameters from the header, body and query
// string. The user field additionally honors the "user" header; a request
// with no user at all is attributed to the anonymous user.
func paramsFromRequest(r *http.Request) *RequestParams {
	body := bodyValues(r)

	p := &RequestParams{
		FileURL:    extract(r, body, "fileUrl"),
		Base64File: extract(r, body, "base64File"),
		FileName:   strings.TrimSpace(extract(r, body, "fileName")),
		FolderName: extract(r, body, "folderName"),
		SetPublic:  parseBool(extract(r, body, "setPublic"), true),
		ReUpload:   parseBool(extract(r, body, "reUpload"), false),
	}

	p.User = r.Header.Get("user")
	if p.User == "" {
		p.User = extract(r, body, "user")
	}
	if p.User == "" {
		p.User = services.AnonymousUser
	}

	if raw := extract(r, body, "shareWith"); raw != "" {
		for _, principal := range strings.Split(raw, ",") {
			if principal = strings.TrimSpace(principal); principal != "" {
				p.ShareWith = append(p.ShareWith, principal)
			}
		}
	}

	// A URL source may stand in for a missing file name.
	if p.FileName == "" && p.FileURL != "" {
		if name, err := upload.FileNameFromURL(p.FileURL); err == nil {
			p.FileName = name
		}
	}

	return p
}

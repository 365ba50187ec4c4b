// Package models holds the persisted data shapes of the server.
package models

import "time"

// Permission is one grant applied to a stored file.
type Permission struct {
	Type    string `json:"type"`    // "anyone" or "user"
	Role    string `json:"role"`    // "reader" or "writer"
	Grantee string `json:"grantee"` // principal identifier, empty for "anyone"
}

// FileRecord is the canonical metadata for one uploaded file.
//
// The dedup key is (FileName, FolderPath, User). BackingID is the owning
// account's own identifier for the object and is only valid within that
// account; re-uploads must therefore land on the account identified by
// OwnerEmail.
type FileRecord struct {
	ID          string       `json:"_id"`
	FileName    string       `json:"fileName"`
	FolderID    string       `json:"folderId"`
	FolderPath  string       `json:"folderName"`
	User        string       `json:"user"`
	OwnerEmail  string       `json:"ownerEmail"`
	BackingID   string       `json:"id"`
	MimeType    string       `json:"mimeType"`
	Size        int64        `json:"size"`
	MD5Checksum string       `json:"md5Checksum"`
	SHA256      string       `json:"sha256Checksum"`
	Public      bool         `json:"public"`
	Starred     bool         `json:"starred"`
	Trashed     bool         `json:"trashed"`
	Permissions []Permission `json:"permissions"`
	DownloadURL string       `json:"downloadUrl"`
	CreatedAt   time.Time    `json:"createdTime"`
	ModifiedAt  time.Time    `json:"modifiedTime"`
}

// FileFilter restricts a file search. Zero values mean "any".
type FileFilter struct {
	FileName   string
	FolderPath string
	User       string
	OwnerEmail string
	BackingID  string
	MimeType   string
	Starred    *bool
	Trashed    *bool
}

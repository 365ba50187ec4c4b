// Package folder resolves ordered folder paths inside one account,
// creating missing segments on the way down.
package folder

import (
	"context"
	"errors"
	"strings"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/server/drive"
)

// Resolver finds-or-creates each path segment under its parent and returns
// the deepest folder's identifier.
//
// The memo caches resolved paths for the lifetime of one Resolver, which is
// one request; it is never shared across requests. Resolution is idempotent
// against the backing account, but two concurrent first-time creations of the
// same path may still race; callers needing strict uniqueness must serialize
// per (account, path) themselves.
type Resolver struct {
	memo map[string]string
}

// NewResolver returns a resolver with an empty per-request memo.
func NewResolver() *Resolver {
	return &Resolver{memo: make(map[string]string)}
}

// Resolve walks path from rootID, descending into each segment and creating
// it when absent. An empty path returns rootID unchanged.
func (r *Resolver) Resolve(ctx context.Context, client drive.Client, path []string, rootID string) (string, error) {
	if len(path) == 0 {
		return rootID, nil
	}

	memoKey := rootID + "\x00" + strings.Join(path, "\x00")
	if id, ok := r.memo[memoKey]; ok {
		return id, nil
	}

	currentParent := rootID
	for _, name := range path {
		found, err := client.FindFolder(ctx, name, currentParent)
		switch {
		case err == nil:
			currentParent = found.ID
		case errors.Is(err, common.ErrNotFound):
			created, err := client.CreateFolder(ctx, name, currentParent)
			if err != nil {
				return "", err
			}
			currentParent = created.ID
		default:
			return "", err
		}
	}

	r.memo[memoKey] = currentParent
	return currentParent, nil
}

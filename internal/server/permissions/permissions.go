// Package permissions applies sharing grants to an uploaded file.
package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/drivepool/drivepool/internal/server/drive"
)

// Result reports what Apply managed to do. Failure here never unwinds the
// upload; Message travels back to the caller alongside the success response.
type Result struct {
	Status  bool
	Message string
	Applied []drive.Permission
}

// Apply sets the requested grants best-effort: public-read first when asked,
// then one grant per valid principal. Blank principals are skipped. Each
// failed grant is noted in the message and the rest still run.
func Apply(ctx context.Context, client drive.Client, backingID string, setPublic bool, shareWith []string) Result {
	res := Result{Status: true}
	var notes []string

	if setPublic {
		p := drive.Permission{Type: "anyone", Role: "reader"}
		if err := client.SetPermission(ctx, backingID, p); err != nil {
			res.Status = false
			notes = append(notes, fmt.Sprintf("failed to set public: %v.", err))
		} else {
			res.Applied = append(res.Applied, p)
			notes = append(notes, "File set to public.")
		}
	}

	var shared []string
	for _, principal := range shareWith {
		principal = strings.TrimSpace(principal)
		if principal == "" {
			continue
		}
		p := drive.Permission{Type: "user", Role: "writer", Grantee: principal}
		if err := client.SetPermission(ctx, backingID, p); err != nil {
			res.Status = false
			notes = append(notes, fmt.Sprintf("failed to share with %s: %v.", principal, err))
			continue
		}
		res.Applied = append(res.Applied, p)
		shared = append(shared, principal)
	}
	if len(shared) > 0 {
		notes = append(notes, fmt.Sprintf("File shared with: %s.", strings.Join(shared, ", ")))
	}

	res.Message = strings.Join(notes, " ")
	return res
}

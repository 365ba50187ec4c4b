package cursor

import "context"

// Repository is the persisted round-robin cursor. The store is the single
// source of truth; no in-memory copy is authoritative across requests.
type Repository interface {
	// Advance atomically increments the named cursor and returns the new
	// value. The cursor is created at its starting value on first use, so
	// the first Advance returns 1. Concurrent callers always observe
	// distinct, monotonically advancing values.
	Advance(ctx context.Context, name string) (int64, error)

	// Current returns the cursor value without advancing it. A cursor that
	// was never advanced reads as 0.
	Current(ctx context.Context, name string) (int64, error)

	// Reset sets the cursor back to its starting value.
	Reset(ctx context.Context, name string) error
}

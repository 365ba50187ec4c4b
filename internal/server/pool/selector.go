package pool

import (
	"context"
	"fmt"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/logging"
	"github.com/drivepool/drivepool/internal/server/repositories/cursor"
)

// CursorName is the single cursor document shared by all selections.
const CursorName = "driveIndex"

// UsageFunc reports the bytes currently attributed to an account identity.
type UsageFunc func(ctx context.Context, identity string) (int64, error)

// Selector picks the destination account for an upload: by explicit override
// for re-uploads, otherwise by advancing the shared persisted cursor.
type Selector struct {
	pool          *Pool
	cursor        cursor.Repository
	usage         UsageFunc
	capacityAware bool
	logger        logging.Logger
}

// NewSelector constructs a selector. usage may be nil, which disables
// capacity-aware skipping even when capacityAware is set.
func NewSelector(pool *Pool, cur cursor.Repository, usage UsageFunc, capacityAware bool, logger logging.Logger) *Selector {
	return &Selector{
		pool:          pool,
		cursor:        cur,
		usage:         usage,
		capacityAware: capacityAware,
		logger:        logger,
	}
}

// Select returns the account to upload into.
//
// With a non-empty overrideIdentity the matching account is returned directly;
// re-uploads must land on the account that holds the original file because
// backing identifiers are account-scoped. An unknown override is an error
// rather than a fallback for the same reason.
//
// Without an override the cursor is advanced atomically and the new value
// reduced modulo N. In capacity-aware mode an account at or above its quota
// is skipped by advancing again; after N advances without a fit the pool is
// exhausted and ErrNoAccountAvailable is returned.
func (s *Selector) Select(ctx context.Context, overrideIdentity string) (*Account, error) {
	if overrideIdentity != "" {
		account, ok := s.pool.ByIdentity(overrideIdentity)
		if !ok {
			return nil, fmt.Errorf("unknown account identity %q: %w", overrideIdentity, common.ErrNoAccountAvailable)
		}
		return account, nil
	}

	attempts := s.pool.Count()
	for i := 0; i < attempts; i++ {
		slot, err := s.cursor.Advance(ctx, CursorName)
		if err != nil {
			return nil, fmt.Errorf("cursor advance: %w", err)
		}

		account := s.pool.ByIndex(int(slot % int64(s.pool.Count())))

		if !s.capacityAware || s.usage == nil {
			return account, nil
		}

		used, err := s.usage(ctx, account.Identity)
		if err != nil {
			return nil, fmt.Errorf("usage check for %q: %w", account.Identity, err)
		}
		if used < account.Quota {
			return account, nil
		}

		if s.logger != nil {
			s.logger.Warn(ctx, "skipping account at quota",
				"identity", account.Identity, "used", used, "quota", account.Quota)
		}
	}

	return nil, common.ErrNoAccountAvailable
}

// Package stats computes pool-wide usage numbers for dashboards. A persisted,
// timestamped snapshot caches the expensive account scans; freshness is
// time-boxed and staleness only ever costs accuracy, not correctness.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drivepool/drivepool/internal/common"
	"github.com/drivepool/drivepool/internal/logging"
	"github.com/drivepool/drivepool/internal/server/drive"
	"github.com/drivepool/drivepool/internal/server/models"
	"github.com/drivepool/drivepool/internal/server/pool"
	"github.com/drivepool/drivepool/internal/server/repositories/cursor"
	"github.com/drivepool/drivepool/internal/server/repositories/snapshots"
)

// refreshTimeout bounds the background refresh kicked off after serving a
// still-fresh snapshot.
const refreshTimeout = 5 * time.Minute

// Aggregator walks every account's listing and folds the results into a
// UsageSnapshot.
type Aggregator struct {
	pool      *pool.Pool
	snapshots snapshots.Repository
	cursor    cursor.Repository
	freshness time.Duration
	logger    logging.Logger
	now       func() time.Time
}

// NewAggregator constructs an aggregator with the given freshness window.
func NewAggregator(p *pool.Pool, snaps snapshots.Repository, cur cursor.Repository, freshness time.Duration, logger logging.Logger) *Aggregator {
	return &Aggregator{
		pool:      p,
		snapshots: snaps,
		cursor:    cur,
		freshness: freshness,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetStats returns a snapshot younger than the freshness window when one
// exists, kicking off an async refresh for next time. Otherwise it scans
// synchronously. A failed scan degrades to the last good snapshot.
func (a *Aggregator) GetStats(ctx context.Context) (*models.UsageSnapshot, error) {
	cutoff := a.now().Add(-a.freshness)

	recent, err := a.snapshots.LatestSince(ctx, cutoff)
	if err == nil {
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			if _, err := a.Refresh(bg); err != nil {
				a.logger.Warn(bg, "background stats refresh failed", "error", err)
			}
		}()
		return recent, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	snap, err := a.Refresh(ctx)
	if err != nil {
		// Degrade to the last good snapshot rather than failing the request.
		if last, lastErr := a.snapshots.Latest(ctx); lastErr == nil {
			a.logger.Warn(ctx, "stats refresh failed, serving stale snapshot", "error", err)
			return last, nil
		}
		return nil, err
	}
	return snap, nil
}

// Refresh scans every account, persists the new snapshot and returns it.
func (a *Aggregator) Refresh(ctx context.Context) (*models.UsageSnapshot, error) {
	accounts := a.pool.Accounts()

	snap := &models.UsageSnapshot{
		NumberOfAccounts: len(accounts),
		Timestamp:        a.now(),
	}

	var totalQuota int64
	for _, account := range accounts {
		usage, err := a.scanAccount(ctx, account.Client)
		if err != nil {
			return nil, fmt.Errorf("scan account %q: %w", account.Identity, err)
		}
		usage.OwnerEmail = account.Identity
		usage.SpaceUsed = fmt.Sprintf("%.2fMB / %.0fMB", mb(usage.UsedBytes), mb(account.Quota))
		usage.PercentSpaceRemaining = percentRemaining(usage.UsedBytes, account.Quota)

		snap.TotalFiles += usage.Files
		snap.TotalFolders += usage.Folders
		snap.TotalUsedBytes += usage.UsedBytes
		totalQuota += account.Quota
		snap.Accounts = append(snap.Accounts, *usage)
	}

	snap.TotalUsedSpace = fmt.Sprintf("%.2fMB", mb(snap.TotalUsedBytes))
	snap.TotalSpace = fmt.Sprintf("%.2fGB", float64(totalQuota)/(1024*1024*1024))
	snap.PercentSpaceRemaining = percentRemaining(snap.TotalUsedBytes, totalQuota)

	current, err := a.cursor.Current(ctx, pool.CursorName)
	if err != nil {
		return nil, err
	}
	snap.NextAccountIndex = int((current + 1) % int64(len(accounts)))

	if err := a.snapshots.Save(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// scanAccount pages through the live and trashed listings of one account.
func (a *Aggregator) scanAccount(ctx context.Context, client drive.Client) (*models.AccountUsage, error) {
	usage := &models.AccountUsage{}

	token := ""
	for {
		page, err := client.ListFiles(ctx, drive.ListQuery{Trashed: false}, token)
		if err != nil {
			return nil, err
		}
		for _, f := range page.Files {
			if f.IsFolder {
				usage.Folders++
			} else {
				usage.Files++
				usage.UsedBytes += f.Size
			}
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	token = ""
	for {
		page, err := client.ListFiles(ctx, drive.ListQuery{Trashed: true}, token)
		if err != nil {
			return nil, err
		}
		for _, f := range page.Files {
			if !f.IsFolder {
				usage.TrashedFiles++
				usage.TrashedBytes += f.Size
			}
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	return usage, nil
}

func mb(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}

func percentRemaining(used, quota int64) string {
	if quota <= 0 {
		return "0.00%"
	}
	remaining := (float64(quota-used) / float64(quota)) * 100
	return fmt.Sprintf("%.2f%%", remaining)
}

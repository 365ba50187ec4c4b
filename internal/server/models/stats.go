package models

import "time"

// AccountUsage is the per-account slice of a usage snapshot.
type AccountUsage struct {
	OwnerEmail            string `json:"ownerEmail"`
	Files                 int64  `json:"files"`
	Folders               int64  `json:"folders"`
	UsedBytes             int64  `json:"usedBytes"`
	TrashedFiles          int64  `json:"trashedFiles"`
	TrashedBytes          int64  `json:"trashedBytes"`
	SpaceUsed             string `json:"spaceUsed"`
	PercentSpaceRemaining string `json:"percentSpaceRemaining"`
}

// UsageSnapshot aggregates usage across the whole pool at one point in time.
// It is purely a cache: losing it costs a re-scan, never correctness.
type UsageSnapshot struct {
	NumberOfAccounts      int            `json:"numberOfAccounts"`
	TotalFiles            int64          `json:"totalFiles"`
	TotalFolders          int64          `json:"totalFolders"`
	TotalUsedBytes        int64          `json:"totalUsedBytes"`
	TotalUsedSpace        string         `json:"totalUsedSpace"`
	TotalSpace            string         `json:"totalSpace"`
	PercentSpaceRemaining string         `json:"percentSpaceRemaining"`
	NextAccountIndex      int            `json:"nextAccountIndex"`
	Accounts              []AccountUsage `json:"accounts"`
	Timestamp             time.Time      `json:"timestamp"`
}

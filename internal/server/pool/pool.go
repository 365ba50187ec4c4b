// Package pool materializes the configured storage accounts into one fixed,
// read-only account pool and selects the target account for each upload.
package pool

import (
	"context"
	"fmt"

	"github.com/drivepool/drivepool/internal/common"
	sc "github.com/drivepool/drivepool/internal/server/config"
	"github.com/drivepool/drivepool/internal/server/drive"
)

// Account is one pool slot: a live client plus the identity and quota it was
// configured with. Immutable after construction.
type Account struct {
	Identity string
	Index    int
	Quota    int64
	Client   drive.Client
}

// Pool is the ordered, process-lifetime set of accounts. Construction happens
// once; afterwards the pool is shared read-only across all requests.
type Pool struct {
	accounts   []*Account
	byIdentity map[string]*Account
}

// New authenticates every configured credential set. It fails with
// common.ErrConfigInvalid when no accounts are configured or any credential
// cannot be turned into a client: a partially usable pool would silently
// shift the cursor arithmetic.
func New(ctx context.Context, cfg *sc.Config) (*Pool, error) {
	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured: %w", common.ErrConfigInvalid)
	}

	accounts := make([]*Account, 0, len(cfg.Accounts))
	for i, ac := range cfg.Accounts {
		client, err := drive.NewS3Client(ctx, ac)
		if err != nil {
			return nil, err
		}

		identity := ac.OwnerEmail
		if identity == "" {
			identity = fmt.Sprintf("%s@%s", ac.AccessKeyID, ac.Bucket)
		}

		quota := ac.QuotaBytes
		if quota <= 0 {
			quota = cfg.AccountQuotaBytes
		}

		accounts = append(accounts, &Account{
			Identity: identity,
			Index:    i,
			Quota:    quota,
			Client:   client,
		})
	}

	return FromAccounts(accounts)
}

// FromAccounts builds a pool from already-constructed accounts. Identities
// must be unique; re-upload routing is keyed on them.
func FromAccounts(accounts []*Account) (*Pool, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured: %w", common.ErrConfigInvalid)
	}

	byIdentity := make(map[string]*Account, len(accounts))
	for _, a := range accounts {
		if _, dup := byIdentity[a.Identity]; dup {
			return nil, fmt.Errorf("duplicate account identity %q: %w", a.Identity, common.ErrConfigInvalid)
		}
		byIdentity[a.Identity] = a
	}

	return &Pool{accounts: accounts, byIdentity: byIdentity}, nil
}

// Count returns N, the pool size. Always >= 1 for a constructed pool.
func (p *Pool) Count() int {
	return len(p.accounts)
}

// ByIndex returns the account at index i mod N.
func (p *Pool) ByIndex(i int) *Account {
	return p.accounts[i%len(p.accounts)]
}

// ByIdentity returns the account owning the given identity string.
func (p *Pool) ByIdentity(identity string) (*Account, bool) {
	a, ok := p.byIdentity[identity]
	return a, ok
}

// Accounts returns the pool in configuration order. Callers must not mutate
// the returned slice.
func (p *Pool) Accounts() []*Account {
	return p.accounts
}

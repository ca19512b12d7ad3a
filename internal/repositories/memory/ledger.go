// Package memory is an in-process implementation of
// repositories.LedgerRepository for tests and STORAGE_DRIVER=memory.
//
// It emulates the postgres contract the ledger relies on: LockAccount holds a
// per-row lock until the unit ends, writes are staged and applied atomically on
// commit, and the idempotency key is unique across committed entries.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
)

// LedgerStore holds committed state.
type LedgerStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	entries  []*models.LedgerEntry
	byKey    map[string]*models.LedgerEntry
	rowLocks map[string]chan struct{}

	// commitErrs are returned (and consumed) by the next commits, one each.
	commitErrs []error
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		accounts: make(map[string]*models.Account),
		byKey:    make(map[string]*models.LedgerEntry),
		rowLocks: make(map[string]chan struct{}),
	}
}

// FailNextCommits makes the next len(errs) commits fail with the given errors
// after the unit body ran, as a database would on a serialization conflict.
func (s *LedgerStore) FailNextCommits(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErrs = append(s.commitErrs, errs...)
}

// Entries returns a copy of the journal in commit order.
func (s *LedgerStore) Entries() []*models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

func (s *LedgerStore) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	s.accounts[account.ID] = cloneAccount(account)
	s.rowLocks[account.ID] = make(chan struct{}, 1)
	return nil
}

func (s *LedgerStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (s *LedgerStore) GetEntryByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byKey[key]
	if !ok {
		return nil, repositories.ErrEntryNotFound
	}
	return e.Clone(), nil
}

func (s *LedgerStore) ListEntriesByAccount(ctx context.Context, tenantID, accountID string, limit, offset int) ([]*models.LedgerEntry, error) {
	s.mu.Lock()
	var matched []*models.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.TenantID != tenantID {
			continue
		}
		if (e.SourceID != nil && *e.SourceID == accountID) || (e.DestinationID != nil && *e.DestinationID == accountID) {
			matched = append(matched, e.Clone())
		}
	}
	s.mu.Unlock()

	// newest first; reverse commit order breaks ties
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	if offset >= len(matched) {
		return []*models.LedgerEntry{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *LedgerStore) LockAccount(ctx context.Context, id string) (*models.Account, error) {
	return nil, repositories.ErrAccountNotLocked
}

func (s *LedgerStore) UpdateBalance(ctx context.Context, account *models.Account) error {
	return repositories.ErrAccountNotLocked
}

func (s *LedgerStore) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return s.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		return tx.CreateEntry(ctx, entry)
	})
}

func (s *LedgerStore) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &unit{store: s, staged: make(map[string]*models.Account)}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *LedgerStore) commit(tx *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.commitErrs) > 0 {
		err := s.commitErrs[0]
		s.commitErrs = s.commitErrs[1:]
		return err
	}

	seen := make(map[string]bool, len(tx.entries))
	for _, e := range tx.entries {
		if _, exists := s.byKey[e.IdempotencyKey]; exists || seen[e.IdempotencyKey] {
			return fmt.Errorf("%w: %s", repositories.ErrDuplicateIdempotencyKey, e.IdempotencyKey)
		}
		seen[e.IdempotencyKey] = true
	}

	now := time.Now().UTC()
	for id, a := range tx.staged {
		a.UpdatedAt = now
		s.accounts[id] = a
	}
	for _, e := range tx.entries {
		s.entries = append(s.entries, e)
		s.byKey[e.IdempotencyKey] = e
	}
	return nil
}

func (s *LedgerStore) rowLock(id string) (chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	return l, ok
}

// unit is the repository view handed to an ExecuteInTransaction callback.
type unit struct {
	store   *LedgerStore
	held    []chan struct{}
	locked  map[string]bool
	staged  map[string]*models.Account
	entries []*models.LedgerEntry
}

func (u *unit) release() {
	for i := len(u.held) - 1; i >= 0; i-- {
		<-u.held[i]
	}
	u.held = nil
}

func (u *unit) CreateAccount(ctx context.Context, account *models.Account) error {
	return u.store.CreateAccount(ctx, account)
}

func (u *unit) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := u.staged[id]; ok {
		return cloneAccount(a), nil
	}
	return u.store.GetAccount(ctx, id)
}

func (u *unit) GetEntryByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	for _, e := range u.entries {
		if e.IdempotencyKey == key {
			return e.Clone(), nil
		}
	}
	return u.store.GetEntryByIdempotencyKey(ctx, key)
}

func (u *unit) ListEntriesByAccount(ctx context.Context, tenantID, accountID string, limit, offset int) ([]*models.LedgerEntry, error) {
	return u.store.ListEntriesByAccount(ctx, tenantID, accountID, limit, offset)
}

func (u *unit) LockAccount(ctx context.Context, id string) (*models.Account, error) {
	if u.locked[id] {
		return u.GetAccount(ctx, id)
	}
	l, ok := u.store.rowLock(id)
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	u.held = append(u.held, l)
	if u.locked == nil {
		u.locked = make(map[string]bool)
	}
	u.locked[id] = true

	a, err := u.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	u.staged[id] = a
	return cloneAccount(a), nil
}

func (u *unit) UpdateBalance(ctx context.Context, account *models.Account) error {
	if !u.locked[account.ID] {
		return repositories.ErrAccountNotLocked
	}
	u.staged[account.ID].Balance = account.Balance
	return nil
}

func (u *unit) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	u.entries = append(u.entries, entry.Clone())
	return nil
}

func (u *unit) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	return fn(u)
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.AgentID != nil {
		v := *a.AgentID
		c.AgentID = &v
	}
	return &c
}

var (
	_ repositories.LedgerRepository = (*LedgerStore)(nil)
	_ repositories.LedgerRepository = (*unit)(nil)
)

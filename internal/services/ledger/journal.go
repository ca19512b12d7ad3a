package ledger

import (
	"context"
	"errors"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Journal serves reads of committed entries. Entries never change once
// written, so a cached entry is always current.
type Journal struct {
	repo  repositories.LedgerRepository
	cache EntryCache
	log   *zap.Logger
}

// NewJournal builds a Journal; cache may be nil.
func NewJournal(repo repositories.LedgerRepository, cache EntryCache, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{repo: repo, cache: cache, log: log}
}

// Lookup returns the entry committed under key. found is false when none
// exists; err is only set for storage failures.
func (j *Journal) Lookup(ctx context.Context, key string) (entry *models.LedgerEntry, found bool, err error) {
	if j.cache != nil {
		cached, hit, cacheErr := j.cache.Get(ctx, key)
		if cacheErr != nil {
			j.log.Warn("entry cache read failed", zap.String("idempotency_key", key), zap.Error(cacheErr))
		} else if hit {
			return cached, true, nil
		}
	}

	entry, err = j.repo.GetEntryByIdempotencyKey(ctx, key)
	if errors.Is(err, repositories.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Internal(err)
	}
	j.Remember(ctx, entry)
	return entry, true, nil
}

// FindByKey returns the entry committed under key within tenantID. An entry
// of another tenant is reported as not found.
func (j *Journal) FindByKey(ctx context.Context, tenantID, key string) (*models.LedgerEntry, error) {
	entry, found, err := j.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found || (tenantID != "" && entry.TenantID != tenantID) {
		return nil, apperrors.ErrTransactionNotFound.WithDetail("idempotency key %q", key)
	}
	return entry, nil
}

// Remember caches a committed entry. Failures are logged and swallowed.
func (j *Journal) Remember(ctx context.Context, entry *models.LedgerEntry) {
	if j.cache == nil || entry == nil {
		return
	}
	if err := j.cache.Set(ctx, entry); err != nil {
		j.log.Warn("entry cache write failed", zap.String("idempotency_key", entry.IdempotencyKey), zap.Error(err))
	}
}

// History lists the entries touching accountID in tenantID, newest first.
func (j *Journal) History(ctx context.Context, tenantID, accountID string, limit, offset int) ([]*models.LedgerEntry, error) {
	if tenantID == "" {
		return nil, apperrors.ErrMissingTenant
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	account, err := j.repo.GetAccount(ctx, accountID)
	if errors.Is(err, repositories.ErrAccountNotFound) || (err == nil && account.TenantID != tenantID) {
		return nil, apperrors.ErrAccountNotFound.WithDetail("account %s", accountID)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	entries, err := j.repo.ListEntriesByAccount(ctx, tenantID, accountID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

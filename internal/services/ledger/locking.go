package ledger

import (
	"context"
	"errors"
	"sort"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
)

// CanonicalOrder returns the distinct account ids of refs in the single global
// lock order (ascending byte-wise id). Every unit that touches more than one
// account acquires in this order, so no two units can wait on each other in a
// cycle.
func CanonicalOrder(refs ...models.AccountRef) []string {
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.IsZero() {
			continue
		}
		if _, ok := seen[r.ID()]; ok {
			continue
		}
		seen[r.ID()] = struct{}{}
		ids = append(ids, r.ID())
	}
	sort.Strings(ids)
	return ids
}

// LockAccounts locks every referenced account for update in canonical order
// and checks each stored kind against the reference.
func LockAccounts(ctx context.Context, tx repositories.LedgerRepository, refs ...models.AccountRef) (map[string]*models.Account, error) {
	locked := make(map[string]*models.Account, len(refs))
	for _, id := range CanonicalOrder(refs...) {
		account, err := tx.LockAccount(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrAccountNotFound) {
				return nil, apperrors.ErrAccountNotFound.WithDetail("account %s", id)
			}
			return nil, err
		}
		locked[id] = account
	}
	for _, r := range refs {
		if r.IsZero() {
			continue
		}
		if locked[r.ID()].AccountKind() != r.Kind() {
			return nil, apperrors.ErrAccountNotFound.WithDetail("account %s", r)
		}
	}
	return locked, nil
}

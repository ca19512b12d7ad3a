package ledger

import (
	"gamewallet/internal/models"
)

// SamePayload reports whether entry records the movement described by p:
// same tenant, operation, amount and accounts. Description and actor are
// not part of the payload.
func SamePayload(entry *models.LedgerEntry, p Posting) bool {
	if entry == nil {
		return false
	}
	if entry.TenantID != p.TenantID || entry.Operation != p.Operation {
		return false
	}
	if !entry.Amount.Equal(p.Amount) {
		return false
	}
	src, hasSrc := entry.Source()
	if !sameRef(src, hasSrc, p.Debit) {
		return false
	}
	dst, hasDst := entry.Destination()
	return sameRef(dst, hasDst, p.Credit)
}

func sameRef(stored models.AccountRef, ok bool, want *models.AccountRef) bool {
	if want == nil {
		return !ok
	}
	return ok && stored == *want
}

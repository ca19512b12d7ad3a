package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind classifies a ledger entry.
type OperationKind string

const (
	OperationMint       OperationKind = "MINT"
	OperationTransfer   OperationKind = "TRANSFER"
	OperationBet        OperationKind = "BET"
	OperationWin        OperationKind = "WIN"
	OperationDeposit    OperationKind = "DEPOSIT"
	OperationWithdrawal OperationKind = "WITHDRAWAL"
	OperationBonus      OperationKind = "BONUS"
	OperationAdjustment OperationKind = "ADJUSTMENT"
	OperationRollback   OperationKind = "ROLLBACK"
)

func (o OperationKind) Valid() bool {
	switch o {
	case OperationMint, OperationTransfer, OperationBet, OperationWin, OperationDeposit,
		OperationWithdrawal, OperationBonus, OperationAdjustment, OperationRollback:
		return true
	}
	return false
}

func ParseOperationKind(s string) OperationKind {
	return OperationKind(strings.ToUpper(strings.TrimSpace(s)))
}

// RollbackKeyPrefix is reserved: client keys may not start with it.
const RollbackKeyPrefix = "ROLLBACK:"

// RollbackKey derives the deterministic key of the compensating entry.
func RollbackKey(originalKey string) string {
	return RollbackKeyPrefix + originalKey
}

// LedgerEntry is an immutable journal row. Source fields are nil for a MINT;
// destination fields are nil only for the reversal of a MINT.
type LedgerEntry struct {
	ID                         string              `gorm:"primaryKey;type:varchar(64)"`
	TenantID                   string              `gorm:"type:varchar(64);not null;index"`
	SourceID                   *string             `gorm:"type:varchar(64);index"`
	SourceKind                 *string             `gorm:"type:varchar(16)"`
	DestinationID              *string             `gorm:"type:varchar(64);index"`
	DestinationKind            *string             `gorm:"type:varchar(16)"`
	Amount                     decimal.Decimal     `gorm:"type:numeric(38,18);not null"`
	Operation                  OperationKind       `gorm:"type:varchar(16);not null"`
	PreviousBalanceSource      decimal.NullDecimal `gorm:"type:numeric(38,18)"`
	NewBalanceSource           decimal.NullDecimal `gorm:"type:numeric(38,18)"`
	PreviousBalanceDestination decimal.NullDecimal `gorm:"type:numeric(38,18)"`
	NewBalanceDestination      decimal.NullDecimal `gorm:"type:numeric(38,18)"`
	Description                string              `gorm:"type:text;not null;default:''"`
	ActorID                    string              `gorm:"type:varchar(64);not null"`
	ActorRole                  Role                `gorm:"type:varchar(32);not null"`
	IdempotencyKey             string              `gorm:"type:varchar(512);not null;uniqueIndex"`
	ReversesKey                *string             `gorm:"type:varchar(512)"`
	CreatedAt                  time.Time           `gorm:"not null;index"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// Source returns the debited account reference, if any.
func (e *LedgerEntry) Source() (AccountRef, bool) {
	return refFrom(e.SourceID, e.SourceKind)
}

// Destination returns the credited account reference, if any.
func (e *LedgerEntry) Destination() (AccountRef, bool) {
	return refFrom(e.DestinationID, e.DestinationKind)
}

func refFrom(id, kind *string) (AccountRef, bool) {
	if id == nil || kind == nil {
		return AccountRef{}, false
	}
	ref, err := ParseAccountRef(*kind, *id)
	if err != nil {
		return AccountRef{}, false
	}
	return ref, true
}

// SetSource records the debited side of the movement.
func (e *LedgerEntry) SetSource(ref AccountRef, before, after decimal.Decimal) {
	id, kind := ref.ID(), ref.Kind().String()
	e.SourceID, e.SourceKind = &id, &kind
	e.PreviousBalanceSource = decimal.NewNullDecimal(before)
	e.NewBalanceSource = decimal.NewNullDecimal(after)
}

// SetDestination records the credited side of the movement.
func (e *LedgerEntry) SetDestination(ref AccountRef, before, after decimal.Decimal) {
	id, kind := ref.ID(), ref.Kind().String()
	e.DestinationID, e.DestinationKind = &id, &kind
	e.PreviousBalanceDestination = decimal.NewNullDecimal(before)
	e.NewBalanceDestination = decimal.NewNullDecimal(after)
}

// Clone returns a deep copy so callers cannot alias stored state.
func (e *LedgerEntry) Clone() *LedgerEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.SourceID = cloneString(e.SourceID)
	c.SourceKind = cloneString(e.SourceKind)
	c.DestinationID = cloneString(e.DestinationID)
	c.DestinationKind = cloneString(e.DestinationKind)
	c.ReversesKey = cloneString(e.ReversesKey)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

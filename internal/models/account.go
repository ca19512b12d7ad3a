package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes house/operator balances from player wallets.
// The zero value is not a valid kind.
type AccountKind uint8

const (
	KindPrincipal AccountKind = iota + 1
	KindPlayer
)

func (k AccountKind) String() string {
	switch k {
	case KindPrincipal:
		return "PRINCIPAL"
	case KindPlayer:
		return "PLAYER"
	default:
		return ""
	}
}

func (k AccountKind) Valid() bool {
	return k == KindPrincipal || k == KindPlayer
}

// ParseAccountKind accepts the wire names plus the legacy BACKOFFICE alias.
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PRINCIPAL", "BACKOFFICE":
		return KindPrincipal, nil
	case "PLAYER":
		return KindPlayer, nil
	default:
		return 0, fmt.Errorf("unknown account kind %q", s)
	}
}

// AccountRef identifies an account together with its kind. It can only be
// built through Principal, Player or ParseAccountRef.
type AccountRef struct {
	kind AccountKind
	id   string
}

func Principal(id string) AccountRef { return AccountRef{kind: KindPrincipal, id: id} }

func Player(id string) AccountRef { return AccountRef{kind: KindPlayer, id: id} }

func ParseAccountRef(kind, id string) (AccountRef, error) {
	k, err := ParseAccountKind(kind)
	if err != nil {
		return AccountRef{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return AccountRef{}, fmt.Errorf("account id is required")
	}
	return AccountRef{kind: k, id: id}, nil
}

func (r AccountRef) ID() string        { return r.id }
func (r AccountRef) Kind() AccountKind { return r.kind }
func (r AccountRef) IsZero() bool      { return r.id == "" || !r.kind.Valid() }

func (r AccountRef) String() string {
	return r.kind.String() + ":" + r.id
}

// Account is the persisted balance row. Balance is only ever mutated inside
// a ledger atomic unit.
type Account struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)"`
	Kind      string          `gorm:"type:varchar(16);not null"`
	TenantID  string          `gorm:"type:varchar(64);not null;index"`
	OwnerID   string          `gorm:"type:varchar(64);not null;default:''"`
	AgentID   *string         `gorm:"type:varchar(64);index"`
	Balance   decimal.Decimal `gorm:"type:numeric(38,18);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "accounts" }

// AccountKind returns the typed kind of the stored row.
func (a *Account) AccountKind() AccountKind {
	k, _ := ParseAccountKind(a.Kind)
	return k
}

func (a *Account) Ref() AccountRef {
	return AccountRef{kind: a.AccountKind(), id: a.ID}
}

package transfer

import (
	"context"

	"gamewallet/internal/models"
	"gamewallet/internal/services/ledger"

	"github.com/shopspring/decimal"
)

// Request is one money movement as submitted by an authenticated actor.
// Source is nil for a mint.
type Request struct {
	Source         *models.AccountRef
	Destination    models.AccountRef
	Amount         decimal.Decimal
	Operation      models.OperationKind
	IdempotencyKey string
	Description    string
	Actor          models.Actor
	TenantID       string
}

// Service moves funds between accounts exactly once per idempotency key.
type Service interface {
	Transfer(ctx context.Context, req Request) (*ledger.Result, error)
}

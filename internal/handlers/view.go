package handlers

import (
	"time"

	"gamewallet/internal/models"

	"github.com/shopspring/decimal"
)

// EntryView is the client representation of a ledger entry.
type EntryView struct {
	EntryID                    string  `json:"entry_id"`
	TenantID                   string  `json:"tenant_id"`
	OperationKind              string  `json:"operation_kind"`
	SourceID                   *string `json:"source_id,omitempty"`
	SourceKind                 *string `json:"source_kind,omitempty"`
	PreviousBalanceSource      *string `json:"previous_balance_source,omitempty"`
	NewBalanceSource           *string `json:"new_balance_source,omitempty"`
	DestinationID              *string `json:"destination_id,omitempty"`
	DestinationKind            *string `json:"destination_kind,omitempty"`
	PreviousBalanceDestination *string `json:"previous_balance_destination,omitempty"`
	NewBalanceDestination      *string `json:"new_balance_destination,omitempty"`
	Amount                     string  `json:"amount"`
	Description                string  `json:"description"`
	ActorID                    string  `json:"actor_id"`
	ActorRole                  string  `json:"actor_role"`
	ActorUsername              string  `json:"actor_username,omitempty"`
	IdempotencyKey             string  `json:"idempotency_key"`
	ReversesKey                *string `json:"reverses_key,omitempty"`
	CreatedAt                  string  `json:"created_at"`
}

func NewEntryView(e *models.LedgerEntry, username string) EntryView {
	return EntryView{
		EntryID:                    e.ID,
		TenantID:                   e.TenantID,
		OperationKind:              string(e.Operation),
		SourceID:                   e.SourceID,
		SourceKind:                 e.SourceKind,
		PreviousBalanceSource:      nullDecimal(e.PreviousBalanceSource),
		NewBalanceSource:           nullDecimal(e.NewBalanceSource),
		DestinationID:              e.DestinationID,
		DestinationKind:            e.DestinationKind,
		PreviousBalanceDestination: nullDecimal(e.PreviousBalanceDestination),
		NewBalanceDestination:      nullDecimal(e.NewBalanceDestination),
		Amount:                     e.Amount.String(),
		Description:                e.Description,
		ActorID:                    e.ActorID,
		ActorRole:                  string(e.ActorRole),
		ActorUsername:              username,
		IdempotencyKey:             e.IdempotencyKey,
		ReversesKey:                e.ReversesKey,
		CreatedAt:                  e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func nullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

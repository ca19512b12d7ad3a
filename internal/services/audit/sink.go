// Package audit emits a record of every committed ledger entry. Emission is
// best effort and happens after commit, so it never changes a result.
package audit

import (
	"context"
	"time"

	"gamewallet/internal/models"
)

const (
	EventTransferCommitted = "ledger.transfer.committed"
	EventRollbackCommitted = "ledger.rollback.committed"
)

// Event is the audit record published for a committed entry.
type Event struct {
	Type           string    `json:"type"`
	EntryID        string    `json:"entry_id"`
	TenantID       string    `json:"tenant_id"`
	Operation      string    `json:"operation_kind"`
	IdempotencyKey string    `json:"idempotency_key"`
	ReversesKey    string    `json:"reverses_key,omitempty"`
	SourceID       string    `json:"source_id,omitempty"`
	DestinationID  string    `json:"destination_id,omitempty"`
	Amount         string    `json:"amount"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventFor builds the audit event of a committed entry.
func EventFor(eventType string, entry *models.LedgerEntry) Event {
	ev := Event{
		Type:           eventType,
		EntryID:        entry.ID,
		TenantID:       entry.TenantID,
		Operation:      string(entry.Operation),
		IdempotencyKey: entry.IdempotencyKey,
		Amount:         entry.Amount.String(),
		ActorID:        entry.ActorID,
		ActorRole:      string(entry.ActorRole),
		OccurredAt:     entry.CreatedAt,
	}
	if entry.ReversesKey != nil {
		ev.ReversesKey = *entry.ReversesKey
	}
	if entry.SourceID != nil {
		ev.SourceID = *entry.SourceID
	}
	if entry.DestinationID != nil {
		ev.DestinationID = *entry.DestinationID
	}
	return ev
}

// Sink receives audit events. Record must not block the caller.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) Record(context.Context, Event) {}

// Package rollback reverses committed ledger entries with a compensating
// ROLLBACK entry. The original entry is never modified.
package rollback

import (
	"context"
	"strings"
	"time"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/services/audit"
	"gamewallet/internal/services/authorization"
	"gamewallet/internal/services/ledger"

	"go.uber.org/zap"
)

const operation = string(models.OperationRollback)

// Request names the entry to reverse.
type Request struct {
	OriginalKey string
	Actor       models.Actor
	TenantID    string
}

// Service reverses committed entries.
type Service interface {
	Rollback(ctx context.Context, req Request) (*ledger.Result, error)
}

type Config struct {
	// NegativeBalanceTenants may go below zero when a reversal debits an
	// account that already spent the funds.
	NegativeBalanceTenants []string
}

type service struct {
	poster   *ledger.Poster
	journal  *ledger.Journal
	audit    audit.Sink
	metrics  ledger.MetricsCollector
	log      *zap.Logger
	negative map[string]bool
}

func NewService(
	poster *ledger.Poster,
	journal *ledger.Journal,
	sink audit.Sink,
	config Config,
	metrics ledger.MetricsCollector,
	log *zap.Logger,
) Service {
	if poster == nil {
		panic("poster is required")
	}
	if journal == nil {
		panic("journal is required")
	}
	if sink == nil {
		sink = audit.NoopSink{}
	}
	if metrics == nil {
		metrics = &ledger.NoopMetricsCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	negative := make(map[string]bool, len(config.NegativeBalanceTenants))
	for _, t := range config.NegativeBalanceTenants {
		negative[t] = true
	}
	return &service{
		poster:   poster,
		journal:  journal,
		audit:    sink,
		metrics:  metrics,
		log:      log,
		negative: negative,
	}
}

func (s *service) Rollback(ctx context.Context, req Request) (result *ledger.Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "error_" + strings.ToLower(string(apperrors.KindOf(err)))
		if err == nil {
			outcome = result.Outcome()
		}
		s.metrics.RecordOperationDuration(operation, time.Since(start))
		s.metrics.RecordOperationResult(operation, outcome)
	}()

	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		return nil, apperrors.ErrMissingTenant
	}
	if strings.TrimSpace(req.OriginalKey) == "" {
		return nil, apperrors.ErrMissingIdempotencyKey
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, apperrors.ErrRequestCanceled.Wrap(ctxErr)
	}

	original, err := s.journal.FindByKey(ctx, tenantID, req.OriginalKey)
	if err != nil {
		return nil, err
	}
	if original.Operation == models.OperationRollback {
		return nil, apperrors.ErrRollbackOfRollback.WithDetail("entry %s", original.ID)
	}

	posting, err := s.compensation(original, req.Actor)
	if err != nil {
		return nil, err
	}

	if existing, found, err := s.journal.Lookup(ctx, posting.IdempotencyKey); err != nil {
		return nil, err
	} else if found {
		return &ledger.Result{Entry: existing, Replayed: true}, nil
	}

	decision := authorization.DecideRollback(authorization.RollbackInput{
		Actor:          req.Actor,
		EntryTenantID:  original.TenantID,
		OriginalIsMint: original.Operation == models.OperationMint,
	})
	if !decision.Allowed {
		s.log.Info("rollback denied",
			zap.String("actor_id", req.Actor.ID),
			zap.String("reason", decision.Reason),
			zap.String("original_key", req.OriginalKey))
		return nil, apperrors.Forbidden(decision.Reason, decision.Detail)
	}

	entry, created, err := s.poster.Post(ctx, posting)
	if err != nil {
		return nil, err
	}
	if !created {
		return &ledger.Result{Entry: entry, Replayed: true}, nil
	}

	s.journal.Remember(ctx, entry)
	s.metrics.RecordTransactionVolume(operation, entry.Amount)
	s.audit.Record(ctx, audit.EventFor(audit.EventRollbackCommitted, entry))
	s.log.Info("rollback committed",
		zap.String("entry_id", entry.ID),
		zap.String("reverses_key", req.OriginalKey),
		zap.String("amount", entry.Amount.String()))
	return &ledger.Result{Entry: entry}, nil
}

// compensation builds the inverse posting of original: its destination is
// debited and its source, if any, credited.
func (s *service) compensation(original *models.LedgerEntry, actor models.Actor) (ledger.Posting, error) {
	debit, ok := original.Destination()
	if !ok {
		return ledger.Posting{}, apperrors.Internal(nil).WithDetail("entry %s has no destination", original.ID)
	}
	p := ledger.Posting{
		TenantID:       original.TenantID,
		Operation:      models.OperationRollback,
		Debit:          &debit,
		Amount:         original.Amount,
		Description:    "rollback of " + original.IdempotencyKey,
		Actor:          actor,
		IdempotencyKey: models.RollbackKey(original.IdempotencyKey),
		ReversesKey:    original.IdempotencyKey,
		AllowNegative:  s.negative[original.TenantID],
	}
	if credit, ok := original.Source(); ok {
		p.Credit = &credit
	}
	return p, nil
}

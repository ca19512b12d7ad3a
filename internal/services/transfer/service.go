package transfer

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
	"gamewallet/internal/services/audit"
	"gamewallet/internal/services/authorization"
	"gamewallet/internal/services/ledger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	maxIdempotencyKeyLength = 255
	// balances are stored as numeric(38,18)
	maxAmountScale         = 18
	maxAmountIntegerDigits = 20
)

// service implements the transfer Service interface.
type service struct {
	repo    repositories.LedgerRepository
	poster  *ledger.Poster
	journal *ledger.Journal
	audit   audit.Sink
	metrics ledger.MetricsCollector
	log     *zap.Logger

	inflight singleflight.Group
}

// NewService creates a new transfer service instance.
func NewService(
	repo repositories.LedgerRepository,
	poster *ledger.Poster,
	journal *ledger.Journal,
	sink audit.Sink,
	metrics ledger.MetricsCollector,
	log *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if poster == nil {
		panic("poster is required")
	}
	if journal == nil {
		journal = ledger.NewJournal(repo, nil, log)
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
	return &service{
		repo:    repo,
		poster:  poster,
		journal: journal,
		audit:   sink,
		metrics: metrics,
		log:     log,
	}
}

// Transfer validates, deduplicates, authorizes and applies req.
func (s *service) Transfer(ctx context.Context, req Request) (result *ledger.Result, err error) {
	start := time.Now()
	op := string(req.Operation)
	defer func() {
		outcome := "error_" + strings.ToLower(string(apperrors.KindOf(err)))
		if err == nil {
			outcome = result.Outcome()
		}
		s.metrics.RecordOperationDuration(op, time.Since(start))
		s.metrics.RecordOperationResult(op, outcome)
	}()

	posting, err := resolve(req)
	if err != nil {
		return nil, err
	}
	op = string(posting.Operation)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, apperrors.ErrRequestCanceled.Wrap(ctxErr)
	}

	existing, found, err := s.journal.Lookup(ctx, posting.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if found {
		return replay(existing, posting)
	}

	if err := s.authorize(ctx, posting); err != nil {
		return nil, err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, apperrors.ErrRequestCanceled.Wrap(ctxErr)
	}

	// the unit is shared by every caller holding this key, so it must not end
	// with the leader's request
	shared := context.WithoutCancel(ctx)
	leader := false
	v, err, _ := s.inflight.Do(posting.IdempotencyKey, func() (any, error) {
		leader = true
		entry, created, err := s.poster.Post(shared, posting)
		if err != nil {
			return nil, err
		}
		return &ledger.Result{Entry: entry, Replayed: !created}, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(*ledger.Result)
	if !leader || res.Replayed {
		// a concurrent request with this key committed first
		return replay(res.Entry, posting)
	}

	s.afterCommit(ctx, res.Entry)
	return res, nil
}

// resolve turns a request into a posting, deciding mint-ness once.
func resolve(req Request) (ledger.Posting, error) {
	p := ledger.Posting{
		TenantID:       strings.TrimSpace(req.TenantID),
		Amount:         req.Amount,
		Description:    req.Description,
		Actor:          req.Actor,
		IdempotencyKey: req.IdempotencyKey,
	}

	if p.TenantID == "" {
		return p, apperrors.ErrMissingTenant
	}
	if err := validateKey(req.IdempotencyKey); err != nil {
		return p, err
	}
	if !req.Amount.IsPositive() {
		return p, apperrors.ErrInvalidAmount.WithDetail("got %s", req.Amount.String())
	}
	if req.Amount.Exponent() < -maxAmountScale && !req.Amount.Equal(req.Amount.Truncate(maxAmountScale)) {
		return p, apperrors.ErrInvalidAmount.WithDetail("at most %d decimal places", maxAmountScale)
	}
	if req.Amount.GreaterThanOrEqual(ledger.MaxBalance) {
		return p, apperrors.ErrInvalidAmount.WithDetail("at most %d integer digits", maxAmountIntegerDigits)
	}
	if req.Destination.IsZero() {
		return p, apperrors.Validation("MISSING_DESTINATION", "destination account is required")
	}
	dst := req.Destination
	p.Credit = &dst

	if req.Source == nil {
		if req.Operation != "" && req.Operation != models.OperationMint {
			return p, apperrors.ErrInvalidOperation.WithDetail("%s requires a source account", req.Operation)
		}
		p.Operation = models.OperationMint
		return p, nil
	}

	if req.Source.IsZero() {
		return p, apperrors.Validation("MISSING_SOURCE", "source account is invalid")
	}
	if req.Source.ID() == dst.ID() {
		return p, apperrors.ErrSameAccount.WithDetail("account %s", dst.ID())
	}
	switch {
	case req.Operation == "":
		p.Operation = models.OperationTransfer
	case req.Operation == models.OperationMint:
		return p, apperrors.ErrInvalidOperation.WithDetail("a mint has no source account")
	case req.Operation == models.OperationRollback:
		return p, apperrors.ErrInvalidOperation.WithDetail("rollbacks are issued through the rollback endpoint")
	case !req.Operation.Valid():
		return p, apperrors.ErrInvalidOperation.WithDetail("%q", req.Operation)
	default:
		p.Operation = req.Operation
	}
	src := *req.Source
	p.Debit = &src
	return p, nil
}

func validateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return apperrors.ErrMissingIdempotencyKey
	case len(key) > maxIdempotencyKeyLength:
		return apperrors.ErrInvalidIdempotencyKey.WithDetail("longer than %d characters", maxIdempotencyKeyLength)
	case strings.HasPrefix(key, models.RollbackKeyPrefix):
		return apperrors.ErrInvalidIdempotencyKey.WithDetail("prefix %q is reserved", models.RollbackKeyPrefix)
	}
	return nil
}

// authorize resolves the accounts read-only and asks the policy.
func (s *service) authorize(ctx context.Context, p ledger.Posting) error {
	in := authorization.Input{Actor: p.Actor, TenantID: p.TenantID, IsMint: p.Operation == models.OperationMint}

	dst, err := s.account(ctx, *p.Credit)
	if err != nil {
		return err
	}
	dstFacts := authorization.FactsOf(dst)
	in.Destination = &dstFacts

	if p.Debit != nil {
		src, err := s.account(ctx, *p.Debit)
		if err != nil {
			return err
		}
		srcFacts := authorization.FactsOf(src)
		in.Source = &srcFacts
	}

	decision := authorization.Decide(in)
	if !decision.Allowed {
		s.log.Info("transfer denied",
			zap.String("actor_id", p.Actor.ID),
			zap.String("role", string(p.Actor.Role)),
			zap.String("reason", decision.Reason),
			zap.String("idempotency_key", p.IdempotencyKey))
		return apperrors.Forbidden(decision.Reason, decision.Detail)
	}
	return nil
}

func (s *service) account(ctx context.Context, ref models.AccountRef) (*models.Account, error) {
	a, err := s.repo.GetAccount(ctx, ref.ID())
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, apperrors.ErrAccountNotFound.WithDetail("account %s", ref)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if a.AccountKind() != ref.Kind() {
		return nil, apperrors.ErrAccountNotFound.WithDetail("account %s", ref)
	}
	return a, nil
}

// replay returns a stored entry when it records the same movement.
func replay(entry *models.LedgerEntry, p ledger.Posting) (*ledger.Result, error) {
	if !ledger.SamePayload(entry, p) {
		return nil, apperrors.ErrIdempotencyConflict.WithDetail("idempotency key %q", p.IdempotencyKey)
	}
	return &ledger.Result{Entry: entry, Replayed: true}, nil
}

func (s *service) afterCommit(ctx context.Context, entry *models.LedgerEntry) {
	s.journal.Remember(ctx, entry)
	s.metrics.RecordTransactionVolume(string(entry.Operation), entry.Amount)
	s.audit.Record(ctx, audit.EventFor(audit.EventTransferCommitted, entry))
	s.log.Info("transfer committed",
		zap.String("entry_id", entry.ID),
		zap.String("tenant_id", entry.TenantID),
		zap.String("operation", string(entry.Operation)),
		zap.String("amount", entry.Amount.String()),
		zap.String("idempotency_key", entry.IdempotencyKey))
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
	"gamewallet/internal/services/authorization"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxBalance bounds amounts and balances to the 20 integer digits of
// numeric(38,18).
var MaxBalance = decimal.New(1, 20)

const (
	defaultMaxAttempts    = 5
	defaultRetryBaseDelay = 20 * time.Millisecond
	defaultMaxRetryDelay  = time.Second
)

// Poster applies postings as serializable atomic units. It is the only writer
// of account balances and the journal.
type Poster struct {
	repo    repositories.LedgerRepository
	config  Config
	metrics MetricsCollector
	log     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewPoster(repo repositories.LedgerRepository, config Config, metrics MetricsCollector, log *zap.Logger) *Poster {
	if repo == nil {
		panic("repo is required")
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = defaultRetryBaseDelay
	}
	if config.MaxRetryDelay <= 0 {
		config.MaxRetryDelay = defaultMaxRetryDelay
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poster{
		repo:    repo,
		config:  config,
		metrics: metrics,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// duplicate carries an entry found under the posting's key inside the unit.
type duplicate struct {
	entry *models.LedgerEntry
}

func (d *duplicate) Error() string { return "idempotency key already committed" }

// Post applies p and returns the committed entry. created is false when the
// key was already committed, in which case the stored entry is returned
// untouched and the caller decides whether the payloads agree.
func (p *Poster) Post(ctx context.Context, posting Posting) (entry *models.LedgerEntry, created bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, apperrors.ErrRequestCanceled.Wrap(err)
	}

	op := string(posting.Operation)
	delay := p.config.RetryBaseDelay
	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		entry, err = p.attempt(ctx, posting)
		if err == nil {
			return entry, true, nil
		}

		var dup *duplicate
		switch {
		case errors.As(err, &dup):
			return dup.entry, false, nil
		case errors.Is(err, repositories.ErrDuplicateIdempotencyKey):
			// lost the race on the unique index; the winner is committed
			existing, lookupErr := p.repo.GetEntryByIdempotencyKey(ctx, posting.IdempotencyKey)
			if lookupErr != nil {
				return nil, false, apperrors.Internal(lookupErr)
			}
			return existing, false, nil
		case errors.Is(err, repositories.ErrSerializationFailure):
			if attempt == p.config.MaxAttempts {
				continue
			}
			p.metrics.RecordRetry(op)
			p.log.Debug("ledger unit serialization conflict, retrying",
				zap.String("idempotency_key", posting.IdempotencyKey),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, false, apperrors.ErrRequestCanceled.Wrap(err)
			}
			if delay *= 2; delay > p.config.MaxRetryDelay {
				delay = p.config.MaxRetryDelay
			}
			continue
		}

		var de *apperrors.DomainError
		if errors.As(err, &de) {
			return nil, false, de
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, apperrors.ErrRequestCanceled.Wrap(err)
		}
		return nil, false, apperrors.Internal(err)
	}

	p.log.Warn("ledger unit gave up after serialization conflicts",
		zap.String("idempotency_key", posting.IdempotencyKey),
		zap.Int("attempts", p.config.MaxAttempts))
	return nil, false, apperrors.ErrTxConflict
}

func (p *Poster) attempt(ctx context.Context, posting Posting) (*models.LedgerEntry, error) {
	var committed *models.LedgerEntry
	err := p.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		existing, err := tx.GetEntryByIdempotencyKey(ctx, posting.IdempotencyKey)
		switch {
		case err == nil:
			return &duplicate{entry: existing}
		case !errors.Is(err, repositories.ErrEntryNotFound):
			return err
		}

		var refs []models.AccountRef
		if posting.Debit != nil {
			refs = append(refs, *posting.Debit)
		}
		if posting.Credit != nil {
			refs = append(refs, *posting.Credit)
		}
		accounts, err := LockAccounts(ctx, tx, refs...)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			if a.TenantID != posting.TenantID {
				return apperrors.Forbidden(authorization.ReasonCrossTenant,
					fmt.Sprintf("account %s belongs to tenant %s, not %s", a.ID, a.TenantID, posting.TenantID))
			}
		}

		entry := &models.LedgerEntry{
			ID:             p.newID(),
			TenantID:       posting.TenantID,
			Amount:         posting.Amount,
			Operation:      posting.Operation,
			Description:    posting.Description,
			ActorID:        posting.Actor.ID,
			ActorRole:      posting.Actor.Role,
			IdempotencyKey: posting.IdempotencyKey,
			CreatedAt:      p.now(),
		}
		if posting.ReversesKey != "" {
			reverses := posting.ReversesKey
			entry.ReversesKey = &reverses
		}

		var debit, credit *models.Account
		if posting.Debit != nil {
			debit = accounts[posting.Debit.ID()]
			before := debit.Balance
			after := before.Sub(posting.Amount)
			if after.IsNegative() && !posting.AllowNegative {
				return apperrors.ErrInsufficientFunds.WithDetail("account %s balance %s, amount %s",
					debit.ID, before.String(), posting.Amount.String())
			}
			if err := checkBalanceLimit(debit.ID, after); err != nil {
				return err
			}
			debit.Balance = after
			entry.SetSource(*posting.Debit, before, after)
		}
		if posting.Credit != nil {
			credit = accounts[posting.Credit.ID()]
			before := credit.Balance
			after := before.Add(posting.Amount)
			if err := checkBalanceLimit(credit.ID, after); err != nil {
				return err
			}
			credit.Balance = after
			entry.SetDestination(*posting.Credit, before, after)
		}

		for _, a := range []*models.Account{debit, credit} {
			if a == nil {
				continue
			}
			if err := tx.UpdateBalance(ctx, a); err != nil {
				return err
			}
		}
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		committed = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

func checkBalanceLimit(accountID string, balance decimal.Decimal) error {
	if balance.Abs().GreaterThanOrEqual(MaxBalance) {
		return apperrors.ErrBalanceLimit.WithDetail("account %s would reach %s", accountID, balance.String())
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package rollback

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories/memory"
	"gamewallet/internal/services/authorization"
	"gamewallet/internal/services/ledger"
	"gamewallet/internal/services/transfer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	top   = models.Actor{ID: "root", Role: models.RoleTop, TenantID: "platform"}
	admin = models.Actor{ID: "adm-a", Role: models.RoleTenantAdmin, TenantID: "brand-a"}
	agent = models.Actor{ID: "ag-1", Role: models.RoleAgent, TenantID: "brand-a"}
)

type fixture struct {
	store     *memory.LedgerStore
	transfers transfer.Service
	rollbacks Service
}

func newFixture(t *testing.T, negativeTenants ...string) *fixture {
	t.Helper()
	store := memory.NewLedgerStore()
	poster := ledger.NewPoster(store, ledger.Config{MaxAttempts: 3, RetryBaseDelay: time.Millisecond}, nil, nil)
	journal := ledger.NewJournal(store, nil, nil)
	return &fixture{
		store:     store,
		transfers: transfer.NewService(store, poster, journal, nil, nil, nil),
		rollbacks: NewService(poster, journal, nil, Config{NegativeBalanceTenants: negativeTenants}, nil, nil),
	}
}

func (f *fixture) account(t *testing.T, id string, kind models.AccountKind, balance string) models.AccountRef {
	t.Helper()
	a := &models.Account{ID: id, Kind: kind.String(), TenantID: "brand-a", Balance: decimal.RequireFromString(balance)}
	require.NoError(t, f.store.CreateAccount(context.Background(), a))
	return a.Ref()
}

func (f *fixture) balance(t *testing.T, id string) string {
	t.Helper()
	a, err := f.store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a.Balance.String()
}

func (f *fixture) transfer(t *testing.T, key string, from *models.AccountRef, to models.AccountRef, amount string) *models.LedgerEntry {
	t.Helper()
	res, err := f.transfers.Transfer(context.Background(), transfer.Request{
		Source: from, Destination: to, Amount: decimal.RequireFromString(amount),
		IdempotencyKey: key, Actor: top, TenantID: "brand-a",
	})
	require.NoError(t, err)
	return res.Entry
}

func TestRollback_RestoresBalances(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "acc-a", models.KindPlayer, "100")
	b := f.account(t, "acc-b", models.KindPlayer, "0")

	original := f.transfer(t, "t1", &a, b, "30")
	assert.Equal(t, "70", f.balance(t, "acc-a"))

	res, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "t1", Actor: top, TenantID: "brand-a"})
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, "100", f.balance(t, "acc-a"))
	assert.Equal(t, "0", f.balance(t, "acc-b"))

	e := res.Entry
	assert.Equal(t, models.OperationRollback, e.Operation)
	assert.Equal(t, "ROLLBACK:t1", e.IdempotencyKey)
	require.NotNil(t, e.ReversesKey)
	assert.Equal(t, "t1", *e.ReversesKey)
	src, _ := e.Source()
	dst, _ := e.Destination()
	assert.Equal(t, b, src)
	assert.Equal(t, a, dst)
	assert.True(t, e.Amount.Equal(original.Amount))

	t.Run("repeat returns the same rollback", func(t *testing.T) {
		again, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "t1", Actor: top, TenantID: "brand-a"})
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Equal(t, e.ID, again.Entry.ID)
		assert.Equal(t, "100", f.balance(t, "acc-a"))
	})

	t.Run("original is untouched", func(t *testing.T) {
		stored, err := f.store.GetEntryByIdempotencyKey(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, original, stored)
	})

	t.Run("rollback of a rollback", func(t *testing.T) {
		_, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "ROLLBACK:t1", Actor: top, TenantID: "brand-a"})
		assert.ErrorIs(t, err, apperrors.ErrRollbackOfRollback)
	})

	assert.Len(t, f.store.Entries(), 2)
}

func TestRollback_Mint(t *testing.T) {
	f := newFixture(t)
	house := f.account(t, "house", models.KindPrincipal, "0")
	f.transfer(t, "m1", nil, house, "500")

	t.Run("tenant admin cannot reverse a mint", func(t *testing.T) {
		_, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "m1", Actor: admin, TenantID: "brand-a"})
		require.Error(t, err)
		assert.Equal(t, authorization.ReasonMintForbidden, apperrors.As(err).Code)
		assert.Equal(t, "500", f.balance(t, "house"))
	})

	res, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "m1", Actor: top, TenantID: "brand-a"})
	require.NoError(t, err)
	assert.Equal(t, "0", f.balance(t, "house"))
	_, hasDestination := res.Entry.Destination()
	assert.False(t, hasDestination)
}

func TestRollback_NegativeBalance(t *testing.T) {
	setup := func(f *fixture) {
		a := f.account(t, "acc-a", models.KindPlayer, "100")
		b := f.account(t, "acc-b", models.KindPlayer, "0")
		c := f.account(t, "acc-c", models.KindPlayer, "0")
		f.transfer(t, "t1", &a, b, "30")
		// b spends what it received
		f.transfer(t, "t2", &b, c, "25")
	}

	t.Run("refused by default", func(t *testing.T) {
		f := newFixture(t)
		setup(f)
		_, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "t1", Actor: top, TenantID: "brand-a"})
		assert.True(t, apperrors.IsInsufficientFunds(err))
		assert.Equal(t, "5", f.balance(t, "acc-b"))
		assert.Equal(t, "70", f.balance(t, "acc-a"))
	})

	t.Run("allowed for configured tenant", func(t *testing.T) {
		f := newFixture(t, "brand-a")
		setup(f)
		_, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "t1", Actor: top, TenantID: "brand-a"})
		require.NoError(t, err)
		assert.Equal(t, "-25", f.balance(t, "acc-b"))
		assert.Equal(t, "100", f.balance(t, "acc-a"))
	})
}

func TestRollback_Errors(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "acc-a", models.KindPlayer, "100")
	b := f.account(t, "acc-b", models.KindPlayer, "0")
	f.transfer(t, "t1", &a, b, "30")

	tests := []struct {
		name  string
		req   Request
		check func(error) bool
	}{
		{"unknown key", Request{OriginalKey: "nope", Actor: top, TenantID: "brand-a"}, apperrors.IsNotFound},
		{"other tenant", Request{OriginalKey: "t1", Actor: top, TenantID: "brand-b"}, apperrors.IsNotFound},
		{"missing key", Request{Actor: top, TenantID: "brand-a"}, apperrors.IsValidation},
		{"missing tenant", Request{OriginalKey: "t1", Actor: top}, apperrors.IsValidation},
		{"agent", Request{OriginalKey: "t1", Actor: agent, TenantID: "brand-a"}, apperrors.IsAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rollbacks.Rollback(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	res, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "t1", Actor: admin, TenantID: "brand-a"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, res.Entry.ActorID)
}

func TestRollback_TenantIsolation(t *testing.T) {
	adminB := models.Actor{ID: "adm-b", Role: models.RoleTenantAdmin, TenantID: "brand-b"}

	t.Run("top cannot record brand-a movements under brand-b", func(t *testing.T) {
		f := newFixture(t)
		a := f.account(t, "acc-a", models.KindPlayer, "100")
		b := f.account(t, "acc-b", models.KindPlayer, "0")

		_, err := f.transfers.Transfer(context.Background(), transfer.Request{
			Source: &a, Destination: b, Amount: decimal.RequireFromString("30"),
			IdempotencyKey: "x1", Actor: top, TenantID: "brand-b",
		})
		require.Error(t, err)
		assert.Equal(t, authorization.ReasonCrossTenant, apperrors.As(err).Code)
		assert.Empty(t, f.store.Entries())

		_, err = f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "x1", Actor: adminB, TenantID: "brand-b"})
		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, "100", f.balance(t, "acc-a"))
		assert.Equal(t, "0", f.balance(t, "acc-b"))
	})

	t.Run("entry recorded under a foreign tenant is not reversible there", func(t *testing.T) {
		f := newFixture(t)
		a := f.account(t, "acc-a", models.KindPlayer, "70")
		b := f.account(t, "acc-b", models.KindPlayer, "30")

		foreign := &models.LedgerEntry{
			ID: "e-x1", TenantID: "brand-b", Amount: decimal.RequireFromString("30"),
			Operation: models.OperationTransfer, ActorID: top.ID, ActorRole: top.Role,
			IdempotencyKey: "x1", CreatedAt: time.Now().UTC(),
		}
		foreign.SetSource(a, decimal.RequireFromString("100"), decimal.RequireFromString("70"))
		foreign.SetDestination(b, decimal.Zero, decimal.RequireFromString("30"))
		require.NoError(t, f.store.CreateEntry(context.Background(), foreign))

		_, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "x1", Actor: adminB, TenantID: "brand-b"})
		require.Error(t, err)
		assert.True(t, apperrors.IsAuthorization(err))
		assert.Equal(t, authorization.ReasonCrossTenant, apperrors.As(err).Code)
		assert.Equal(t, "70", f.balance(t, "acc-a"))
		assert.Equal(t, "30", f.balance(t, "acc-b"))
		assert.Len(t, f.store.Entries(), 1)
	})
}

func TestRollback_Concurrent(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "acc-a", models.KindPlayer, "100")
	b := f.account(t, "acc-b", models.KindPlayer, "0")
	f.transfer(t, "t1", &a, b, "30")

	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.rollbacks.Rollback(context.Background(), Request{OriginalKey: "t1", Actor: top, TenantID: "brand-a"})
			if assert.NoError(t, err) {
				ids <- res.Entry.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first string
	for id := range ids {
		if first == "" {
			first = id
		}
		assert.Equal(t, first, id)
	}
	assert.Equal(t, "100", f.balance(t, "acc-a"))
	assert.Len(t, f.store.Entries(), 2)
}

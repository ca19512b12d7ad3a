//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
	"gamewallet/internal/services/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gamewallet"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	return db
}

func createAccount(t *testing.T, repo repositories.LedgerRepository, id string, balance int64) models.AccountRef {
	t.Helper()
	a := &models.Account{ID: id, Kind: models.KindPlayer.String(), TenantID: "brand-a", Balance: decimal.NewFromInt(balance)}
	require.NoError(t, repo.CreateAccount(context.Background(), a))
	return a.Ref()
}

func posting(key string, from, to models.AccountRef, amount int64) ledger.Posting {
	return ledger.Posting{
		TenantID:       "brand-a",
		Operation:      models.OperationTransfer,
		Debit:          &from,
		Credit:         &to,
		Amount:         decimal.NewFromInt(amount),
		Actor:          models.Actor{ID: "root", Role: models.RoleTop},
		IdempotencyKey: key,
	}
}

func TestIntegration_LedgerRepository(t *testing.T) {
	db := setupDB(t)
	repo := repositories.NewLedgerRepository(db)
	poster := ledger.NewPoster(repo, ledger.Config{MaxAttempts: 50, RetryBaseDelay: 5 * time.Millisecond, MaxRetryDelay: 200 * time.Millisecond}, nil, nil)
	ctx := context.Background()

	a := createAccount(t, repo, "acc-a", 1000)
	b := createAccount(t, repo, "acc-b", 1000)

	t.Run("commit and replay", func(t *testing.T) {
		entry, created, err := poster.Post(ctx, posting("k1", a, b, 100))
		require.NoError(t, err)
		assert.True(t, created)

		stored, err := repo.GetEntryByIdempotencyKey(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, entry.ID, stored.ID)
		assert.True(t, stored.NewBalanceSource.Decimal.Equal(decimal.NewFromInt(900)))

		again, created, err := poster.Post(ctx, posting("k1", a, b, 100))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, entry.ID, again.ID)
	})

	t.Run("unique index rejects a second entry", func(t *testing.T) {
		err := repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
			return tx.CreateEntry(ctx, &models.LedgerEntry{
				ID: "dup", TenantID: "brand-a", Amount: decimal.NewFromInt(1),
				Operation: models.OperationTransfer, ActorID: "root", ActorRole: models.RoleTop,
				IdempotencyKey: "k1", CreatedAt: time.Now().UTC(),
			})
		})
		assert.ErrorIs(t, err, repositories.ErrDuplicateIdempotencyKey)
	})

	t.Run("insufficient funds rolls back", func(t *testing.T) {
		_, _, err := poster.Post(ctx, posting("k-big", a, b, 5000))
		assert.True(t, apperrors.IsInsufficientFunds(err))
		_, err = repo.GetEntryByIdempotencyKey(ctx, "k-big")
		assert.ErrorIs(t, err, repositories.ErrEntryNotFound)
	})

	t.Run("opposite concurrent transfers conserve the total", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, _, err := poster.Post(ctx, posting(fmt.Sprintf("ab-%d", i), a, b, 7))
				assert.NoError(t, err)
			}(i)
			go func(i int) {
				defer wg.Done()
				_, _, err := poster.Post(ctx, posting(fmt.Sprintf("ba-%d", i), b, a, 3))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		accA, err := repo.GetAccount(ctx, "acc-a")
		require.NoError(t, err)
		accB, err := repo.GetAccount(ctx, "acc-b")
		require.NoError(t, err)
		assert.True(t, accA.Balance.Add(accB.Balance).Equal(decimal.NewFromInt(2000)))
		assert.True(t, accA.Balance.Equal(decimal.NewFromInt(900-25*7+25*3)))
	})

	t.Run("history is newest first", func(t *testing.T) {
		entries, err := repo.ListEntriesByAccount(ctx, "brand-a", "acc-a", 5, 0)
		require.NoError(t, err)
		require.Len(t, entries, 5)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt))
		}
	})
}

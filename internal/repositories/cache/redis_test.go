package cache

import (
	"context"
	"testing"
	"time"

	"gamewallet/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*EntryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEntryCache(client, time.Minute), mr
}

func TestEntryCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	entry, ok, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestEntryCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	entry := &models.LedgerEntry{
		ID:             "e1",
		TenantID:       "brand-a",
		Amount:         decimal.RequireFromString("30.00"),
		Operation:      models.OperationTransfer,
		ActorID:        "admin-1",
		ActorRole:      models.RoleTenantAdmin,
		IdempotencyKey: "k1",
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	entry.SetSource(models.Player("A"), decimal.RequireFromString("100"), decimal.RequireFromString("70"))
	entry.SetDestination(models.Player("B"), decimal.Zero, decimal.RequireFromString("30"))

	require.NoError(t, c.Set(ctx, entry))
	assert.True(t, mr.Exists("ledger:entry:k1"))
	assert.InDelta(t, time.Minute.Seconds(), mr.TTL("ledger:entry:k1").Seconds(), 1)

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "e1", got.ID)
	assert.True(t, got.Amount.Equal(entry.Amount))
	assert.True(t, got.NewBalanceSource.Decimal.Equal(decimal.RequireFromString("70")))
	src, ok := got.Source()
	require.True(t, ok)
	assert.Equal(t, models.Player("A"), src)
}

func TestEntryCache_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("ledger:entry:bad", "{not json"))

	_, ok, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

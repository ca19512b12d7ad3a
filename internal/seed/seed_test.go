package seed

import (
	"context"
	"testing"

	"gamewallet/internal/models"
	"gamewallet/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseAccount(t *testing.T) {
	store := memory.NewLedgerStore()

	account, created, err := HouseAccount(context.Background(), store, "brand-a")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "house-brand-a", account.ID)
	assert.Equal(t, models.KindPrincipal, account.AccountKind())
	assert.True(t, account.Balance.IsZero())

	again, created, err := HouseAccount(context.Background(), store, "brand-a")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, account.ID, again.ID)

	_, _, err = HouseAccount(context.Background(), store, "")
	assert.Error(t, err)
}

// Package seed provisions the minimum a fresh tenant needs to take money:
// the house principal account and a platform operator to mint into it.
package seed

import (
	"context"
	"errors"
	"fmt"

	"gamewallet/internal/models"
	"gamewallet/internal/repositories"

	"github.com/shopspring/decimal"
)

// HouseAccountID is the id of a tenant's house principal account.
func HouseAccountID(tenantID string) string {
	return "house-" + tenantID
}

// HouseAccount returns the tenant's house account, creating it with a zero
// balance when missing. Funds only ever arrive through a mint.
func HouseAccount(ctx context.Context, repo repositories.LedgerRepository, tenantID string) (*models.Account, bool, error) {
	if tenantID == "" {
		return nil, false, errors.New("tenant id is required")
	}
	id := HouseAccountID(tenantID)

	existing, err := repo.GetAccount(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, false, err
	}

	account := &models.Account{
		ID:       id,
		Kind:     models.KindPrincipal.String(),
		TenantID: tenantID,
		Balance:  decimal.Zero,
	}
	if err := repo.CreateAccount(ctx, account); err != nil {
		return nil, false, fmt.Errorf("failed to create house account: %w", err)
	}
	return account, true, nil
}

// TopOperator is the platform operator identity used by development tooling.
func TopOperator(id, username string) models.Actor {
	return models.Actor{ID: id, Username: username, Role: models.RoleTop, TenantID: "platform"}
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"gamewallet/internal/models"

	"gorm.io/gorm"
)

var ErrActorNotFound = errors.New("actor not found")

// ActorRepository resolves backoffice identities for display purposes.
type ActorRepository interface {
	Lookup(ctx context.Context, actorID string) (*models.Actor, error)
}

type actorRepository struct {
	db *gorm.DB
}

func NewActorRepository(db *gorm.DB) ActorRepository {
	return &actorRepository{db: db}
}

func (r *actorRepository) Lookup(ctx context.Context, actorID string) (*models.Actor, error) {
	var actor models.Actor
	if err := r.db.WithContext(ctx).Where("id = ?", actorID).First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActorNotFound
		}
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return &actor, nil
}

package memory

import (
	"context"
	"sync"

	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
)

// ActorStore is an in-process actor directory.
type ActorStore struct {
	mu     sync.RWMutex
	actors map[string]models.Actor
}

func NewActorStore(actors ...models.Actor) *ActorStore {
	s := &ActorStore{actors: make(map[string]models.Actor, len(actors))}
	for _, a := range actors {
		s.actors[a.ID] = a
	}
	return s
}

func (s *ActorStore) Put(actor models.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[actor.ID] = actor
}

func (s *ActorStore) Lookup(ctx context.Context, actorID string) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[actorID]
	if !ok {
		return nil, repositories.ErrActorNotFound
	}
	return &a, nil
}

var _ repositories.ActorRepository = (*ActorStore)(nil)

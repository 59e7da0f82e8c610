package player

import (
	"errors"

	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/storage/local"
)

const playersCollection = "players"

// LocalStore persists players as JSON save files on disk.
type LocalStore struct {
	store *local.Store
}

// NewLocalStore wraps a local JSON store
func NewLocalStore(store *local.Store) *LocalStore {
	return &LocalStore{store: store}
}

func (s *LocalStore) Save(p *domain.Player) error {
	return s.store.Save(playersCollection, p.ID.String(), p)
}

func (s *LocalStore) Load(id string) (*domain.Player, error) {
	var p domain.Player
	if err := s.store.Load(playersCollection, id, &p); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *LocalStore) Delete(id string) error {
	if err := s.store.Delete(playersCollection, id); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return domain.ErrPlayerNotFound
		}
		return err
	}
	return nil
}

func (s *LocalStore) List() ([]string, error) {
	return s.store.List(playersCollection)
}

package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu         sync.RWMutex
	characters map[model.OwnerKey]*model.Character
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		characters: make(map[model.OwnerKey]*model.Character),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateCharacter(ctx context.Context, c *model.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[c.OwnerKey]; ok {
		return model.ErrCharacterExists
	}
	stored := c.Clone()
	stored.Version = 1
	s.characters[c.OwnerKey] = stored
	c.Version = stored.Version
	return nil
}

func (s *Storage) GetCharacter(ctx context.Context, owner model.OwnerKey) (*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[owner]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return c.Clone(), nil
}

func (s *Storage) UpdateCharacter(ctx context.Context, owner model.OwnerKey, fn storage.UpdateFunc) (*model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.characters[owner]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.OwnerKey = owner
	working.Version = current.Version + 1
	s.characters[owner] = working
	return working.Clone(), nil
}

func (s *Storage) DeleteCharacter(ctx context.Context, owner model.OwnerKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.characters[owner]; !ok {
		return model.ErrCharacterNotFound
	}
	delete(s.characters, owner)
	return nil
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.Character, 0, len(s.characters))
	for _, c := range s.characters {
		result = append(result, c.Clone())
	}
	slices.SortFunc(result, func(a, b *model.Character) int {
		return cmp.Compare(a.OwnerKey, b.OwnerKey)
	})
	return result, nil
}

// Ping always succeeds
func (s *Storage) Ping(context.Context) error {
	return nil
}

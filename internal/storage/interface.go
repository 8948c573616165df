package storage

import (
	"context"

	"github.com/mcoot/sortinghat/internal/model"
)

// UpdateFunc mutates a character inside a storage transaction. Returning an
// error aborts the update and leaves the stored character unchanged.
type UpdateFunc func(c *model.Character) error

// Storage defines the interface for character persistence. Implementations
// hand out copies; mutating a returned character has no effect on the store.
type Storage interface {
	// CreateCharacter inserts a new character, failing with
	// model.ErrCharacterExists if one is already stored for the owner key.
	// The check and the insert are atomic.
	CreateCharacter(ctx context.Context, c *model.Character) error

	// GetCharacter returns the character for the owner key, or
	// model.ErrCharacterNotFound.
	GetCharacter(ctx context.Context, owner model.OwnerKey) (*model.Character, error)

	// UpdateCharacter runs fn against the current character and persists the
	// result as one read-modify-write. The version is bumped on success and
	// the stored result is returned.
	UpdateCharacter(ctx context.Context, owner model.OwnerKey, fn UpdateFunc) (*model.Character, error)

	// DeleteCharacter removes the character together with its skills, or
	// returns model.ErrCharacterNotFound.
	DeleteCharacter(ctx context.Context, owner model.OwnerKey) error

	// ListCharacters returns every stored character ordered by owner key
	ListCharacters(ctx context.Context) ([]*model.Character, error)

	// Ping checks that the backend is reachable without reading any rows
	Ping(ctx context.Context) error
}

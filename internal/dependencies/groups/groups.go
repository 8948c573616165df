// Package groups abstracts the external directory that tracks which
// platform group (role) each member belongs to.
package groups

import (
	"context"

	"github.com/mcoot/sortinghat/internal/model"
)

// Directory adds and removes group memberships for a member
type Directory interface {
	AddMember(ctx context.Context, owner model.OwnerKey, groupID string) error
	RemoveMember(ctx context.Context, owner model.OwnerKey, groupID string) error
}

// NopDirectory accepts every request without doing anything. Used when no
// chat platform is connected (admin API only, tests).
type NopDirectory struct{}

// AddMember does nothing
func (NopDirectory) AddMember(context.Context, model.OwnerKey, string) error { return nil }

// RemoveMember does nothing
func (NopDirectory) RemoveMember(context.Context, model.OwnerKey, string) error { return nil }

var _ Directory = NopDirectory{}

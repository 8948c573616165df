package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/sortinghat/internal/dependencies/groups"
	"github.com/mcoot/sortinghat/internal/model"
)

// MockDirectory records group memberships in memory for testing
type MockDirectory struct {
	mu      sync.Mutex
	members map[model.OwnerKey]map[string]bool

	// AddErr and RemoveErr, when set, are returned by the next matching call
	AddErr    error
	RemoveErr error

	// Calls records every request as "add:<group>" or "remove:<group>"
	Calls []string
}

// Ensure MockDirectory implements Directory
var _ groups.Directory = (*MockDirectory)(nil)

// NewMockDirectory creates an empty MockDirectory
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{members: make(map[model.OwnerKey]map[string]bool)}
}

// AddMember records a membership, or fails with AddErr
func (d *MockDirectory) AddMember(_ context.Context, owner model.OwnerKey, groupID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "add:"+groupID)
	if d.AddErr != nil {
		err := d.AddErr
		d.AddErr = nil
		return err
	}
	if d.members[owner] == nil {
		d.members[owner] = make(map[string]bool)
	}
	d.members[owner][groupID] = true
	return nil
}

// RemoveMember drops a membership, or fails with RemoveErr
func (d *MockDirectory) RemoveMember(_ context.Context, owner model.OwnerKey, groupID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "remove:"+groupID)
	if d.RemoveErr != nil {
		err := d.RemoveErr
		d.RemoveErr = nil
		return err
	}
	delete(d.members[owner], groupID)
	return nil
}

// Groups returns the groups the owner currently belongs to
func (d *MockDirectory) Groups(owner model.OwnerKey) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for g := range d.members[owner] {
		out = append(out, g)
	}
	return out
}

// SetMember marks the owner as already belonging to a group
func (d *MockDirectory) SetMember(owner model.OwnerKey, groupID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.members[owner] == nil {
		d.members[owner] = make(map[string]bool)
	}
	d.members[owner][groupID] = true
}

// Package selection implements the interactive house and personality
// pickers. Each picker instance belongs to one owner and one interaction,
// expires after a period of inactivity, and commits through the progression
// engine exactly once.
package selection

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/sortinghat/internal/dependencies/clock"
	"github.com/mcoot/sortinghat/internal/model"
)

// DefaultTimeout is how long a picker survives without input
const DefaultTimeout = 60 * time.Second

// State of a picker
type State string

const (
	StateOffered   State = "offered"
	StateCommitted State = "committed"
	StateExpired   State = "expired"
)

// Engine is the subset of the progression controller the pickers drive
type Engine interface {
	Get(ctx context.Context, owner model.OwnerKey) (*model.Character, error)
	AssignHouse(ctx context.Context, owner model.OwnerKey, house string) (*model.Character, error)
	AssignPersonalities(ctx context.Context, owner model.OwnerKey, names []string) (*model.Character, error)
}

// workflow holds the lifecycle shared by both pickers. Callers hold mu
// around every event.
type workflow struct {
	mu sync.Mutex

	id           string
	owner        model.OwnerKey
	clock        clock.Clock
	timeout      time.Duration
	state        State
	lastActivity time.Time
}

func (w *workflow) init(id string, owner model.OwnerKey, clk clock.Clock, timeout time.Duration) {
	w.id = id
	w.owner = owner
	w.clock = clk
	w.timeout = timeout
	w.state = StateOffered
	w.lastActivity = clk.Now()
}

// begin admits an event. It moves an idle picker to expired and refreshes
// the inactivity deadline otherwise.
func (w *workflow) begin() error {
	switch w.currentState() {
	case StateCommitted:
		return model.ErrWorkflowClosed
	case StateExpired:
		return model.ErrWorkflowExpired
	}
	w.lastActivity = w.clock.Now()
	return nil
}

// currentState resolves a lapsed deadline before reporting the state
func (w *workflow) currentState() State {
	if w.state == StateOffered && clock.Lapsed(w.clock, w.lastActivity, w.timeout) {
		w.state = StateExpired
	}
	return w.state
}

// ID returns the workflow identifier
func (w *workflow) ID() string {
	return w.id
}

// Owner returns the owner the picker was started for
func (w *workflow) Owner() model.OwnerKey {
	return w.owner
}

// State returns the current state, accounting for expiry
func (w *workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentState()
}

// finished reports whether the picker can be discarded
func (w *workflow) finished() bool {
	return w.State() != StateOffered
}

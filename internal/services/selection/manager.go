package selection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/dependencies/clock"
	"github.com/mcoot/sortinghat/internal/dependencies/groups"
	"github.com/mcoot/sortinghat/internal/dependencies/random"
	"github.com/mcoot/sortinghat/internal/model"
)

// WorkflowIDLength is the length of generated workflow ids
const WorkflowIDLength = 10

// Manager creates pickers and routes events to them by id
type Manager struct {
	engine    Engine
	directory groups.Directory
	catalog   *catalog.Catalog
	clock     clock.Clock
	random    random.Random
	timeout   time.Duration
	logger    *slog.Logger

	// houseLocks serialises house changes of one owner across pickers
	houseLocks *ownerLocks

	mu            sync.Mutex
	houses        map[string]*HousePicker
	personalities map[string]*PersonalityPicker
}

// NewManager creates a new selection Manager. A non-positive timeout falls
// back to DefaultTimeout.
func NewManager(
	engine Engine,
	directory groups.Directory,
	catalog *catalog.Catalog,
	clock clock.Clock,
	random random.Random,
	timeout time.Duration,
	logger *slog.Logger,
) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		engine:        engine,
		directory:     directory,
		catalog:       catalog,
		clock:         clock,
		random:        random,
		timeout:       timeout,
		logger:        logger,
		houseLocks:    newOwnerLocks(),
		houses:        make(map[string]*HousePicker),
		personalities: make(map[string]*PersonalityPicker),
	}
}

// Timeout returns the inactivity timeout applied to new pickers
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// StartHousePicker opens a house picker for a registered character
func (m *Manager) StartHousePicker(ctx context.Context, owner model.OwnerKey) (*HousePicker, error) {
	if _, err := m.engine.Get(ctx, owner); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := &HousePicker{
		engine:    m.engine,
		directory: m.directory,
		catalog:   m.catalog,
		locks:     m.houseLocks,
		logger:    m.logger,
	}
	p.init(m.newID(), owner, m.clock, m.timeout)
	m.houses[p.id] = p

	m.logger.Debug("house picker started", slog.String("workflow", p.id), slog.String("owner", string(owner)))
	return p, nil
}

// StartPersonalityPicker opens a personality picker for a registered
// character, starting on the first page with nothing selected
func (m *Manager) StartPersonalityPicker(ctx context.Context, owner model.OwnerKey) (*PersonalityPicker, error) {
	if _, err := m.engine.Get(ctx, owner); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := &PersonalityPicker{
		engine:  m.engine,
		catalog: m.catalog,
		logger:  m.logger,
	}
	p.init(m.newID(), owner, m.clock, m.timeout)
	m.personalities[p.id] = p

	m.logger.Debug("personality picker started", slog.String("workflow", p.id), slog.String("owner", string(owner)))
	return p, nil
}

// HousePicker returns the house picker with the given id if caller owns it
func (m *Manager) HousePicker(id string, caller model.OwnerKey) (*HousePicker, error) {
	m.mu.Lock()
	p, ok := m.houses[id]
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrWorkflowNotFound
	}
	if p.owner != caller {
		return nil, model.ErrNotWorkflowOwner
	}
	return p, nil
}

// PersonalityPicker returns the personality picker with the given id if
// caller owns it
func (m *Manager) PersonalityPicker(id string, caller model.OwnerKey) (*PersonalityPicker, error) {
	m.mu.Lock()
	p, ok := m.personalities[id]
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrWorkflowNotFound
	}
	if p.owner != caller {
		return nil, model.ErrNotWorkflowOwner
	}
	return p, nil
}

// Sweep discards pickers that have committed or expired and returns how
// many were removed
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, p := range m.houses {
		if p.finished() {
			delete(m.houses, id)
			removed++
		}
	}
	for id, p := range m.personalities {
		if p.finished() {
			delete(m.personalities, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug("swept selection workflows", slog.Int("removed", removed))
	}
	return removed
}

// Run sweeps on every tick until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// newID returns an id not in use by any live picker. Callers hold mu.
func (m *Manager) newID() string {
	for {
		id := m.random.String(WorkflowIDLength, random.IDAlphabet)
		_, h := m.houses[id]
		_, p := m.personalities[id]
		if !h && !p {
			return id
		}
	}
}

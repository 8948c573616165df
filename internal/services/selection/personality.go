package selection

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/model"
)

// PageSize is the number of personalities shown per page
const PageSize = 7

// View is what the personality picker currently shows
type View struct {
	Page        int
	Entries     []catalog.Personality
	Selected    []string
	HasPrevious bool
	HasNext     bool
	State       State
}

// PersonalityPicker pages through the catalog and collects up to four
// personalities before committing them
type PersonalityPicker struct {
	workflow

	engine  Engine
	catalog *catalog.Catalog
	logger  *slog.Logger

	page    int
	pending []string
}

// View returns the current page without counting as activity
func (p *PersonalityPicker) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentState()
	return p.view()
}

// Next moves to the following page. It does nothing when Next is disabled.
func (p *PersonalityPicker) Next() (View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(); err != nil {
		return View{}, err
	}
	if p.view().HasNext {
		p.page++
	}
	return p.view(), nil
}

// Previous moves to the preceding page. It does nothing on the first page.
func (p *PersonalityPicker) Previous() (View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(); err != nil {
		return View{}, err
	}
	if p.page > 0 {
		p.page--
	}
	return p.view(), nil
}

// Toggle adds the personality to the pending set, or removes it if it is
// already there. The pending set survives page changes.
func (p *PersonalityPicker) Toggle(name string) (View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(); err != nil {
		return View{}, err
	}

	entry, ok := p.catalog.Personality(name)
	if !ok {
		return p.view(), model.ErrInvalidSelection
	}

	if i := slices.Index(p.pending, entry.Key); i >= 0 {
		p.pending = slices.Delete(p.pending, i, i+1)
		return p.view(), nil
	}
	if len(p.pending) >= model.MaxPersonalities {
		return p.view(), model.ErrSelectionLimit
	}
	p.pending = append(p.pending, entry.Key)
	return p.view(), nil
}

// Confirm commits the pending set. An empty set is rejected and the picker
// stays open.
func (p *PersonalityPicker) Confirm(ctx context.Context) (*model.Character, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(); err != nil {
		return nil, err
	}
	if len(p.pending) == 0 {
		return nil, model.ErrInvalidSelection
	}

	ch, err := p.engine.AssignPersonalities(ctx, p.owner, slices.Clone(p.pending))
	if err != nil {
		return nil, err
	}

	p.state = StateCommitted
	p.logger.Info("personalities selected",
		slog.String("workflow", p.id),
		slog.String("owner", string(p.owner)),
		slog.Any("personalities", p.pending),
	)
	return ch, nil
}

func (p *PersonalityPicker) view() View {
	entries := p.catalog.PersonalityPage(p.page, PageSize)
	return View{
		Page:        p.page,
		Entries:     entries,
		Selected:    slices.Clone(p.pending),
		HasPrevious: p.page > 0,
		HasNext:     len(entries) == PageSize,
		State:       p.state,
	}
}

package selection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/dependencies/groups"
	"github.com/mcoot/sortinghat/internal/model"
)

// HousePicker offers the four houses and commits one choice
type HousePicker struct {
	workflow

	engine    Engine
	directory groups.Directory
	catalog   *catalog.Catalog
	locks     *ownerLocks
	logger    *slog.Logger
}

// Choices returns the houses on offer
func (p *HousePicker) Choices() []catalog.House {
	return p.catalog.Houses
}

// Select moves the owner into the named house. Group membership is updated
// before the engine commit; if the commit then fails the membership change
// is rolled back. A group directory failure leaves the picker open so the
// member can try again. Selections by different pickers of the same owner
// run one at a time, so each sees the house the previous one committed.
func (p *HousePicker) Select(ctx context.Context, houseName string) (*model.Character, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(); err != nil {
		return nil, err
	}

	house, ok := p.catalog.House(houseName)
	if !ok {
		return nil, model.ErrUnknownHouse
	}

	unlock, err := p.locks.lock(ctx, p.owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := p.engine.Get(ctx, p.owner)
	if err != nil {
		return nil, err
	}

	var previous string
	if prev, ok := p.catalog.House(current.House); ok && prev.Key != house.Key {
		previous = prev.GroupID
	}

	if err := p.moveGroups(ctx, previous, house.GroupID); err != nil {
		return nil, err
	}

	ch, err := p.engine.AssignHouse(ctx, p.owner, house.Key)
	if err != nil {
		p.compensate(ctx, previous, house.GroupID, current.House == house.Key)
		return nil, err
	}

	p.state = StateCommitted
	p.logger.Info("house selected",
		slog.String("workflow", p.id),
		slog.String("owner", string(p.owner)),
		slog.String("house", house.Key),
	)
	return ch, nil
}

// moveGroups removes the previous group then adds the next one. If the add
// fails the removal is undone.
func (p *HousePicker) moveGroups(ctx context.Context, previous, next string) error {
	if previous != "" {
		if err := p.directory.RemoveMember(ctx, p.owner, previous); err != nil {
			return fmt.Errorf("%w: remove %s: %v", model.ErrExternalSideEffect, previous, err)
		}
	}
	if next != "" {
		if err := p.directory.AddMember(ctx, p.owner, next); err != nil {
			if previous != "" {
				if rerr := p.directory.AddMember(ctx, p.owner, previous); rerr != nil {
					p.logger.Error("failed to restore previous house group",
						slog.String("owner", string(p.owner)),
						slog.String("group", previous),
						slog.String("error", rerr.Error()),
					)
				}
			}
			return fmt.Errorf("%w: add %s: %v", model.ErrExternalSideEffect, next, err)
		}
	}
	return nil
}

// compensate reverses moveGroups after a failed engine commit. Best effort;
// failures are logged.
func (p *HousePicker) compensate(ctx context.Context, previous, next string, alreadyMember bool) {
	if next != "" && !alreadyMember {
		if err := p.directory.RemoveMember(ctx, p.owner, next); err != nil {
			p.logger.Error("failed to roll back house group",
				slog.String("owner", string(p.owner)),
				slog.String("group", next),
				slog.String("error", err.Error()),
			)
		}
	}
	if previous != "" {
		if err := p.directory.AddMember(ctx, p.owner, previous); err != nil {
			p.logger.Error("failed to restore previous house group",
				slog.String("owner", string(p.owner)),
				slog.String("group", previous),
				slog.String("error", err.Error()),
			)
		}
	}
}

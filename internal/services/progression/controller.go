package progression

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/dependencies/clock"
	"github.com/mcoot/sortinghat/internal/dependencies/random"
	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/services/stats"
	"github.com/mcoot/sortinghat/internal/storage"
)

// Luck is rolled as LuckDice d6, multiplied by LuckMultiplier
const (
	LuckDice       = 3
	LuckMultiplier = 5
)

// Controller applies progression rules to stored characters. Every mutation
// is a single read-modify-write against storage, and derived stats are
// recomputed in the same write as the attribute change that caused them.
type Controller struct {
	storage storage.Storage
	catalog *catalog.Catalog
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// Sheet is a read-only view of a character with display helpers
type Sheet struct {
	Character        *model.Character
	Purse            model.Purse
	SkillPointsSpent int
	// SkillPointsLeft is negative when a later attribute change shrank the
	// budget below what is already allocated
	SkillPointsLeft int
}

// NewSheet builds the sheet view of a character
func NewSheet(ch *model.Character) *Sheet {
	spent := ch.SkillPointsSpent()
	return &Sheet{
		Character:        ch,
		Purse:            model.ToPurse(ch.Balance),
		SkillPointsSpent: spent,
		SkillPointsLeft:  ch.Derived.SkillPoints - spent,
	}
}

// NewController creates a new progression Controller
func NewController(
	storage storage.Storage,
	catalog *catalog.Catalog,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		catalog: catalog,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// Catalog returns the catalog the controller validates against
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Register creates a character with default attributes, a rolled luck score
// and the default skill template
func (c *Controller) Register(ctx context.Context, owner model.OwnerKey, displayName string) (*model.Character, error) {
	name, err := model.NormalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	ch := &model.Character{
		OwnerKey:    owner,
		DisplayName: name,
		Base:        model.DefaultAttributes(),
		Luck:        random.Roll(c.random, LuckDice, 6) * LuckMultiplier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.refresh(ch)
	ch.Skills = c.catalog.DefaultSkills(ch.Attributes)

	if err := c.storage.CreateCharacter(ctx, ch); err != nil {
		return nil, c.storeError(err)
	}

	c.logger.Info("character registered",
		slog.String("owner", string(owner)),
		slog.String("name", name),
		slog.Int("luck", ch.Luck),
	)
	return ch, nil
}

// Rename changes the display name
func (c *Controller) Rename(ctx context.Context, owner model.OwnerKey, displayName string) (*model.Character, error) {
	name, err := model.NormalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	return c.update(ctx, owner, "rename", func(ch *model.Character) error {
		ch.DisplayName = name
		return nil
	})
}

// SetSize sets the base size, which must lie in [1,100]
func (c *Controller) SetSize(ctx context.Context, owner model.OwnerKey, value int) (*model.Character, error) {
	return c.update(ctx, owner, "set_size", func(ch *model.Character) error {
		if !model.InEditableRange(value) {
			return model.ErrOutOfRange
		}
		ch.Base.Size = value
		return nil
	})
}

// SetAppearance sets the base appearance, which must lie in [1,100]
func (c *Controller) SetAppearance(ctx context.Context, owner model.OwnerKey, value int) (*model.Character, error) {
	return c.update(ctx, owner, "set_appearance", func(ch *model.Character) error {
		if !model.InEditableRange(value) {
			return model.ErrOutOfRange
		}
		ch.Base.Appearance = value
		return nil
	})
}

// AssignHouse replaces the character's house. Only the new house's modifier
// is reflected in the resulting attributes.
func (c *Controller) AssignHouse(ctx context.Context, owner model.OwnerKey, houseName string) (*model.Character, error) {
	return c.update(ctx, owner, "assign_house", func(ch *model.Character) error {
		house, ok := c.catalog.House(houseName)
		if !ok {
			return model.ErrUnknownHouse
		}
		ch.House = house.Key
		return nil
	})
}

// AssignPersonalities replaces the committed personality set with 1 to 4
// distinct catalog entries
func (c *Controller) AssignPersonalities(ctx context.Context, owner model.OwnerKey, names []string) (*model.Character, error) {
	return c.update(ctx, owner, "assign_personalities", func(ch *model.Character) error {
		keys, err := c.catalog.ResolvePersonalities(names)
		if err != nil {
			return err
		}
		ch.Personalities = keys
		return nil
	})
}

// GrantCurrency adds amount Knuts to the balance
func (c *Controller) GrantCurrency(ctx context.Context, owner model.OwnerKey, amount int64) (*model.Character, error) {
	if amount < 1 {
		return nil, model.ErrInvalidAmount
	}
	return c.update(ctx, owner, "grant_currency", func(ch *model.Character) error {
		balance, err := model.AddBalance(ch.Balance, amount)
		if err != nil {
			return err
		}
		ch.Balance = balance
		return nil
	})
}

// DeductCurrency removes amount Knuts from the balance, stopping at zero
func (c *Controller) DeductCurrency(ctx context.Context, owner model.OwnerKey, amount int64) (*model.Character, error) {
	if amount < 1 {
		return nil, model.ErrInvalidAmount
	}
	return c.update(ctx, owner, "deduct_currency", func(ch *model.Character) error {
		balance, err := model.SubtractBalance(ch.Balance, amount)
		if err != nil {
			return err
		}
		ch.Balance = balance
		return nil
	})
}

// AllocateSkill sets the free allocation of one skill. The sum of all
// allocations may not exceed the current skill point budget.
func (c *Controller) AllocateSkill(ctx context.Context, owner model.OwnerKey, skillName string, bonus int) (*model.Character, error) {
	if bonus < 0 {
		return nil, model.ErrInvalidAmount
	}
	return c.update(ctx, owner, "allocate_skill", func(ch *model.Character) error {
		skill := ch.GetSkill(skillName)
		if skill == nil {
			return model.ErrUnknownSkill
		}
		if ch.SkillPointsSpent()-skill.Bonus+bonus > ch.Derived.SkillPoints {
			return model.ErrInsufficientSkillPoints
		}
		skill.Bonus = bonus
		return nil
	})
}

// Delete removes the character and its skill allocation
func (c *Controller) Delete(ctx context.Context, owner model.OwnerKey) error {
	if err := c.storage.DeleteCharacter(ctx, owner); err != nil {
		return c.storeError(err)
	}
	c.logger.Info("character deleted", slog.String("owner", string(owner)))
	return nil
}

// Get returns the stored character
func (c *Controller) Get(ctx context.Context, owner model.OwnerKey) (*model.Character, error) {
	ch, err := c.storage.GetCharacter(ctx, owner)
	if err != nil {
		return nil, c.storeError(err)
	}
	return ch, nil
}

// View returns a read-only snapshot of the character sheet
func (c *Controller) View(ctx context.Context, owner model.OwnerKey) (*Sheet, error) {
	ch, err := c.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	return NewSheet(ch), nil
}

// List returns every character ordered by owner key
func (c *Controller) List(ctx context.Context) ([]*model.Character, error) {
	all, err := c.storage.ListCharacters(ctx)
	if err != nil {
		return nil, c.storeError(err)
	}
	return all, nil
}

// Ping checks that the character store is reachable
func (c *Controller) Ping(ctx context.Context) error {
	if err := c.storage.Ping(ctx); err != nil {
		return c.storeError(err)
	}
	return nil
}

// update runs fn inside a storage transaction, then recomputes effective
// attributes and derived stats before the write
func (c *Controller) update(ctx context.Context, owner model.OwnerKey, op string, fn func(ch *model.Character) error) (*model.Character, error) {
	now := c.clock.Now()
	ch, err := c.storage.UpdateCharacter(ctx, owner, func(ch *model.Character) error {
		if err := fn(ch); err != nil {
			return err
		}
		c.refresh(ch)
		ch.UpdatedAt = now
		return nil
	})
	if err != nil {
		if model.IsDomainError(err) {
			c.logger.Debug("character update rejected",
				slog.String("owner", string(owner)),
				slog.String("op", op),
				slog.String("reason", err.Error()),
			)
		}
		return nil, c.storeError(err)
	}

	c.logger.Info("character updated",
		slog.String("owner", string(owner)),
		slog.String("op", op),
		slog.Int64("version", ch.Version),
	)
	return ch, nil
}

// refresh derives Attributes from Base plus the active modifiers, then
// recomputes the derived stats
func (c *Controller) refresh(ch *model.Character) {
	ch.Attributes = c.catalog.Effective(ch.Base, ch.House, ch.Personalities).ClampNonNegative()
	ch.Derived = stats.Recompute(ch.Attributes)
}

// storeError passes domain errors through and classifies anything else as
// a store failure
func (c *Controller) storeError(err error) error {
	if model.IsDomainError(err) {
		return err
	}
	c.logger.Error("character store failure", slog.String("error", err.Error()))
	return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
}

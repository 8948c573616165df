// Package stats computes secondary attributes from a character's primaries.
package stats

import "github.com/mcoot/sortinghat/internal/model"

// MaxSanity caps starting sanity regardless of willpower
const MaxSanity = 99

// Movement rates
const (
	MoveSlow   = 7
	MoveNormal = 8
	MoveFast   = 9
)

// damageBand maps an upper bound on strength+size to a bonus and build
type damageBand struct {
	maxTotal int
	bonus    string
	build    int
}

var damageBands = []damageBand{
	{64, "-2d6", -2},
	{84, "-1d6", -1},
	{124, "0", 0},
	{164, "+1d4", 1},
	{204, "+1d6", 2},
}

// Recompute derives every secondary attribute from the given primaries.
// It is total: any input produces a result.
func Recompute(a model.Attributes) model.Derived {
	hp := (a.Constitution + a.Size) / 10
	sanity := min(a.Willpower, MaxSanity)
	bonus, build := DamageBonus(a.Strength + a.Size)

	return model.Derived{
		HitPoints:   hp,
		MagicPoints: a.Willpower / 5,
		Sanity:      sanity,
		Movement:    Movement(a.Strength, a.Dexterity, a.Size),
		DamageBonus: bonus,
		Build:       build,
		Status:      status(hp, sanity),
		SkillPoints: a.Education*4 + a.Intelligence*2,
	}
}

// Movement returns the movement rate for the given strength, dexterity and size
func Movement(strength, dexterity, size int) int {
	switch {
	case strength < size && dexterity < size:
		return MoveSlow
	case strength > size || dexterity > size:
		return MoveFast
	default:
		return MoveNormal
	}
}

// DamageBonus returns the damage bonus die expression and build for the sum
// of strength and size
func DamageBonus(total int) (string, int) {
	for _, band := range damageBands {
		if total <= band.maxTotal {
			return band.bonus, band.build
		}
	}
	return "+2d6", 3
}

func status(hitPoints, sanity int) model.Status {
	switch {
	case hitPoints < 1:
		return model.StatusDying
	case sanity <= 0:
		return model.StatusPermanentlyInsane
	default:
		return model.StatusNormal
	}
}

package response

import (
	"time"

	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/services/progression"
)

// Attributes represents primary attributes in API responses
type Attributes struct {
	Strength     int `json:"strength"`
	Constitution int `json:"constitution"`
	Size         int `json:"size"`
	Intelligence int `json:"intelligence"`
	Willpower    int `json:"willpower"`
	Dexterity    int `json:"dexterity"`
	Appearance   int `json:"appearance"`
	Education    int `json:"education"`
}

// AttributesFromModel converts model.Attributes
func AttributesFromModel(a model.Attributes) Attributes {
	return Attributes(a)
}

// Derived represents derived stats in API responses
type Derived struct {
	HitPoints   int    `json:"hit_points"`
	MagicPoints int    `json:"magic_points"`
	Sanity      int    `json:"sanity"`
	Movement    int    `json:"movement"`
	DamageBonus string `json:"damage_bonus"`
	Build       int    `json:"build"`
	Status      string `json:"status"`
	SkillPoints int    `json:"skill_points"`
}

// DerivedFromModel converts model.Derived
func DerivedFromModel(d model.Derived) Derived {
	return Derived{
		HitPoints:   d.HitPoints,
		MagicPoints: d.MagicPoints,
		Sanity:      d.Sanity,
		Movement:    d.Movement,
		DamageBonus: d.DamageBonus,
		Build:       d.Build,
		Status:      string(d.Status),
		SkillPoints: d.SkillPoints,
	}
}

// Skill represents one skill in API responses
type Skill struct {
	Name  string `json:"name"`
	Base  int    `json:"base"`
	Bonus int    `json:"bonus"`
	Value int    `json:"value"`
}

// Purse represents a balance split into denominations
type Purse struct {
	Galleons int64  `json:"galleons"`
	Sickles  int64  `json:"sickles"`
	Knuts    int64  `json:"knuts"`
	Display  string `json:"display"`
}

// PurseFromModel converts model.Purse
func PurseFromModel(p model.Purse) Purse {
	return Purse{
		Galleons: p.Galleons,
		Sickles:  p.Sickles,
		Knuts:    p.Knuts,
		Display:  p.String(),
	}
}

// CharacterSummary is a list entry
type CharacterSummary struct {
	OwnerKey    string `json:"owner_key"`
	DisplayName string `json:"display_name"`
	House       string `json:"house,omitempty"`
	Balance     int64  `json:"balance"`
}

// CharacterSummaryFromModel converts model.Character into a list entry
func CharacterSummaryFromModel(c *model.Character) CharacterSummary {
	return CharacterSummary{
		OwnerKey:    string(c.OwnerKey),
		DisplayName: c.DisplayName,
		House:       c.House,
		Balance:     c.Balance,
	}
}

// Character represents a full character sheet in API responses
type Character struct {
	OwnerKey         string     `json:"owner_key"`
	DisplayName      string     `json:"display_name"`
	House            string     `json:"house,omitempty"`
	Personalities    []string   `json:"personalities"`
	Base             Attributes `json:"base"`
	Attributes       Attributes `json:"attributes"`
	Derived          Derived    `json:"derived"`
	Luck             int        `json:"luck"`
	Balance          int64      `json:"balance"`
	Purse            Purse      `json:"purse"`
	Skills           []Skill    `json:"skills"`
	SkillPointsSpent int        `json:"skill_points_spent"`
	SkillPointsLeft  int        `json:"skill_points_left"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CharacterFromModel converts a character to a response sheet
func CharacterFromModel(c *model.Character) Character {
	return CharacterFromSheet(progression.NewSheet(c))
}

// CharacterFromSheet converts a progression.Sheet
func CharacterFromSheet(s *progression.Sheet) Character {
	c := s.Character
	skills := make([]Skill, len(c.Skills))
	for i, sk := range c.Skills {
		skills[i] = Skill{Name: sk.Name, Base: sk.Base, Bonus: sk.Bonus, Value: sk.Value()}
	}
	personalities := c.Personalities
	if personalities == nil {
		personalities = []string{}
	}
	return Character{
		OwnerKey:         string(c.OwnerKey),
		DisplayName:      c.DisplayName,
		House:            c.House,
		Personalities:    personalities,
		Base:             AttributesFromModel(c.Base),
		Attributes:       AttributesFromModel(c.Attributes),
		Derived:          DerivedFromModel(c.Derived),
		Luck:             c.Luck,
		Balance:          c.Balance,
		Purse:            PurseFromModel(s.Purse),
		Skills:           skills,
		SkillPointsSpent: s.SkillPointsSpent,
		SkillPointsLeft:  s.SkillPointsLeft,
		UpdatedAt:        c.UpdatedAt,
	}
}

// Health is the response of the health endpoint
type Health struct {
	Status string `json:"status"`
}

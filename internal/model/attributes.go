package model

import (
	"fmt"
	"strings"
)

// DefaultAttributeValue is the starting value of every primary attribute
const DefaultAttributeValue = 50

// Bounds for attributes that members edit directly
const (
	MinEditableAttribute = 1
	MaxEditableAttribute = 100
)

// Attributes holds the eight primary characteristics of a character
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

// DefaultAttributes returns the attributes of a freshly registered character
func DefaultAttributes() Attributes {
	return Attributes{
		Strength:     DefaultAttributeValue,
		Constitution: DefaultAttributeValue,
		Size:         DefaultAttributeValue,
		Intelligence: DefaultAttributeValue,
		Willpower:    DefaultAttributeValue,
		Dexterity:    DefaultAttributeValue,
		Appearance:   DefaultAttributeValue,
		Education:    DefaultAttributeValue,
	}
}

// Apply returns a copy of a with the modifier added
func (a Attributes) Apply(m Modifier) Attributes {
	a.Strength += m.Strength
	a.Constitution += m.Constitution
	a.Size += m.Size
	a.Intelligence += m.Intelligence
	a.Willpower += m.Willpower
	a.Dexterity += m.Dexterity
	return a
}

// ClampNonNegative returns a copy of a with every field raised to at least 0
func (a Attributes) ClampNonNegative() Attributes {
	a.Strength = max(a.Strength, 0)
	a.Constitution = max(a.Constitution, 0)
	a.Size = max(a.Size, 0)
	a.Intelligence = max(a.Intelligence, 0)
	a.Willpower = max(a.Willpower, 0)
	a.Dexterity = max(a.Dexterity, 0)
	a.Appearance = max(a.Appearance, 0)
	a.Education = max(a.Education, 0)
	return a
}

// InEditableRange reports whether v may be stored by a direct edit
func InEditableRange(v int) bool {
	return v >= MinEditableAttribute && v <= MaxEditableAttribute
}

// Modifier is a per-attribute delta contributed by a house or personality.
// Appearance and education are never modified by the catalog.
type Modifier struct {
	Strength     int `json:"strength" yaml:"strength"`
	Constitution int `json:"constitution" yaml:"constitution"`
	Size         int `json:"size" yaml:"size"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Willpower    int `json:"willpower" yaml:"willpower"`
	Dexterity    int `json:"dexterity" yaml:"dexterity"`
}

// Plus returns the sum of two modifiers
func (m Modifier) Plus(o Modifier) Modifier {
	return Modifier{
		Strength:     m.Strength + o.Strength,
		Constitution: m.Constitution + o.Constitution,
		Size:         m.Size + o.Size,
		Intelligence: m.Intelligence + o.Intelligence,
		Willpower:    m.Willpower + o.Willpower,
		Dexterity:    m.Dexterity + o.Dexterity,
	}
}

// String lists the non-zero deltas, e.g. "STR +10, INT -5"
func (m Modifier) String() string {
	parts := make([]string, 0, 6)
	for _, f := range []struct {
		label string
		delta int
	}{
		{"STR", m.Strength},
		{"CON", m.Constitution},
		{"SIZ", m.Size},
		{"INT", m.Intelligence},
		{"POW", m.Willpower},
		{"DEX", m.Dexterity},
	} {
		if f.delta != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", f.label, f.delta))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// Status describes the overall condition of a character
type Status string

const (
	StatusNormal            Status = "normal"
	StatusDying             Status = "dying"
	StatusPermanentlyInsane Status = "permanently_insane"
)

// Derived holds the secondary attributes computed from the primaries.
// These are never edited directly.
type Derived struct {
	HitPoints   int    `json:"hit_points"`
	MagicPoints int    `json:"magic_points"`
	Sanity      int    `json:"sanity"`
	Movement    int    `json:"movement"`
	DamageBonus string `json:"damage_bonus"`
	Build       int    `json:"build"`
	Status      Status `json:"status"`
	SkillPoints int    `json:"skill_points"`
}

package model

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// OwnerKey is the stable external identity that owns a character
// (the chat platform user id)
type OwnerKey string

// MaxPersonalities is the largest personality set a character may hold
const MaxPersonalities = 4

// PersonalitySeparator joins a personality set into one stored value, so
// personality keys may not contain it
const PersonalitySeparator = ","

// MaxDisplayNameLength bounds the display name in characters
const MaxDisplayNameLength = 32

// NormalizeDisplayName trims the name and checks its length
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxDisplayNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// Character is a member's character sheet
type Character struct {
	OwnerKey    OwnerKey `json:"owner_key"`
	DisplayName string   `json:"display_name"`

	// House is the key of the current house, empty when unsorted
	House string `json:"house,omitempty"`
	// Personalities are the keys of the committed personality set, in
	// selection order. Nil when none has been chosen.
	Personalities []string `json:"personalities,omitempty"`

	// Base holds the attributes before house and personality modifiers.
	// Attributes is always Base plus the active modifiers.
	Base       Attributes `json:"base"`
	Attributes Attributes `json:"attributes"`
	Derived    Derived    `json:"derived"`

	Luck    int   `json:"luck"`
	Balance int64 `json:"balance"`

	Skills []Skill `json:"skills"`

	// Version increases on every persisted change
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Skill is one entry of a character's skill allocation
type Skill struct {
	Name  string `json:"name"`
	Base  int    `json:"base"`
	Bonus int    `json:"bonus"`
}

// Value returns the effective skill percentage
func (s Skill) Value() int {
	return s.Base + s.Bonus
}

// PersonalityLabel returns the personality set joined for display and storage
func (c *Character) PersonalityLabel() string {
	return strings.Join(c.Personalities, PersonalitySeparator)
}

// SplitPersonalities parses a stored comma-joined personality set
func SplitPersonalities(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, PersonalitySeparator)
}

// GetSkill returns the skill with the given name, or nil if not found
func (c *Character) GetSkill(name string) *Skill {
	for i := range c.Skills {
		if strings.EqualFold(c.Skills[i].Name, name) {
			return &c.Skills[i]
		}
	}
	return nil
}

// SkillPointsSpent sums the free allocation across all skills
func (c *Character) SkillPointsSpent() int {
	total := 0
	for _, s := range c.Skills {
		total += s.Bonus
	}
	return total
}

// Clone returns a deep copy of the character
func (c *Character) Clone() *Character {
	clone := *c
	clone.Personalities = slices.Clone(c.Personalities)
	clone.Skills = slices.Clone(c.Skills)
	return &clone
}

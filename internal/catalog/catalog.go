// Package catalog holds the fixed house, personality and skill tables that
// drive character progression.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/sortinghat/internal/model"
)

// HouseCount is the number of houses a valid catalog defines
const HouseCount = 4

//go:embed catalog.yaml
var embedded []byte

// Scale names how a skill's base value is derived at registration
type Scale string

const (
	ScaleNone          Scale = ""
	ScaleEducation     Scale = "education"
	ScaleDexterityHalf Scale = "dexterity_half"
)

// House is one of the four houses a character can be sorted into
type House struct {
	Key      string         `yaml:"key"`
	Name     string         `yaml:"name"`
	GroupID  string         `yaml:"group_id"`
	Modifier model.Modifier `yaml:"modifier"`
}

// Personality is a selectable character trait
type Personality struct {
	Key      string         `yaml:"key"`
	Name     string         `yaml:"name"`
	Modifier model.Modifier `yaml:"modifier"`
}

// SkillTemplate is one row of the default skill table
type SkillTemplate struct {
	Name  string `yaml:"name"`
	Base  int    `yaml:"base"`
	Scale Scale  `yaml:"scale"`
}

// BaseFor returns the starting value of the skill for the given attributes
func (t SkillTemplate) BaseFor(attrs model.Attributes) int {
	switch t.Scale {
	case ScaleEducation:
		return attrs.Education
	case ScaleDexterityHalf:
		return attrs.Dexterity / 2
	default:
		return t.Base
	}
}

// Catalog is the complete set of progression tables
type Catalog struct {
	Houses        []House         `yaml:"houses"`
	Personalities []Personality   `yaml:"personalities"`
	Skills        []SkillTemplate `yaml:"skills"`

	houseIndex       map[string]int
	personalityIndex map[string]int
}

// Default returns the catalog embedded in the binary
func Default() *Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads and validates a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.buildIndex()
	return &c, nil
}

// Validate checks the catalog for structural problems
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Houses) != HouseCount {
		errs = append(errs, fmt.Errorf("catalog must define %d houses, got %d", HouseCount, len(c.Houses)))
	}

	// seen is reset per section; names only need to be unique within one table
	seen := make(map[string]bool)
	claim := func(kind, label string) {
		if label == "" {
			errs = append(errs, fmt.Errorf("%s with empty key or name", kind))
			return
		}
		folded := fold(label)
		if seen[folded] {
			errs = append(errs, fmt.Errorf("duplicate %s %q", kind, label))
		}
		seen[folded] = true
	}

	for _, h := range c.Houses {
		claim("house", h.Key)
		if !strings.EqualFold(h.Key, h.Name) {
			claim("house", h.Name)
		}
	}

	seen = make(map[string]bool)
	for _, p := range c.Personalities {
		claim("personality", p.Key)
		if strings.Contains(p.Key, model.PersonalitySeparator) {
			errs = append(errs, fmt.Errorf("personality key %q must not contain %q", p.Key, model.PersonalitySeparator))
		}
		if !strings.EqualFold(p.Key, p.Name) {
			claim("personality", p.Name)
		}
	}
	if len(c.Personalities) < model.MaxPersonalities {
		errs = append(errs, fmt.Errorf("catalog must define at least %d personalities", model.MaxPersonalities))
	}

	seen = make(map[string]bool)
	for _, s := range c.Skills {
		claim("skill", s.Name)
		switch s.Scale {
		case ScaleNone, ScaleEducation, ScaleDexterityHalf:
		default:
			errs = append(errs, fmt.Errorf("skill %q has unknown scale %q", s.Name, s.Scale))
		}
	}

	return errors.Join(errs...)
}

func (c *Catalog) buildIndex() {
	c.houseIndex = make(map[string]int, len(c.Houses)*2)
	for i, h := range c.Houses {
		c.houseIndex[fold(h.Key)] = i
		c.houseIndex[fold(h.Name)] = i
	}
	c.personalityIndex = make(map[string]int, len(c.Personalities)*2)
	for i, p := range c.Personalities {
		c.personalityIndex[fold(p.Key)] = i
		c.personalityIndex[fold(p.Name)] = i
	}
}

// House looks up a house by key or display name, ignoring case
func (c *Catalog) House(name string) (House, bool) {
	i, ok := c.houseIndex[fold(name)]
	if !ok {
		return House{}, false
	}
	return c.Houses[i], true
}

// Personality looks up a personality by key or display name, ignoring case
func (c *Catalog) Personality(name string) (Personality, bool) {
	i, ok := c.personalityIndex[fold(name)]
	if !ok {
		return Personality{}, false
	}
	return c.Personalities[i], true
}

// PersonalityPage returns the entries of the given zero-based page
func (c *Catalog) PersonalityPage(page, size int) []Personality {
	if page < 0 || size <= 0 {
		return nil
	}
	start := page * size
	if start >= len(c.Personalities) {
		return nil
	}
	end := min(start+size, len(c.Personalities))
	return c.Personalities[start:end]
}

// ResolvePersonalities validates a personality selection and returns the
// canonical keys in the given order
func (c *Catalog) ResolvePersonalities(names []string) ([]string, error) {
	if len(names) == 0 || len(names) > model.MaxPersonalities {
		return nil, model.ErrInvalidSelection
	}
	keys := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		p, ok := c.Personality(name)
		if !ok || seen[p.Key] {
			return nil, model.ErrInvalidSelection
		}
		seen[p.Key] = true
		keys = append(keys, p.Key)
	}
	return keys, nil
}

// Effective returns base plus the modifiers of the given house and
// personalities. Unknown names contribute nothing.
func (c *Catalog) Effective(base model.Attributes, house string, personalities []string) model.Attributes {
	var total model.Modifier
	if h, ok := c.House(house); ok {
		total = total.Plus(h.Modifier)
	}
	for _, name := range personalities {
		if p, ok := c.Personality(name); ok {
			total = total.Plus(p.Modifier)
		}
	}
	return base.Apply(total)
}

// DefaultSkills builds the starting skill allocation for the given attributes
func (c *Catalog) DefaultSkills(attrs model.Attributes) []model.Skill {
	skills := make([]model.Skill, 0, len(c.Skills))
	for _, t := range c.Skills {
		skills = append(skills, model.Skill{Name: t.Name, Base: t.BaseFor(attrs)})
	}
	return skills
}

// WithGroups returns a copy of the catalog whose houses use the given
// external group ids, keyed by house key or name. Houses not in the map keep
// their current id.
func (c *Catalog) WithGroups(groups map[string]string) *Catalog {
	clone := *c
	clone.Houses = make([]House, len(c.Houses))
	copy(clone.Houses, c.Houses)
	for name, groupID := range groups {
		if i, ok := c.houseIndex[fold(name)]; ok {
			clone.Houses[i].GroupID = groupID
		}
	}
	return &clone
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

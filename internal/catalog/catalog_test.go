package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sortinghat/internal/model"
)

type CatalogSuite struct {
	suite.Suite
	catalog *Catalog
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.catalog = Default()
}

func (s *CatalogSuite) TestDefaultHasFourHouses() {
	s.Len(s.catalog.Houses, HouseCount)
	for _, h := range s.catalog.Houses {
		s.NotEmpty(h.GroupID, "house %s has no group", h.Key)
	}
}

func (s *CatalogSuite) TestDefaultPersonalities() {
	s.Len(s.catalog.Personalities, 29)
	s.Equal("bold", s.catalog.Personalities[0].Key)
}

func (s *CatalogSuite) TestHouseLookupIgnoresCase() {
	h, ok := s.catalog.House("GRYFFINDOR")
	s.Require().True(ok)
	s.Equal("gryffindor", h.Key)
	s.Equal(model.Modifier{Strength: 10, Intelligence: -5, Willpower: 5}, h.Modifier)

	h, ok = s.catalog.House(" Ravenclaw ")
	s.Require().True(ok)
	s.Equal("ravenclaw", h.Key)

	_, ok = s.catalog.House("durmstrang")
	s.False(ok)
}

func (s *CatalogSuite) TestPersonalityPaging() {
	s.Len(s.catalog.PersonalityPage(0, 7), 7)
	s.Len(s.catalog.PersonalityPage(3, 7), 7)
	s.Len(s.catalog.PersonalityPage(4, 7), 1)
	s.Empty(s.catalog.PersonalityPage(5, 7))
	s.Empty(s.catalog.PersonalityPage(-1, 7))
}

func (s *CatalogSuite) TestResolvePersonalities() {
	keys, err := s.catalog.ResolvePersonalities([]string{"Calm", "bold"})
	s.Require().NoError(err)
	s.Equal([]string{"calm", "bold"}, keys)
}

func (s *CatalogSuite) TestResolvePersonalitiesRejectsBadSets() {
	cases := [][]string{
		nil,
		{},
		{"bold", "Bold"},
		{"bold", "calm", "brave", "quiet", "lively"},
		{"grumpy"},
	}
	for _, names := range cases {
		_, err := s.catalog.ResolvePersonalities(names)
		s.ErrorIs(err, model.ErrInvalidSelection, "names %v", names)
	}
}

func (s *CatalogSuite) TestEffectiveAppliesHouseAndPersonalities() {
	got := s.catalog.Effective(model.DefaultAttributes(), "gryffindor", []string{"bold", "calm"})

	// gryffindor STR+10 INT-5 POW+5, bold STR+15 INT-10 POW+10, calm CON+10 POW+10 DEX-15
	s.Equal(75, got.Strength)
	s.Equal(60, got.Constitution)
	s.Equal(35, got.Intelligence)
	s.Equal(75, got.Willpower)
	s.Equal(35, got.Dexterity)
	s.Equal(50, got.Size)
}

func (s *CatalogSuite) TestEffectiveWithoutHouse() {
	got := s.catalog.Effective(model.DefaultAttributes(), "", nil)
	s.Equal(model.DefaultAttributes(), got)
}

func (s *CatalogSuite) TestDefaultSkillsScale() {
	attrs := model.DefaultAttributes()
	attrs.Education = 64
	attrs.Dexterity = 45

	skills := s.catalog.DefaultSkills(attrs)
	s.Len(skills, len(s.catalog.Skills))

	byName := make(map[string]model.Skill)
	for _, sk := range skills {
		byName[sk.Name] = sk
	}
	s.Equal(64, byName["Language (Own)"].Base)
	s.Equal(22, byName["Dodge"].Base)
	s.Equal(30, byName["First Aid"].Base)
	s.Equal(0, byName["First Aid"].Bonus)
}

func (s *CatalogSuite) TestWithGroupsOverridesCopy() {
	overridden := s.catalog.WithGroups(map[string]string{"Slytherin": "role-42", "beauxbatons": "x"})

	h, _ := overridden.House("slytherin")
	s.Equal("role-42", h.GroupID)

	original, _ := s.catalog.House("slytherin")
	s.NotEqual("role-42", original.GroupID)
}

func (s *CatalogSuite) TestParseRejectsWrongHouseCount() {
	_, err := Parse([]byte(`
houses:
  - {key: gryffindor, name: Gryffindor}
personalities:
  - {key: a, name: A}
  - {key: b, name: B}
  - {key: c, name: C}
  - {key: d, name: D}
`))
	s.Error(err)
}

func (s *CatalogSuite) TestParseRejectsDuplicates() {
	_, err := Parse([]byte(`
houses:
  - {key: a, name: A}
  - {key: b, name: B}
  - {key: c, name: C}
  - {key: a, name: D}
personalities:
  - {key: a, name: A}
  - {key: b, name: B}
  - {key: c, name: C}
  - {key: d, name: D}
skills:
  - {name: Swim, base: 20, scale: wisdom}
`))
	s.Require().Error(err)
	s.Contains(err.Error(), "duplicate house")
	s.Contains(err.Error(), "unknown scale")
}

func (s *CatalogSuite) TestParseRejectsSeparatorInPersonalityKey() {
	_, err := Parse([]byte(`
houses:
  - {key: a, name: A}
  - {key: b, name: B}
  - {key: c, name: C}
  - {key: d, name: D}
personalities:
  - {key: "brave,bold", name: Brave and bold}
  - {key: b, name: B}
  - {key: c, name: C}
  - {key: d, name: D}
`))
	s.Require().Error(err)
	s.Contains(err.Error(), `personality key "brave,bold"`)
}

func (s *CatalogSuite) TestLoadFile() {
	path := filepath.Join(s.T().TempDir(), "catalog.yaml")
	s.Require().NoError(os.WriteFile(path, embedded, 0o600))

	c, err := LoadFile(path)
	s.Require().NoError(err)
	s.Len(c.Houses, HouseCount)

	_, err = LoadFile(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)
}

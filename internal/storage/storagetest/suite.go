// Package storagetest holds the behaviour every storage backend must share.
// Backend test files embed Suite and set Open in their SetupTest.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/storage"
)

// Suite runs the shared storage contract against Store
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

// NewCharacter returns a freshly registered-looking character for tests
func NewCharacter(owner model.OwnerKey, name string) *model.Character {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Character{
		OwnerKey:    owner,
		DisplayName: name,
		Base:        model.DefaultAttributes(),
		Attributes:  model.DefaultAttributes(),
		Derived: model.Derived{
			HitPoints:   10,
			MagicPoints: 10,
			Sanity:      50,
			Movement:    8,
			DamageBonus: "0",
			Status:      model.StatusNormal,
			SkillPoints: 300,
		},
		Luck: 45,
		Skills: []model.Skill{
			{Name: "Dodge", Base: 25},
			{Name: "First Aid", Base: 30},
			{Name: "Language (Own)", Base: 50},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Suite) TestCreateAndGet() {
	c := NewCharacter("owner-1", "Harry")
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, c))

	got, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal("Harry", got.DisplayName)
	s.Equal(model.DefaultAttributes(), got.Base)
	s.Equal(45, got.Luck)
	s.Equal(int64(1), got.Version)
	s.Require().Len(got.Skills, 3)
	s.Equal("First Aid", got.Skills[1].Name)
	s.Equal(30, got.Skills[1].Base)
	s.True(c.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetNotFound() {
	_, err := s.Store.GetCharacter(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *Suite) TestCreateDuplicateRejected() {
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry")))

	err := s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Impostor"))
	s.ErrorIs(err, model.ErrCharacterExists)

	all, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("Harry", all[0].DisplayName)
}

func (s *Suite) TestConcurrentCreateStoresOne() {
	const attempts = 8
	var wg sync.WaitGroup
	var created, rejected atomic.Int32
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, model.ErrCharacterExists):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(attempts-1), rejected.Load())
}

func (s *Suite) TestReturnedCharacterIsCopy() {
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry")))

	got, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	got.DisplayName = "Changed"
	got.Skills[0].Bonus = 99

	again, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal("Harry", again.DisplayName)
	s.Equal(0, again.Skills[0].Bonus)
}

func (s *Suite) TestUpdatePersistsChanges() {
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry")))

	updated, err := s.Store.UpdateCharacter(s.Ctx, "owner-1", func(c *model.Character) error {
		c.DisplayName = "Harry Potter"
		c.House = "gryffindor"
		c.Personalities = []string{"bold", "calm"}
		c.Balance = 522
		c.Skills[0].Bonus = 20
		return nil
	})
	s.Require().NoError(err)
	s.Equal(int64(2), updated.Version)

	got, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal("Harry Potter", got.DisplayName)
	s.Equal("gryffindor", got.House)
	s.Equal([]string{"bold", "calm"}, got.Personalities)
	s.Equal(int64(522), got.Balance)
	s.Equal(20, got.Skills[0].Bonus)
	s.Equal(int64(2), got.Version)
}

func (s *Suite) TestUpdateErrorLeavesCharacterUnchanged() {
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry")))

	_, err := s.Store.UpdateCharacter(s.Ctx, "owner-1", func(c *model.Character) error {
		c.DisplayName = "Half done"
		return model.ErrOutOfRange
	})
	s.ErrorIs(err, model.ErrOutOfRange)

	got, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal("Harry", got.DisplayName)
	s.Equal(int64(1), got.Version)
}

func (s *Suite) TestUpdateNotFound() {
	called := false
	_, err := s.Store.UpdateCharacter(s.Ctx, "missing", func(c *model.Character) error {
		called = true
		return nil
	})
	s.ErrorIs(err, model.ErrCharacterNotFound)
	s.False(called)
}

func (s *Suite) TestConcurrentUpdatesAreNotLost() {
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry")))

	const workers = 5
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store.UpdateCharacter(s.Ctx, "owner-1", func(c *model.Character) error {
				c.Balance += 10
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal(int64(workers*10), got.Balance)
	s.Equal(int64(workers+1), got.Version)
}

func (s *Suite) TestDelete() {
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry")))

	s.Require().NoError(s.Store.DeleteCharacter(s.Ctx, "owner-1"))

	_, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.ErrorIs(err, model.ErrCharacterNotFound)

	// Re-registration after delete starts from scratch
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter("owner-1", "Harry II")))
	got, err := s.Store.GetCharacter(s.Ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal("Harry II", got.DisplayName)
	s.Len(got.Skills, 3)
}

func (s *Suite) TestDeleteNotFound() {
	err := s.Store.DeleteCharacter(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *Suite) TestListOrderedByOwner() {
	for _, owner := range []model.OwnerKey{"c", "a", "b"} {
		s.Require().NoError(s.Store.CreateCharacter(s.Ctx, NewCharacter(owner, string(owner))))
	}

	all, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.OwnerKey("a"), all[0].OwnerKey)
	s.Equal(model.OwnerKey("b"), all[1].OwnerKey)
	s.Equal(model.OwnerKey("c"), all[2].OwnerKey)
}

func (s *Suite) TestListEmpty() {
	all, err := s.Store.ListCharacters(s.Ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *Suite) TestPing() {
	s.NoError(s.Store.Ping(s.Ctx))
}

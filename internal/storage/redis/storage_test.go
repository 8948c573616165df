package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.MaxTxAttempts = 64

	s.storage = NewWithClient(client, cfg)
	s.Store = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestKeysWritten() {
	s.Require().NoError(s.storage.CreateCharacter(s.Ctx, storagetest.NewCharacter("owner-1", "Harry")))

	s.True(s.mini.Exists("sortinghat:character:owner-1"))
	s.True(s.mini.Exists("sortinghat:character:owner-1:skills"))
	members, err := s.mini.Members("sortinghat:idx:characters")
	s.Require().NoError(err)
	s.Equal([]string{"owner-1"}, members)

	fields, err := s.mini.HKeys("sortinghat:character:owner-1:skills")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"Dodge", "First Aid", "Language (Own)"}, fields)
}

func (s *StorageSuite) TestDeleteRemovesAllKeys() {
	s.Require().NoError(s.storage.CreateCharacter(s.Ctx, storagetest.NewCharacter("owner-1", "Harry")))
	s.Require().NoError(s.storage.DeleteCharacter(s.Ctx, "owner-1"))

	s.False(s.mini.Exists("sortinghat:character:owner-1"))
	s.False(s.mini.Exists("sortinghat:character:owner-1:skills"))
	members, _ := s.mini.Members("sortinghat:idx:characters")
	s.NotContains(members, "owner-1")
}

func (s *StorageSuite) TestUpdateRewritesSkillHash() {
	s.Require().NoError(s.storage.CreateCharacter(s.Ctx, storagetest.NewCharacter("owner-1", "Harry")))

	_, err := s.storage.UpdateCharacter(s.Ctx, "owner-1", func(c *model.Character) error {
		c.Skills = c.Skills[:1]
		return nil
	})
	s.Require().NoError(err)

	fields, err := s.mini.HKeys("sortinghat:character:owner-1:skills")
	s.Require().NoError(err)
	s.Equal([]string{"Dodge"}, fields)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sortinghat/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.Store = New()
	s.Ctx = context.Background()
}

func (s *StorageSuite) TestCreateStoresCopyOfInput() {
	c := storagetest.NewCharacter("42", "Ginny")
	s.Require().NoError(s.Store.CreateCharacter(s.Ctx, c))

	c.DisplayName = "Changed"
	c.Skills[0].Bonus = 99

	got, err := s.Store.GetCharacter(s.Ctx, "42")
	s.Require().NoError(err)
	s.Equal("Ginny", got.DisplayName)
	s.Equal(0, got.Skills[0].Bonus)
}

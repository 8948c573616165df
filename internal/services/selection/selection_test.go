package selection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/dependencies/mocks"
	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/services/progression"
	"github.com/mcoot/sortinghat/internal/storage/memory"
	"github.com/mcoot/sortinghat/internal/testutil"
)

const (
	gryffindorGroup = "1342843501645135933"
	slytherinGroup  = "1342843439578087445"
)

type SelectionSuite struct {
	suite.Suite
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	directory  *mocks.MockDirectory
	controller *progression.Controller
	engine     Engine
	manager    *Manager
	ctx        context.Context
}

func TestSelectionSuite(t *testing.T) {
	suite.Run(t, new(SelectionSuite))
}

func (s *SelectionSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.directory = mocks.NewMockDirectory()
	s.controller = progression.NewController(memory.New(), catalog.Default(), s.clock, s.random, testutil.NopLogger())
	s.engine = s.controller
	s.ctx = context.Background()
	s.newManager()

	_, err := s.controller.Register(s.ctx, "owner-1", "Harry")
	s.Require().NoError(err)
}

func (s *SelectionSuite) newManager() {
	s.manager = NewManager(s.engine, s.directory, catalog.Default(), s.clock, s.random, time.Minute, testutil.NopLogger())
}

func (s *SelectionSuite) character() *model.Character {
	ch, err := s.controller.Get(s.ctx, "owner-1")
	s.Require().NoError(err)
	return ch
}

// Manager tests

func (s *SelectionSuite) TestStartRequiresRegisteredCharacter() {
	_, err := s.manager.StartHousePicker(s.ctx, "stranger")
	s.ErrorIs(err, model.ErrCharacterNotFound)
	_, err = s.manager.StartPersonalityPicker(s.ctx, "stranger")
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *SelectionSuite) TestLookupChecksOwnerAndID() {
	s.random.QueueString("wf1")
	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Equal("wf1", p.ID())

	got, err := s.manager.HousePicker("wf1", "owner-1")
	s.Require().NoError(err)
	s.Same(p, got)

	_, err = s.manager.HousePicker("wf1", "owner-2")
	s.ErrorIs(err, model.ErrNotWorkflowOwner)
	_, err = s.manager.HousePicker("nope", "owner-1")
	s.ErrorIs(err, model.ErrWorkflowNotFound)
	_, err = s.manager.PersonalityPicker("wf1", "owner-1")
	s.ErrorIs(err, model.ErrWorkflowNotFound)
}

func (s *SelectionSuite) TestIDsAreUnique() {
	s.random.QueueString("dup", "dup", "other")
	a, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	b, err := s.manager.StartPersonalityPicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	s.Equal("dup", a.ID())
	s.Equal("other", b.ID())
}

func (s *SelectionSuite) TestDefaultTimeout() {
	m := NewManager(s.engine, s.directory, catalog.Default(), s.clock, s.random, 0, testutil.NopLogger())
	s.Equal(DefaultTimeout, m.Timeout())
}

func (s *SelectionSuite) TestSweepRemovesFinishedPickers() {
	committed, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	_, err = committed.Select(s.ctx, "gryffindor")
	s.Require().NoError(err)

	stale, err := s.manager.StartPersonalityPicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	s.clock.Advance(45 * time.Second)
	active, err := s.manager.StartPersonalityPicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.clock.Advance(30 * time.Second)

	s.Equal(2, s.manager.Sweep())

	_, err = s.manager.HousePicker(committed.ID(), "owner-1")
	s.ErrorIs(err, model.ErrWorkflowNotFound)
	_, err = s.manager.PersonalityPicker(stale.ID(), "owner-1")
	s.ErrorIs(err, model.ErrWorkflowNotFound)
	_, err = s.manager.PersonalityPicker(active.ID(), "owner-1")
	s.NoError(err)
}

func (s *SelectionSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.manager.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Run did not return after cancel")
	}
}

// House picker tests

func (s *SelectionSuite) TestHouseSelectCommits() {
	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Len(p.Choices(), 4)

	ch, err := p.Select(s.ctx, "Gryffindor")
	s.Require().NoError(err)
	s.Equal("gryffindor", ch.House)
	s.Equal(StateCommitted, p.State())
	s.Equal([]string{gryffindorGroup}, s.directory.Groups("owner-1"))

	_, err = p.Select(s.ctx, "slytherin")
	s.ErrorIs(err, model.ErrWorkflowClosed)
}

func (s *SelectionSuite) TestHouseReselectMovesGroupAndReplacesModifier() {
	first, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	_, err = first.Select(s.ctx, "gryffindor")
	s.Require().NoError(err)

	second, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	ch, err := second.Select(s.ctx, "slytherin")
	s.Require().NoError(err)

	s.Equal([]string{slytherinGroup}, s.directory.Groups("owner-1"))
	s.Equal([]string{"add:" + gryffindorGroup, "remove:" + gryffindorGroup, "add:" + slytherinGroup}, s.directory.Calls)
	s.Equal(50, ch.Attributes.Strength)
	s.Equal(60, ch.Attributes.Intelligence)
}

func (s *SelectionSuite) TestHouseUnknownKeepsPickerOpen() {
	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	_, err = p.Select(s.ctx, "beauxbatons")
	s.ErrorIs(err, model.ErrUnknownHouse)
	s.Equal(StateOffered, p.State())
	s.Empty(s.directory.Calls)
}

func (s *SelectionSuite) TestHouseAddFailureDoesNotCommit() {
	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.directory.AddErr = errors.New("missing permissions")

	_, err = p.Select(s.ctx, "gryffindor")
	s.ErrorIs(err, model.ErrExternalSideEffect)
	s.Equal(StateOffered, p.State())
	s.Empty(s.character().House)
	s.Equal(model.DefaultAttributes(), s.character().Attributes)

	// The member can retry once the directory recovers
	_, err = p.Select(s.ctx, "gryffindor")
	s.Require().NoError(err)
	s.Equal("gryffindor", s.character().House)
}

func (s *SelectionSuite) TestHouseAddFailureRestoresPreviousGroup() {
	first, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	_, err = first.Select(s.ctx, "gryffindor")
	s.Require().NoError(err)

	second, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.directory.AddErr = errors.New("rate limited")

	_, err = second.Select(s.ctx, "slytherin")
	s.ErrorIs(err, model.ErrExternalSideEffect)
	s.Equal("gryffindor", s.character().House)
	s.Equal([]string{gryffindorGroup}, s.directory.Groups("owner-1"))
}

func (s *SelectionSuite) TestHouseRemoveFailureDoesNotCommit() {
	s.directory.SetMember("owner-1", gryffindorGroup)
	_, err := s.controller.AssignHouse(s.ctx, "owner-1", "gryffindor")
	s.Require().NoError(err)

	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.directory.RemoveErr = errors.New("unknown role")

	_, err = p.Select(s.ctx, "hufflepuff")
	s.ErrorIs(err, model.ErrExternalSideEffect)
	s.Equal("gryffindor", s.character().House)
	s.Equal([]string{"remove:" + gryffindorGroup}, s.directory.Calls)
}

type brokenEngine struct {
	Engine
}

func (brokenEngine) AssignHouse(context.Context, model.OwnerKey, string) (*model.Character, error) {
	return nil, model.ErrStoreUnavailable
}

func (s *SelectionSuite) TestHouseEngineFailureRollsBackGroups() {
	_, err := s.controller.AssignHouse(s.ctx, "owner-1", "gryffindor")
	s.Require().NoError(err)
	s.directory.SetMember("owner-1", gryffindorGroup)

	s.engine = brokenEngine{Engine: s.controller}
	s.newManager()

	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	_, err = p.Select(s.ctx, "slytherin")
	s.ErrorIs(err, model.ErrStoreUnavailable)
	s.Equal(StateOffered, p.State())
	s.Equal([]string{gryffindorGroup}, s.directory.Groups("owner-1"))
}

// gatedDirectory blocks the first AddMember until the gate is opened
type gatedDirectory struct {
	*mocks.MockDirectory
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (d *gatedDirectory) AddMember(ctx context.Context, owner model.OwnerKey, groupID string) error {
	first := false
	d.once.Do(func() { first = true })
	if first {
		close(d.entered)
		<-d.gate
	}
	return d.MockDirectory.AddMember(ctx, owner, groupID)
}

func (s *SelectionSuite) TestConcurrentHouseSelectionsKeepOneGroup() {
	gated := &gatedDirectory{
		MockDirectory: s.directory,
		entered:       make(chan struct{}),
		gate:          make(chan struct{}),
	}
	manager := NewManager(s.engine, gated, catalog.Default(), s.clock, s.random, time.Minute, testutil.NopLogger())

	first, err := manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	second, err := manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = first.Select(s.ctx, "gryffindor")
	}()
	<-gated.entered
	go func() {
		defer wg.Done()
		_, errs[1] = second.Select(s.ctx, "slytherin")
	}()
	time.Sleep(20 * time.Millisecond)
	close(gated.gate)
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])
	s.Equal("slytherin", s.character().House)
	s.Equal([]string{slytherinGroup}, s.directory.Groups("owner-1"))
	s.Zero(manager.houseLocks.held())
}

func (s *SelectionSuite) TestHouseSelectGivesUpWhenOwnerBusy() {
	unlock, err := s.manager.houseLocks.lock(s.ctx, "owner-1")
	s.Require().NoError(err)
	defer unlock()

	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Millisecond)
	defer cancel()
	_, err = p.Select(ctx, "gryffindor")
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal(StateOffered, p.State())
	s.Empty(s.directory.Groups("owner-1"))
}

func (s *SelectionSuite) TestHouseExpires() {
	p, err := s.manager.StartHousePicker(s.ctx, "owner-1")
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	_, err = p.Select(s.ctx, "gryffindor")
	s.ErrorIs(err, model.ErrWorkflowExpired)
	s.Equal(StateExpired, p.State())
	s.Empty(s.directory.Calls)
}

// Personality picker tests

func (s *SelectionSuite) startPersonalities() *PersonalityPicker {
	p, err := s.manager.StartPersonalityPicker(s.ctx, "owner-1")
	s.Require().NoError(err)
	return p
}

func (s *SelectionSuite) TestPersonalityInitialView() {
	v := s.startPersonalities().View()

	s.Equal(0, v.Page)
	s.Len(v.Entries, PageSize)
	s.Equal("bold", v.Entries[0].Key)
	s.False(v.HasPrevious)
	s.True(v.HasNext)
	s.Empty(v.Selected)
	s.Equal(StateOffered, v.State)
}

func (s *SelectionSuite) TestPersonalityPaging() {
	p := s.startPersonalities()

	v, err := p.Previous()
	s.Require().NoError(err)
	s.Equal(0, v.Page)

	for range 4 {
		v, err = p.Next()
		s.Require().NoError(err)
	}
	s.Equal(4, v.Page)
	s.Len(v.Entries, 1)
	s.Equal("quiet", v.Entries[0].Key)
	s.True(v.HasPrevious)
	s.False(v.HasNext)

	v, err = p.Next()
	s.Require().NoError(err)
	s.Equal(4, v.Page)

	v, err = p.Previous()
	s.Require().NoError(err)
	s.Equal(3, v.Page)
	s.True(v.HasNext)
}

func (s *SelectionSuite) TestPersonalityToggleLimit() {
	p := s.startPersonalities()

	for _, name := range []string{"bold", "cautious", "precise", "brave"} {
		_, err := p.Toggle(name)
		s.Require().NoError(err)
	}
	v, err := p.Toggle("lively")
	s.ErrorIs(err, model.ErrSelectionLimit)
	s.Equal([]string{"bold", "cautious", "precise", "brave"}, v.Selected)

	// Removing one makes room again
	v, err = p.Toggle("cautious")
	s.Require().NoError(err)
	s.Equal([]string{"bold", "precise", "brave"}, v.Selected)
	v, err = p.Toggle("lively")
	s.Require().NoError(err)
	s.Equal([]string{"bold", "precise", "brave", "lively"}, v.Selected)
}

func (s *SelectionSuite) TestPersonalitySelectionSurvivesPaging() {
	p := s.startPersonalities()

	_, err := p.Toggle("bold")
	s.Require().NoError(err)
	_, err = p.Next()
	s.Require().NoError(err)
	v, err := p.Toggle("calm")
	s.Require().NoError(err)
	s.Equal([]string{"bold", "calm"}, v.Selected)

	// Deselecting an entry from another page
	v, err = p.Toggle("Bold")
	s.Require().NoError(err)
	s.Equal([]string{"calm"}, v.Selected)
	s.Equal(1, v.Page)
}

func (s *SelectionSuite) TestPersonalityToggleUnknown() {
	p := s.startPersonalities()

	_, err := p.Toggle("grumpy")
	s.ErrorIs(err, model.ErrInvalidSelection)
}

func (s *SelectionSuite) TestPersonalityConfirmEmptyRejected() {
	p := s.startPersonalities()

	_, err := p.Confirm(s.ctx)
	s.ErrorIs(err, model.ErrInvalidSelection)
	s.Equal(StateOffered, p.State())
}

func (s *SelectionSuite) TestPersonalityConfirmCommits() {
	p := s.startPersonalities()
	_, err := p.Toggle("bold")
	s.Require().NoError(err)
	_, err = p.Toggle("calm")
	s.Require().NoError(err)

	ch, err := p.Confirm(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"bold", "calm"}, ch.Personalities)
	s.Equal(65, ch.Attributes.Strength)
	s.Equal(StateCommitted, p.State())

	_, err = p.Toggle("quiet")
	s.ErrorIs(err, model.ErrWorkflowClosed)
	_, err = p.Confirm(s.ctx)
	s.ErrorIs(err, model.ErrWorkflowClosed)
}

func (s *SelectionSuite) TestPersonalityActivityExtendsDeadline() {
	p := s.startPersonalities()

	s.clock.Advance(50 * time.Second)
	_, err := p.Toggle("bold")
	s.Require().NoError(err)
	s.clock.Advance(50 * time.Second)
	_, err = p.Next()
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	_, err = p.Confirm(s.ctx)
	s.ErrorIs(err, model.ErrWorkflowExpired)
	s.Equal(StateExpired, p.View().State)
	s.Nil(s.character().Personalities)
}

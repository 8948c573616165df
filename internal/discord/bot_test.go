package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sortinghat/internal/factory"
	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/testutil"
)

const (
	gmRole      = "gm-role"
	harry       = "100"
	draco       = "200"
	ravenclawID = "1342843569668489268"
)

type BotSuite struct {
	suite.Suite
	app *factory.TestApp
	bot *Bot
}

func TestBotSuite(t *testing.T) {
	suite.Run(t, new(BotSuite))
}

func (s *BotSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.bot = New(nil, Config{GMRoleID: gmRole}, s.app.Progression, s.app.Selection, testutil.NopLogger())
}

func subOpt(name string, value any) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Value: value}
}

func (s *BotSuite) command(user string, roles []string, name, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionResponse {
	return s.bot.handle(s.T().Context(), &discordgo.Interaction{
		ID:     "interaction",
		Type:   discordgo.InteractionApplicationCommand,
		Member: &discordgo.Member{User: &discordgo.User{ID: user}, Roles: roles},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: name,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name:    sub,
				Type:    discordgo.ApplicationCommandOptionSubCommand,
				Options: opts,
			}},
		},
	})
}

func (s *BotSuite) profile(user, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionResponse {
	return s.command(user, nil, CommandProfile, sub, opts...)
}

func (s *BotSuite) click(user, customID string, values ...string) *discordgo.InteractionResponse {
	return s.bot.handle(s.T().Context(), &discordgo.Interaction{
		ID:     "interaction",
		Type:   discordgo.InteractionMessageComponent,
		Member: &discordgo.Member{User: &discordgo.User{ID: user}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	})
}

func (s *BotSuite) register(user, name string) {
	resp := s.profile(user, SubRegister, subOpt(OptName, name))
	s.Require().Contains(resp.Data.Content, "Registered")
}

// workflowOf extracts the picker id from the first component of a response
func (s *BotSuite) workflowOf(resp *discordgo.InteractionResponse) string {
	ids := componentIDs(resp)
	s.Require().NotEmpty(ids)
	id, err := ParseCustomID(ids[0])
	s.Require().NoError(err)
	return id.Workflow
}

func componentIDs(resp *discordgo.InteractionResponse) []string {
	var ids []string
	for _, row := range resp.Data.Components {
		for _, c := range row.(discordgo.ActionsRow).Components {
			switch v := c.(type) {
			case discordgo.Button:
				ids = append(ids, v.CustomID)
			case discordgo.SelectMenu:
				ids = append(ids, v.CustomID)
			}
		}
	}
	return ids
}

func (s *BotSuite) TestRegisterAndView() {
	resp := s.profile(harry, SubRegister, subOpt(OptName, "Harry"))
	s.Equal(discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	s.Equal(discordgo.MessageFlagsEphemeral, resp.Data.Flags&discordgo.MessageFlagsEphemeral)
	s.Contains(resp.Data.Content, "**Harry**")

	resp = s.profile(harry, SubView)
	s.Require().Len(resp.Data.Embeds, 1)
	s.Equal("📜 Harry", resp.Data.Embeds[0].Title)
	s.Equal("Unsorted", resp.Data.Embeds[0].Fields[0].Value)
}

func (s *BotSuite) TestRegisterDefaultsToMemberName() {
	register := func(member *discordgo.Member) *discordgo.InteractionResponse {
		return s.bot.handle(s.T().Context(), &discordgo.Interaction{
			Type:   discordgo.InteractionApplicationCommand,
			Member: member,
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    CommandProfile,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{{Name: SubRegister}},
			},
		})
	}

	resp := register(&discordgo.Member{Nick: "The Boy Who Lived", User: &discordgo.User{ID: harry, GlobalName: "Harry P", Username: "harry"}})
	s.Contains(resp.Data.Content, "**The Boy Who Lived**")

	resp = register(&discordgo.Member{User: &discordgo.User{ID: draco, GlobalName: "Draco M", Username: "draco"}})
	s.Contains(resp.Data.Content, "**Draco M**")

	resp = register(&discordgo.Member{User: &discordgo.User{ID: "300", Username: "ron"}})
	s.Contains(resp.Data.Content, "**ron**")

	ch, err := s.app.Progression.Get(s.T().Context(), harry)
	s.Require().NoError(err)
	s.Equal("The Boy Who Lived", ch.DisplayName)
}

func (s *BotSuite) TestRegisterTwice() {
	s.register(harry, "Harry")
	resp := s.profile(harry, SubRegister, subOpt(OptName, "Harry"))
	s.Equal(UserMessage(model.ErrCharacterExists), resp.Data.Content)
}

func (s *BotSuite) TestViewUnregistered() {
	resp := s.profile(harry, SubView)
	s.Equal(UserMessage(model.ErrCharacterNotFound), resp.Data.Content)
}

func (s *BotSuite) TestRenameAndSize() {
	s.register(harry, "Harry")

	resp := s.profile(harry, SubRename, subOpt(OptName, "The Boy Who Lived"))
	s.Contains(resp.Data.Content, "The Boy Who Lived")

	resp = s.profile(harry, SubSize, subOpt(OptValue, float64(65)))
	s.Contains(resp.Data.Content, "SIZ set to 65")

	resp = s.profile(harry, SubAppearance, subOpt(OptValue, float64(0)))
	s.Equal(UserMessage(model.ErrOutOfRange), resp.Data.Content)
}

func (s *BotSuite) TestSkillAllocation() {
	s.register(harry, "Harry")

	resp := s.profile(harry, SubSkill, subOpt(OptSkill, "library use"), subOpt(OptBonus, float64(40)))
	s.Contains(resp.Data.Content, "**Library Use** is now 60%")

	resp = s.profile(harry, SubSkill, subOpt(OptSkill, "Quidditch"), subOpt(OptBonus, float64(1)))
	s.Equal(UserMessage(model.ErrUnknownSkill), resp.Data.Content)
}

func (s *BotSuite) TestHousePickerFlow() {
	s.register(harry, "Harry")

	resp := s.profile(harry, SubHouse)
	s.Require().Len(resp.Data.Components, 1)
	workflow := s.workflowOf(resp)
	houseID := CustomID{Workflow: workflow, Action: ActionHouse}.String()

	resp = s.click(draco, houseID, "slytherin")
	s.Equal(UserMessage(model.ErrNotWorkflowOwner), resp.Data.Content)

	resp = s.click(harry, houseID, "ravenclaw")
	s.Equal(discordgo.InteractionResponseUpdateMessage, resp.Type)
	s.Contains(resp.Data.Content, "Ravenclaw")
	s.Empty(resp.Data.Components)
	s.Contains(s.app.MockDirectory.Groups(harry), ravenclawID)

	resp = s.click(harry, houseID, "gryffindor")
	s.Equal(UserMessage(model.ErrWorkflowClosed), resp.Data.Content)

	ch, err := s.app.Progression.Get(s.T().Context(), harry)
	s.Require().NoError(err)
	s.Equal("ravenclaw", ch.House)
}

func (s *BotSuite) TestHousePickerExpires() {
	s.register(harry, "Harry")
	workflow := s.workflowOf(s.profile(harry, SubHouse))

	s.app.MockClock.Advance(2 * time.Minute)

	resp := s.click(harry, CustomID{Workflow: workflow, Action: ActionHouse}.String(), "ravenclaw")
	s.Equal(UserMessage(model.ErrWorkflowExpired), resp.Data.Content)
	s.Empty(s.app.MockDirectory.Groups(harry))
}

func (s *BotSuite) TestHousePickerRequiresRegistration() {
	resp := s.profile(harry, SubHouse)
	s.Equal(UserMessage(model.ErrCharacterNotFound), resp.Data.Content)
}

func (s *BotSuite) TestPersonalityPickerFlow() {
	s.register(harry, "Harry")

	resp := s.profile(harry, SubPersonality)
	workflow := s.workflowOf(resp)
	id := func(action, arg string) string {
		return CustomID{Workflow: workflow, Action: action, Arg: arg}.String()
	}
	s.Contains(componentIDs(resp), id(ActionToggle, "bold"))

	resp = s.click(harry, id(ActionNext, ""))
	s.Equal(discordgo.InteractionResponseUpdateMessage, resp.Type)
	s.NotContains(componentIDs(resp), id(ActionToggle, "bold"))

	s.click(harry, id(ActionPrevious, ""))
	resp = s.click(harry, id(ActionToggle, "bold"))
	s.Contains(resp.Data.Embeds[0].Fields[0].Value, "Bold")

	resp = s.click(harry, id(ActionConfirm, ""))
	s.Equal(discordgo.InteractionResponseUpdateMessage, resp.Type)
	s.Contains(resp.Data.Content, "Bold")

	ch, err := s.app.Progression.Get(s.T().Context(), harry)
	s.Require().NoError(err)
	s.Equal([]string{"bold"}, ch.Personalities)
}

func (s *BotSuite) TestPersonalityPickerLimit() {
	s.register(harry, "Harry")
	workflow := s.workflowOf(s.profile(harry, SubPersonality))

	for _, key := range []string{"bold", "cautious", "precise", "brave"} {
		resp := s.click(harry, CustomID{Workflow: workflow, Action: ActionToggle, Arg: key}.String())
		s.Equal(discordgo.InteractionResponseUpdateMessage, resp.Type)
	}

	resp := s.click(harry, CustomID{Workflow: workflow, Action: ActionToggle, Arg: "lively"}.String())
	s.Equal(UserMessage(model.ErrSelectionLimit), resp.Data.Content)
}

func (s *BotSuite) TestConfirmEmptySelection() {
	s.register(harry, "Harry")
	workflow := s.workflowOf(s.profile(harry, SubPersonality))

	resp := s.click(harry, CustomID{Workflow: workflow, Action: ActionConfirm}.String())
	s.Equal(UserMessage(model.ErrInvalidSelection), resp.Data.Content)
}

func (s *BotSuite) TestUnknownWorkflow() {
	resp := s.click(harry, CustomID{Workflow: "missing", Action: ActionNext}.String())
	s.Equal(UserMessage(model.ErrWorkflowNotFound), resp.Data.Content)

	s.Nil(s.click(harry, "someone-elses-button"))
}

func (s *BotSuite) TestGMRequiresRole() {
	s.register(harry, "Harry")

	resp := s.command(draco, nil, CommandGM, SubGrant, subOpt(OptMember, harry), subOpt(OptAmount, float64(100)))
	s.Equal(UserMessage(model.ErrForbidden), resp.Data.Content)

	ch, err := s.app.Progression.Get(s.T().Context(), harry)
	s.Require().NoError(err)
	s.Zero(ch.Balance)
}

func (s *BotSuite) TestGMWithoutConfiguredRoleIsForbidden() {
	s.bot.cfg.GMRoleID = ""
	resp := s.command(draco, []string{""}, CommandGM, SubDelete, subOpt(OptMember, harry))
	s.Equal(UserMessage(model.ErrForbidden), resp.Data.Content)
}

func (s *BotSuite) TestGMCurrency() {
	s.register(harry, "Harry")
	gm := []string{"other", gmRole}

	resp := s.command(draco, gm, CommandGM, SubGrant, subOpt(OptMember, harry), subOpt(OptAmount, float64(500)))
	s.Contains(resp.Data.Content, "Granted")
	s.Contains(resp.Data.Content, "<@100>")

	resp = s.command(draco, gm, CommandGM, SubDeduct, subOpt(OptMember, harry), subOpt(OptAmount, float64(1000)))
	s.Contains(resp.Data.Content, "Deducted")

	ch, err := s.app.Progression.Get(s.T().Context(), harry)
	s.Require().NoError(err)
	s.Zero(ch.Balance)

	resp = s.command(draco, gm, CommandGM, SubGrant, subOpt(OptMember, harry), subOpt(OptAmount, float64(0)))
	s.Equal(UserMessage(model.ErrInvalidAmount), resp.Data.Content)
}

func (s *BotSuite) TestGMTargetNotRegistered() {
	gm := []string{gmRole}

	resp := s.command(draco, gm, CommandGM, SubGrant, subOpt(OptMember, harry), subOpt(OptAmount, float64(5)))
	s.Equal("❌ That member has no registered character.", resp.Data.Content)
	s.NotEqual(UserMessage(model.ErrCharacterNotFound), resp.Data.Content)

	resp = s.command(draco, gm, CommandGM, SubDeduct, subOpt(OptMember, harry), subOpt(OptAmount, float64(5)))
	s.Equal("❌ That member has no registered character.", resp.Data.Content)

	resp = s.command(draco, gm, CommandGM, SubDelete, subOpt(OptMember, harry))
	s.Equal("❌ That member has no registered character.", resp.Data.Content)
}

func (s *BotSuite) TestGMDelete() {
	s.register(harry, "Harry")

	resp := s.command(draco, []string{gmRole}, CommandGM, SubDelete, subOpt(OptMember, harry))
	s.Contains(resp.Data.Content, "Deleted")

	resp = s.profile(harry, SubView)
	s.Equal(UserMessage(model.ErrCharacterNotFound), resp.Data.Content)
}

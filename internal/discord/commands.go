package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/sortinghat/internal/model"
)

// Command and subcommand names
const (
	CommandProfile = "profile"
	CommandGM      = "gm"

	SubRegister    = "register"
	SubView        = "view"
	SubRename      = "rename"
	SubSize        = "size"
	SubAppearance  = "appearance"
	SubHouse       = "house"
	SubPersonality = "personality"
	SubSkill       = "skill"

	SubGrant  = "grant"
	SubDeduct = "deduct"
	SubDelete = "delete"
)

// Option names
const (
	OptName   = "name"
	OptValue  = "value"
	OptSkill  = "skill"
	OptBonus  = "bonus"
	OptMember = "member"
	OptAmount = "amount"
)

// Commands returns the slash commands the bot registers
func Commands() []*discordgo.ApplicationCommand {
	minAttr := float64(model.MinEditableAttribute)
	zero := float64(0)
	one := float64(1)
	minName := 1

	nameOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        OptName,
		Description: "Character name",
		Required:    true,
		MinLength:   &minName,
		MaxLength:   model.MaxDisplayNameLength,
	}
	registerNameOpt := *nameOpt
	registerNameOpt.Description = "Character name, defaults to your server nickname"
	registerNameOpt.Required = false
	attrOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        OptValue,
		Description: "New value",
		Required:    true,
		MinValue:    &minAttr,
		MaxValue:    model.MaxEditableAttribute,
	}
	memberOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        OptMember,
		Description: "Target member",
		Required:    true,
	}
	amountOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        OptAmount,
		Description: "Amount in Knuts",
		Required:    true,
		MinValue:    &one,
	}

	sub := func(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: desc,
			Options:     opts,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandProfile,
			Description: "Your character profile",
			Options: []*discordgo.ApplicationCommandOption{
				sub(SubRegister, "Register a new character", &registerNameOpt),
				sub(SubView, "Show your character sheet"),
				sub(SubRename, "Change your character name", nameOpt),
				sub(SubSize, "Set your SIZ attribute", attrOpt),
				sub(SubAppearance, "Set your APP attribute", attrOpt),
				sub(SubHouse, "Choose your house"),
				sub(SubPersonality, "Choose your personalities"),
				sub(SubSkill, "Spend skill points on a skill",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        OptSkill,
						Description: "Skill name",
						Required:    true,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        OptBonus,
						Description: "Points allocated on top of the base value",
						Required:    true,
						MinValue:    &zero,
					},
				),
			},
		},
		{
			Name:        CommandGM,
			Description: "GM-only commands",
			Options: []*discordgo.ApplicationCommandOption{
				sub(SubGrant, "Give Knuts to a member", memberOpt, amountOpt),
				sub(SubDeduct, "Take Knuts from a member", memberOpt, amountOpt),
				sub(SubDelete, "Delete a member's character", memberOpt),
			},
		},
	}
}

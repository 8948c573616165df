package discord

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/services/progression"
	"github.com/mcoot/sortinghat/internal/services/selection"
)

// Embed colours
const (
	colorProfile = 0x3498db
	colorSuccess = 0x2ecc71
)

// buttonsPerRow is the most buttons Discord allows in one action row
const buttonsPerRow = 5

// embedFieldLimit is the longest value Discord accepts in an embed field
const embedFieldLimit = 1024

// ephemeral builds a private reply to a slash command
func ephemeral(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	data.Flags |= discordgo.MessageFlagsEphemeral
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// textReply is a private plain-text reply
func textReply(content string) *discordgo.InteractionResponse {
	return ephemeral(&discordgo.InteractionResponseData{Content: content})
}

// updateMessage replaces the message a component is attached to
func updateMessage(data *discordgo.InteractionResponseData) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	}
}

// sheetEmbed renders a character sheet
func sheetEmbed(s *progression.Sheet, cat *catalog.Catalog) *discordgo.MessageEmbed {
	c := s.Character
	a := c.Attributes
	d := c.Derived

	return &discordgo.MessageEmbed{
		Title: "📜 " + c.DisplayName,
		Color: colorProfile,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "House", Value: houseLabel(cat, c.House), Inline: true},
			{Name: "Personalities", Value: personalityLabels(cat, c.Personalities), Inline: true},
			{Name: "Purse", Value: s.Purse.String(), Inline: true},
			{
				Name: "Attributes",
				Value: fmt.Sprintf("STR %d · CON %d · SIZ %d · INT %d\nPOW %d · DEX %d · APP %d · EDU %d",
					a.Strength, a.Constitution, a.Size, a.Intelligence,
					a.Willpower, a.Dexterity, a.Appearance, a.Education),
			},
			{
				Name: "Derived",
				Value: fmt.Sprintf("HP %d · MP %d · SAN %d · Luck %d\nMove %d · DB %s · Build %d · %s",
					d.HitPoints, d.MagicPoints, d.Sanity, c.Luck,
					d.Movement, d.DamageBonus, d.Build, statusLabel(string(d.Status))),
			},
			{
				Name:  fmt.Sprintf("Skills (%d of %d points left)", s.SkillPointsLeft, d.SkillPoints),
				Value: skillSummary(s),
			},
		},
	}
}

func houseLabel(cat *catalog.Catalog, key string) string {
	if h, ok := cat.House(key); ok {
		return h.Name
	}
	return "Unsorted"
}

func personalityLabels(cat *catalog.Catalog, keys []string) string {
	if len(keys) == 0 {
		return "None"
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if p, ok := cat.Personality(k); ok {
			names = append(names, p.Name)
		} else {
			names = append(names, k)
		}
	}
	return strings.Join(names, ", ")
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

// skillSummary lists allocated skills first, then the rest, cut to fit an
// embed field
func skillSummary(s *progression.Sheet) string {
	var trained, untrained []string
	for _, sk := range s.Character.Skills {
		if sk.Bonus > 0 {
			trained = append(trained, fmt.Sprintf("**%s %d%%**", sk.Name, sk.Value()))
		} else {
			untrained = append(untrained, fmt.Sprintf("%s %d%%", sk.Name, sk.Value()))
		}
	}
	out := strings.Join(append(trained, untrained...), ", ")
	if out == "" {
		return "None"
	}
	if utf8.RuneCountInString(out) > embedFieldLimit {
		out = string([]rune(out)[:embedFieldLimit-1]) + "…"
	}
	return out
}

// housePickerData renders the house choice menu
func housePickerData(id string, houses []catalog.House, timeout time.Duration) *discordgo.InteractionResponseData {
	var lines []string
	options := make([]discordgo.SelectMenuOption, 0, len(houses))
	for _, h := range houses {
		lines = append(lines, fmt.Sprintf("**%s**: %s", h.Name, h.Modifier))
		options = append(options, discordgo.SelectMenuOption{
			Label:       h.Name,
			Value:       h.Key,
			Description: h.Modifier.String(),
		})
	}

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🎩 Choose your house",
			Description: strings.Join(lines, "\n"),
			Color:       colorProfile,
			Footer:      timeoutFooter(timeout),
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    CustomID{Workflow: id, Action: ActionHouse}.String(),
					Placeholder: "Select a house...",
					Options:     options,
				},
			}},
		},
	}
}

// personalityPickerData renders one page of the personality picker
func personalityPickerData(id string, v selection.View, cat *catalog.Catalog, timeout time.Duration) *discordgo.InteractionResponseData {
	var lines []string
	var buttons []discordgo.MessageComponent
	for _, p := range v.Entries {
		style := discordgo.SecondaryButton
		mark := ""
		if slices.Contains(v.Selected, p.Key) {
			style = discordgo.SuccessButton
			mark = "✅ "
		}
		lines = append(lines, fmt.Sprintf("%s**%s**: %s", mark, p.Name, p.Modifier))
		buttons = append(buttons, discordgo.Button{
			Label:    p.Name,
			Style:    style,
			CustomID: CustomID{Workflow: id, Action: ActionToggle, Arg: p.Key}.String(),
		})
	}

	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(buttons))
		rows = append(rows, discordgo.ActionsRow{Components: buttons[start:end]})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "◀ Previous",
			Style:    discordgo.PrimaryButton,
			CustomID: CustomID{Workflow: id, Action: ActionPrevious}.String(),
			Disabled: !v.HasPrevious,
		},
		discordgo.Button{
			Label:    "Next ▶",
			Style:    discordgo.PrimaryButton,
			CustomID: CustomID{Workflow: id, Action: ActionNext}.String(),
			Disabled: !v.HasNext,
		},
		discordgo.Button{
			Label:    "Confirm",
			Style:    discordgo.SuccessButton,
			CustomID: CustomID{Workflow: id, Action: ActionConfirm}.String(),
			Disabled: len(v.Selected) == 0,
		},
	}})

	selected := personalityLabels(cat, v.Selected)
	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fmt.Sprintf("🧠 Choose up to %d personalities (page %d)", model.MaxPersonalities, v.Page+1),
			Description: strings.Join(lines, "\n"),
			Color:       colorProfile,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Selected", Value: selected},
			},
			Footer: timeoutFooter(timeout),
		}},
		Components: rows,
	}
}

// committedData replaces a finished picker with the result and no controls
func committedData(message string, s *progression.Sheet, cat *catalog.Catalog) *discordgo.InteractionResponseData {
	embed := sheetEmbed(s, cat)
	embed.Color = colorSuccess
	return &discordgo.InteractionResponseData{
		Content:    message,
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{},
	}
}

func timeoutFooter(timeout time.Duration) *discordgo.MessageEmbedFooter {
	return &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("This menu closes after %s without input.", timeout),
	}
}

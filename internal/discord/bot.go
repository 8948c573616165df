// Package discord is the chat front end: slash commands for profiles and
// GM currency tools, plus the interactive house and personality pickers.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/middleware"
	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/services/progression"
	"github.com/mcoot/sortinghat/internal/services/selection"
)

// interactionTimeout bounds the work done before answering an interaction
const interactionTimeout = 3 * time.Second

// DefaultSweepInterval is used when Config.SweepInterval is not positive
const DefaultSweepInterval = 30 * time.Second

// Config holds the guild-specific settings of the bot
type Config struct {
	GuildID       string
	GMRoleID      string
	SweepInterval time.Duration
}

// Bot routes Discord interactions to the progression and selection services
type Bot struct {
	session     *discordgo.Session
	cfg         Config
	progression *progression.Controller
	selection   *selection.Manager
	catalog     *catalog.Catalog
	logger      *slog.Logger

	removeHandler func()
	stopSweep     context.CancelFunc
	sweepDone     chan struct{}
}

// New creates a Bot on an unopened session
func New(session *discordgo.Session, cfg Config, prog *progression.Controller, sel *selection.Manager, logger *slog.Logger) *Bot {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &Bot{
		session:     session,
		cfg:         cfg,
		progression: prog,
		selection:   sel,
		catalog:     prog.Catalog(),
		logger:      logger,
	}
}

// Start connects to the gateway, registers the slash commands and starts
// sweeping idle pickers
func (b *Bot) Start(ctx context.Context) error {
	b.removeHandler = b.session.AddHandler(b.onInteraction)
	b.session.Identify.Intents = discordgo.IntentsGuilds

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, Commands(), discordgo.WithContext(ctx)); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	b.stopSweep = cancel
	b.sweepDone = make(chan struct{})
	go func() {
		defer close(b.sweepDone)
		b.selection.Run(sweepCtx, b.cfg.SweepInterval)
	}()

	b.logger.Info("discord bot started",
		slog.String("application", appID),
		slog.String("guild", b.cfg.GuildID),
	)
	return nil
}

// Close stops the sweeper and disconnects
func (b *Bot) Close() error {
	if b.stopSweep != nil {
		b.stopSweep()
		<-b.sweepDone
	}
	if b.removeHandler != nil {
		b.removeHandler()
	}
	return b.session.Close()
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	defer middleware.Recover(b.logger, slog.String("interaction", ic.ID))

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	resp := b.handle(ctx, ic.Interaction)
	if resp == nil {
		return
	}
	if err := s.InteractionRespond(ic.Interaction, resp, discordgo.WithContext(ctx)); err != nil {
		b.logger.Error("failed to respond to interaction",
			slog.String("interaction", ic.ID),
			slog.String("error", err.Error()),
		)
	}
}

// handle computes the response to an interaction. A nil response means the
// interaction is not ours.
func (b *Bot) handle(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return b.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		return b.handleComponent(ctx, i)
	default:
		return nil
	}
}

func (b *Bot) handleCommand(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return nil
	}
	sub := data.Options[0]
	opts := newOptions(sub.Options)
	caller, roles := callerOf(i)

	var (
		resp *discordgo.InteractionResponse
		err  error
	)
	switch data.Name {
	case CommandProfile:
		resp, err = b.profile(ctx, caller, memberName(i), sub.Name, opts)
	case CommandGM:
		if !b.isGM(roles) {
			err = model.ErrForbidden
			break
		}
		resp, err = b.gm(ctx, caller, sub.Name, opts)
	default:
		return nil
	}

	if err != nil {
		return b.errorReply(err,
			slog.String("command", data.Name+" "+sub.Name),
			slog.String("caller", string(caller)),
		)
	}
	return resp
}

func (b *Bot) profile(ctx context.Context, caller model.OwnerKey, callerName, sub string, opts options) (*discordgo.InteractionResponse, error) {
	switch sub {
	case SubRegister:
		name := opts.str(OptName)
		if name == "" {
			name = callerName
		}
		ch, err := b.progression.Register(ctx, caller, name)
		if err != nil {
			return nil, err
		}
		return b.sheetReply(fmt.Sprintf("🎉 Registered! Welcome, **%s**. Use `/profile house` to be sorted.", ch.DisplayName), ch), nil

	case SubView:
		sheet, err := b.progression.View(ctx, caller)
		if err != nil {
			return nil, err
		}
		return ephemeral(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{sheetEmbed(sheet, b.catalog)},
		}), nil

	case SubRename:
		ch, err := b.progression.Rename(ctx, caller, opts.str(OptName))
		if err != nil {
			return nil, err
		}
		return textReply(fmt.Sprintf("✅ Your name is now **%s**.", ch.DisplayName)), nil

	case SubSize:
		ch, err := b.progression.SetSize(ctx, caller, int(opts.integer(OptValue)))
		if err != nil {
			return nil, err
		}
		return b.sheetReply(fmt.Sprintf("✅ SIZ set to %d.", ch.Base.Size), ch), nil

	case SubAppearance:
		ch, err := b.progression.SetAppearance(ctx, caller, int(opts.integer(OptValue)))
		if err != nil {
			return nil, err
		}
		return b.sheetReply(fmt.Sprintf("✅ APP set to %d.", ch.Base.Appearance), ch), nil

	case SubHouse:
		picker, err := b.selection.StartHousePicker(ctx, caller)
		if err != nil {
			return nil, err
		}
		return ephemeral(housePickerData(picker.ID(), picker.Choices(), b.selection.Timeout())), nil

	case SubPersonality:
		picker, err := b.selection.StartPersonalityPicker(ctx, caller)
		if err != nil {
			return nil, err
		}
		return ephemeral(personalityPickerData(picker.ID(), picker.View(), b.catalog, b.selection.Timeout())), nil

	case SubSkill:
		name := opts.str(OptSkill)
		ch, err := b.progression.AllocateSkill(ctx, caller, name, int(opts.integer(OptBonus)))
		if err != nil {
			return nil, err
		}
		sheet := progression.NewSheet(ch)
		skill := ch.GetSkill(name)
		return textReply(fmt.Sprintf("✅ **%s** is now %d%%. %d skill points left.",
			skill.Name, skill.Value(), sheet.SkillPointsLeft)), nil
	}
	return nil, fmt.Errorf("unknown profile subcommand %q", sub)
}

func (b *Bot) gm(ctx context.Context, caller model.OwnerKey, sub string, opts options) (*discordgo.InteractionResponse, error) {
	target := model.OwnerKey(opts.str(OptMember))

	switch sub {
	case SubGrant, SubDeduct:
		amount := opts.integer(OptAmount)
		op, verb := b.progression.GrantCurrency, "Granted"
		if sub == SubDeduct {
			op, verb = b.progression.DeductCurrency, "Deducted"
		}
		ch, err := op(ctx, target, amount)
		if err != nil {
			return nil, targetError(err)
		}
		b.logger.Info("gm currency change",
			slog.String("gm", string(caller)),
			slog.String("owner", string(target)),
			slog.String("op", sub),
			slog.Int64("amount", amount),
		)
		return textReply(fmt.Sprintf("💰 %s %s for <@%s>. Balance: %s.",
			verb, model.ToPurse(amount), target, model.ToPurse(ch.Balance))), nil

	case SubDelete:
		if err := b.progression.Delete(ctx, target); err != nil {
			return nil, targetError(err)
		}
		b.logger.Info("gm deleted character", slog.String("gm", string(caller)), slog.String("owner", string(target)))
		return textReply(fmt.Sprintf("🗑️ Deleted the character of <@%s>.", target)), nil
	}
	return nil, fmt.Errorf("unknown gm subcommand %q", sub)
}

func (b *Bot) handleComponent(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.MessageComponentData()
	caller, _ := callerOf(i)

	id, err := ParseCustomID(data.CustomID)
	if err != nil {
		b.logger.Warn("ignoring unknown component", slog.String("custom_id", data.CustomID))
		return nil
	}

	resp, err := b.component(ctx, caller, id, data.Values)
	if err != nil {
		return b.errorReply(err,
			slog.String("workflow", id.Workflow),
			slog.String("action", id.Action),
			slog.String("caller", string(caller)),
		)
	}
	return resp
}

func (b *Bot) component(ctx context.Context, caller model.OwnerKey, id CustomID, values []string) (*discordgo.InteractionResponse, error) {
	if id.Action == ActionHouse {
		picker, err := b.selection.HousePicker(id.Workflow, caller)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, model.ErrUnknownHouse
		}
		ch, err := picker.Select(ctx, values[0])
		if err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("🎩 Welcome to **%s**!", houseLabel(b.catalog, ch.House))
		return updateMessage(committedData(msg, progression.NewSheet(ch), b.catalog)), nil
	}

	picker, err := b.selection.PersonalityPicker(id.Workflow, caller)
	if err != nil {
		return nil, err
	}

	var view selection.View
	switch id.Action {
	case ActionToggle:
		view, err = picker.Toggle(id.Arg)
	case ActionPrevious:
		view, err = picker.Previous()
	case ActionNext:
		view, err = picker.Next()
	case ActionConfirm:
		ch, err := picker.Confirm(ctx)
		if err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("🧠 Personalities set: %s", personalityLabels(b.catalog, ch.Personalities))
		return updateMessage(committedData(msg, progression.NewSheet(ch), b.catalog)), nil
	default:
		return nil, model.ErrWorkflowNotFound
	}
	if err != nil {
		return nil, err
	}
	return updateMessage(personalityPickerData(picker.ID(), view, b.catalog, b.selection.Timeout())), nil
}

func (b *Bot) sheetReply(content string, ch *model.Character) *discordgo.InteractionResponse {
	return ephemeral(&discordgo.InteractionResponseData{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{sheetEmbed(progression.NewSheet(ch), b.catalog)},
	})
}

// errorReply logs the failure at a level matching its kind and answers
// with the member-facing message
func (b *Bot) errorReply(err error, attrs ...slog.Attr) *discordgo.InteractionResponse {
	attrs = append(attrs, slog.String("error", err.Error()))
	switch {
	case errors.Is(err, model.ErrStoreUnavailable), errors.Is(err, model.ErrExternalSideEffect), !model.IsDomainError(err):
		b.logger.LogAttrs(context.Background(), slog.LevelError, "interaction failed", attrs...)
	default:
		b.logger.LogAttrs(context.Background(), slog.LevelDebug, "interaction rejected", attrs...)
	}
	return textReply(UserMessage(err))
}

func (b *Bot) isGM(roles []string) bool {
	return b.cfg.GMRoleID != "" && slices.Contains(roles, b.cfg.GMRoleID)
}

// callerOf returns the invoking user and their guild roles
func callerOf(i *discordgo.Interaction) (model.OwnerKey, []string) {
	if i.Member != nil && i.Member.User != nil {
		return model.OwnerKey(i.Member.User.ID), i.Member.Roles
	}
	if i.User != nil {
		return model.OwnerKey(i.User.ID), nil
	}
	return "", nil
}

// memberName returns the name the caller shows under in the guild: the
// server nickname, then the global display name, then the username
func memberName(i *discordgo.Interaction) string {
	var user *discordgo.User
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		user = i.Member.User
	}
	if user == nil {
		user = i.User
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// options indexes subcommand options by name
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o options) str(name string) string {
	if opt, ok := o[name]; ok {
		if s, ok := opt.Value.(string); ok {
			return s
		}
	}
	return ""
}

// integer reads an integer option. Values decoded from the gateway arrive as
// float64.
func (o options) integer(name string) int64 {
	opt, ok := o[name]
	if !ok {
		return 0
	}
	switch v := opt.Value.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/sortinghat/internal/model"
)

// roleSession is the part of *discordgo.Session RoleDirectory calls
type roleSession interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// RoleDirectory maps house groups onto guild roles
type RoleDirectory struct {
	session roleSession
	guildID string
	logger  *slog.Logger
}

// NewRoleDirectory creates a RoleDirectory for one guild
func NewRoleDirectory(session roleSession, guildID string, logger *slog.Logger) *RoleDirectory {
	return &RoleDirectory{session: session, guildID: guildID, logger: logger}
}

// AddMember gives the member the role
func (d *RoleDirectory) AddMember(ctx context.Context, owner model.OwnerKey, roleID string) error {
	if err := d.session.GuildMemberRoleAdd(d.guildID, string(owner), roleID, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	d.logger.Info("role added", slog.String("owner", string(owner)), slog.String("role", roleID))
	return nil
}

// RemoveMember takes the role away from the member
func (d *RoleDirectory) RemoveMember(ctx context.Context, owner model.OwnerKey, roleID string) error {
	if err := d.session.GuildMemberRoleRemove(d.guildID, string(owner), roleID, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	d.logger.Info("role removed", slog.String("owner", string(owner)), slog.String("role", roleID))
	return nil
}

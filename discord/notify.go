package discord

import (
	"context"
	"errors"
	"fmt"

	"mirage/image-api/model"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const relinkAdvisory = "You linked a new Discord to your Mirage account.\n\nIf you did not do this, contact Mirage admins"

// NotifyAccountCreated posts a signup notice to the operations log
/// channel. The invite lookup is best-effort: a user who signed up
// without one shows as invited by "N/A"
func (b *Bot) NotifyAccountCreated(ctx context.Context, user *model.User) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	invitedBy := "N/A"

	var invite model.Invite
	err := b.DB.WithContext(ctx).Preload("Creator").Where("redeemed_by = ?", user.Username).First(&invite).Error
	switch {
	case err == nil:
		if invite.Creator != nil {
			invitedBy = invite.Creator.Username
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// open signup, keep the default
	default:
		zap.L().Warn("Failed to look up invite", zap.String("username", user.Username), zap.Error(err))
	}

	if _, err := b.session.ChannelMessageSendEmbed(b.logChannelID, userCreatedEmbed(user.Username, user.Email, invitedBy), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send user created notification, %w", err)
	}

	return nil
}

// LinkAccount points user's stored Discord identity at newID. When a
// different identity was linked before, its roles are revoked and it
// gets a security advisory first; someone who already left the guild is
// skipped silently. Role and nickname mutations against Discord are
// best-effort and never block the durable link or the log notification
func (b *Bot) LinkAccount(ctx context.Context, user *model.User, newID string, roles []string) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	if user.Discord != nil && *user.Discord != newID {
		if old := b.member(ctx, *user.Discord); old != nil {
			for _, role := range roles {
				if err := b.session.GuildMemberRoleRemove(b.guildID, *user.Discord, role, discordgo.WithContext(ctx)); err != nil {
					zap.L().Warn("Failed to revoke role from previous Discord", zap.String("role", role), zap.Error(err))
				}
			}

			if err := b.directMessage(ctx, *user.Discord, relinkAdvisory); err != nil {
				zap.L().Warn("Failed to DM previous Discord", zap.Error(err))
			}
		}
	}

	// The link must be durable before the grant below, any concurrent
	// reader has to see the new identity
	if err := b.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Update("discord", newID).Error; err != nil {
		return fmt.Errorf("failed to persist discord link, %w", err)
	}
	user.Discord = &newID

	if m := b.member(ctx, newID); m != nil {
		for _, role := range roles {
			if err := b.session.GuildMemberRoleAdd(b.guildID, newID, role, discordgo.WithContext(ctx)); err != nil {
				zap.L().Warn("Failed to grant role to linked Discord", zap.String("role", role), zap.Error(err))
			}
		}

		if err := b.session.GuildMemberNickname(b.guildID, newID, user.Username, discordgo.WithContext(ctx)); err != nil {
			zap.L().Warn("Failed to set nickname on linked Discord", zap.Error(err))
		}
	}

	// Sent regardless of whether either member resolved. Delivery
	// failure never undoes the link above
	if _, err := b.session.ChannelMessageSendEmbed(b.logChannelID, userLinkedEmbed(user.Username, newID), discordgo.WithContext(ctx)); err != nil {
		zap.L().Warn("Failed to send user linked notification", zap.Error(err))
	}

	return nil
}

// NotifyModeratorDeletedContent posts a moderation audit notice to the
// operations log channel. img.Uploader should be preloaded so the
// uploader identity makes it into the embed
func (b *Bot) NotifyModeratorDeletedContent(ctx context.Context, img *model.Image, moderator *model.User, ip string) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	if _, err := b.session.ChannelMessageSendEmbed(b.logChannelID, moderatorDeletionEmbed(img, moderator, ip, b.domain), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send moderator deletion notification, %w", err)
	}

	return nil
}

// NotifyLogin DMs the linked Discord account after a login. No-op when
// no identity is linked or the member can't be resolved
func (b *Bot) NotifyLogin(ctx context.Context, user *model.User, ip, userAgent string) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	if user.Discord == nil {
		return nil
	}

	if b.member(ctx, *user.Discord) == nil {
		return nil
	}

	return b.directMessageEmbed(ctx, *user.Discord, loginEmbed(ip, userAgent))
}

// NotifySessionIPMismatch DMs the linked Discord account when a session
// is used from an address other than the one it was bound to at login.
// Same no-op rules as NotifyLogin
func (b *Bot) NotifySessionIPMismatch(ctx context.Context, user *model.User, sessionIP, currentIP, userAgent string) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	if user.Discord == nil {
		return nil
	}

	if b.member(ctx, *user.Discord) == nil {
		return nil
	}

	return b.directMessageEmbed(ctx, *user.Discord, sessionMismatchEmbed(sessionIP, currentIP, userAgent))
}

// NotifyReportSubmitted posts to the dedicated report log channel, not
// the general operations one
func (b *Bot) NotifyReportSubmitted(ctx context.Context, report *model.Report) error {
	if !b.ready.Load() {
		return ErrNotReady
	}

	if _, err := b.session.ChannelMessageSendEmbed(b.reportLogChannelID, reportEmbed(report, b.domain), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send report notification, %w", err)
	}

	return nil
}

// NotifyBulkDeletionComplete DMs the user after a bulk deletion. The
// returned bool reports whether a send was attempted at all, not
// whether Discord accepted it
func (b *Bot) NotifyBulkDeletionComplete(ctx context.Context, user *model.User, kind BulkKind, count int) (bool, error) {
	if !b.ready.Load() {
		return false, ErrNotReady
	}

	if user.Discord == nil {
		return false, nil
	}

	if b.member(ctx, *user.Discord) == nil {
		return false, nil
	}

	if err := b.directMessageEmbed(ctx, *user.Discord, bulkDeletionEmbed(kind, count)); err != nil {
		return true, err
	}

	return true, nil
}

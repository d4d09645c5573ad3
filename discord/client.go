// Package discord integrates the operational Discord bot: structured
// notifications for audit and security events, direct messages to
// linked users and role/nickname sync on account linking
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotReady is returned when a notification is attempted before the
// gateway handshake finished. Callers treat it like any other delivery
// failure instead of dereferencing unset channel handles
var ErrNotReady = errors.New("discord bot is not ready yet")

// SendTimeout bounds every outbound Discord call so a hung delivery can
// never hold an HTTP response open
const SendTimeout = 10 * time.Second

// gateway is the slice of *discordgo.Session the bot uses. Tests
// substitute a recording stub
type gateway interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberNickname(guildID, userID, nickname string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	DB *gorm.DB

	session gateway
	conn    *discordgo.Session

	guildID            string
	logChannelID       string
	reportLogChannelID string
	domain             string

	ready atomic.Bool
}

func New(db *gorm.DB) (*Bot, error) {
	s, err := discordgo.New("Bot " + viper.GetString("discord.token"))
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session, %w", err)
	}

	b := &Bot{
		DB:                 db,
		session:            s,
		conn:               s,
		guildID:            viper.GetString("discord.guild_id"),
		logChannelID:       viper.GetString("discord.log_channel"),
		reportLogChannelID: viper.GetString("discord.report_log_channel"),
		domain:             viper.GetString("host.domain"),
	}

	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.ready.Store(true)
		zap.L().Info("Discord bot ready", zap.String("username", r.User.Username))
	})

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("failed to open discord gateway connection, %w", err)
	}

	return b, nil
}

func (b *Bot) Close() error {
	if b.conn == nil {
		return nil
	}

	return b.conn.Close()
}

// member resolves a guild member by Discord user id. Someone who left
// the guild or never joined resolves to nil, not an error
func (b *Bot) member(ctx context.Context, id string) *discordgo.Member {
	m, err := b.session.GuildMember(b.guildID, id, discordgo.WithContext(ctx))
	if err != nil {
		return nil
	}

	return m
}

func (b *Bot) directMessage(ctx context.Context, userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel, %w", err)
	}

	if _, err := b.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM, %w", err)
	}

	return nil
}

func (b *Bot) directMessageEmbed(ctx context.Context, userID string, embed *discordgo.MessageEmbed) error {
	ch, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel, %w", err)
	}

	if _, err := b.session.ChannelMessageSendEmbed(ch.ID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM, %w", err)
	}

	return nil
}

// Detach runs a best-effort notification on its own goroutine with a
// bounded timeout. Failures are logged, never surfaced to the caller
func Detach(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			zap.L().Warn("Notification failed", zap.String("notification", name), zap.Error(err))
		}
	}()
}

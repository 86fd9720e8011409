package discord

import (
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/go-faster/errors"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

// openThreadArchiveMinutes is the auto-archive window of a fresh discussion thread.
const openThreadArchiveMinutes = 10080

var _ suggestions.Surface = (*Surface)(nil)

// SurfaceConfig locates the suggestion channel and tunes closed threads.
type SurfaceConfig struct {
	GuildID   string
	ChannelID string
	// CooldownSeconds is the per-user reply delay applied when a thread closes.
	CooldownSeconds int
	// ArchiveMinutes is the auto-archive window applied when a thread closes.
	ArchiveMinutes int
}

// Surface renders suggestions into a Discord text channel. Every suggestion
// owns one message there, and its discussion thread is started from that
// message, so the message id doubles as the thread channel id.
type Surface struct {
	session *discordgo.Session
	cfg     SurfaceConfig
}

func NewSurface(session *discordgo.Session, cfg SurfaceConfig) *Surface {
	return &Surface{session: session, cfg: cfg}
}

// CheckChannel verifies the suggestion channel resolves to a text channel of the guild.
func (s *Surface) CheckChannel(ctx context.Context) error {
	if s.cfg.GuildID == "" || s.cfg.ChannelID == "" {
		return errors.Wrap(suggestions.ErrConfiguration, "guild and suggestion channel must be set")
	}
	ch, err := s.session.Channel(s.cfg.ChannelID, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrapf(suggestions.ErrConfiguration, "resolve suggestion channel %s: %v", s.cfg.ChannelID, err)
	}
	if ch.GuildID != s.cfg.GuildID {
		return errors.Wrapf(suggestions.ErrConfiguration, "channel %s is not part of guild %s", ch.ID, s.cfg.GuildID)
	}
	if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
		return errors.Wrapf(suggestions.ErrConfiguration, "channel %s is not a text channel", ch.ID)
	}
	return nil
}

func (s *Surface) Publish(ctx context.Context, d suggestions.Display) (string, error) {
	msg, err := s.session.ChannelMessageSendComplex(s.cfg.ChannelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{BuildEmbed(d)},
		Components:      VoteButtons(),
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "send suggestion message")
	}
	return msg.ID, nil
}

// Render swaps the fields and accent color of the suggestion embed, keeping
// its title, description, author and footer. The message is fetched once and
// update sees the layout it currently carries.
func (s *Surface) Render(ctx context.Context, ref string, status suggestions.Status, update func(suggestions.Layout) (suggestions.Layout, error)) error {
	msg, err := s.session.ChannelMessage(s.cfg.ChannelID, ref, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "fetch suggestion message")
	}

	embed := &discordgo.MessageEmbed{}
	current := suggestions.Layout{}
	if len(msg.Embeds) > 0 && msg.Embeds[0] != nil {
		copied := *msg.Embeds[0]
		embed = &copied
		current = LayoutFromEmbed(embed)
	}
	layout, err := update(current)
	if err != nil || layout == nil {
		return err
	}
	embed.Type = ""
	embed.Color = status.Style().Color
	embed.Fields = EmbedFields(layout)

	edit := discordgo.NewMessageEdit(s.cfg.ChannelID, ref).SetEmbeds([]*discordgo.MessageEmbed{embed})
	components := VoteButtons()
	edit.Components = &components
	if _, err := s.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "edit suggestion message")
	}
	return nil
}

// DeleteMessage removes the suggestion message. A message that is already
// gone counts as deleted.
func (s *Surface) DeleteMessage(ctx context.Context, ref string) error {
	if err := s.session.ChannelMessageDelete(s.cfg.ChannelID, ref, discordgo.WithContext(ctx)); err != nil && !IsUnknownResource(err) {
		return errors.Wrap(err, "delete suggestion message")
	}
	return nil
}

func (s *Surface) OpenThread(ctx context.Context, ref, name string) error {
	if _, err := s.session.MessageThreadStart(s.cfg.ChannelID, ref, name, openThreadArchiveMinutes, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "start discussion thread")
	}
	return nil
}

func (s *Surface) PostThread(ctx context.Context, ref, content string) (string, error) {
	msg, err := s.session.ChannelMessageSendComplex(ref, &discordgo.MessageSend{
		Content: WrapURLsNoEmbed(content),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "post to discussion thread")
	}
	return msg.ID, nil
}

func (s *Surface) DeleteThreadMessage(ctx context.Context, ref, messageID string) error {
	if err := s.session.ChannelMessageDelete(ref, messageID, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "delete thread message")
	}
	return nil
}

// CloseThread slows replies down, shortens the auto-archive window and then
// archives the thread. Archived threads reject further edits, so the settings
// go first.
func (s *Surface) CloseThread(ctx context.Context, ref string) error {
	cooldown := s.cfg.CooldownSeconds
	if _, err := s.session.ChannelEdit(ref, &discordgo.ChannelEdit{
		RateLimitPerUser:    &cooldown,
		AutoArchiveDuration: s.cfg.ArchiveMinutes,
	}, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "configure discussion thread")
	}

	archived := true
	if _, err := s.session.ChannelEdit(ref, &discordgo.ChannelEdit{Archived: &archived}, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "archive discussion thread")
	}
	return nil
}

// DeleteThread removes the discussion thread. A thread that is already gone
// counts as deleted.
func (s *Surface) DeleteThread(ctx context.Context, ref string) error {
	if _, err := s.session.ChannelDelete(ref, discordgo.WithContext(ctx)); err != nil && !IsUnknownResource(err) {
		return errors.Wrap(err, "delete discussion thread")
	}
	return nil
}

// IsUnknownResource reports whether err is Discord saying the message or
// channel addressed does not exist.
func IsUnknownResource(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func (s *Surface) MemberName(ctx context.Context, userID string) (string, error) {
	member, err := s.session.GuildMember(s.cfg.GuildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "fetch member")
	}
	return memberName(member), nil
}

func (s *Surface) Mention(userID string) string {
	return "<@" + userID + ">"
}

func (s *Surface) Link(ref string) string {
	return MessageLink(s.cfg.GuildID, s.cfg.ChannelID, ref)
}

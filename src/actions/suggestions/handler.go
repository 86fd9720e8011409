package suggestions

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	shareddiscord "github.com/stake-plus/govcomms-suggestions/src/discord"
	"github.com/stake-plus/govcomms-suggestions/src/logging"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

const defaultTimeout = 30 * time.Second

// Handler executes the /suggestion subcommands and the vote buttons.
type Handler struct {
	Engine        *suggestions.Engine
	CuratorRoleID string
	Timeout       time.Duration
	Log           *logrus.Entry
}

func (h *Handler) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return defaultTimeout
}

// HandleSlash acknowledges the command privately and answers once the
// subcommand finished.
func (h *Handler) HandleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if h == nil {
		return
	}

	sub, opts := shareddiscord.Subcommand(i.ApplicationCommandData())
	actor := shareddiscord.Actor(i.Interaction, h.CuratorRoleID)
	log := h.Log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"command":    sub,
		"user":       actor.ID,
	})
	if actor.ID == "" {
		log.Warn("suggestions: interaction missing user context")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logging.LogPlatformError(log, err, "suggestions: failed to acknowledge interaction")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout())
	defer cancel()

	resp := h.run(ctx, log, actor, sub, opts)
	h.Engine.Metrics().ObserveCommand(sub, resp.result)

	edit := &discordgo.WebhookEdit{}
	if resp.content != "" {
		edit.Content = &resp.content
	}
	if len(resp.embeds) > 0 {
		edit.Embeds = &resp.embeds
	}
	if len(resp.components) > 0 {
		edit.Components = &resp.components
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit, discordgo.WithContext(ctx)); err != nil {
		logging.LogPlatformError(log, err, "suggestions: failed to send reply")
		return
	}
	for _, chunk := range resp.followups {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: chunk,
			Flags:   discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx)); err != nil {
			logging.LogPlatformError(log, err, "suggestions: failed to send follow-up")
			return
		}
	}
}

// HandleVote applies a vote button press. The press is acknowledged as a
// silent message update since the display itself shows the outcome.
func (h *Handler) HandleVote(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if h == nil || i.Message == nil {
		return
	}
	desire, ok := shareddiscord.Desires[i.MessageComponentData().CustomID]
	if !ok {
		return
	}

	actor := shareddiscord.Actor(i.Interaction, h.CuratorRoleID)
	log := h.Log.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"vote":       desire.String(),
		"user":       actor.ID,
		"message":    i.Message.ID,
	})
	if actor.ID == "" {
		log.Warn("suggestions: vote missing user context")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logging.LogPlatformError(log, err, "suggestions: failed to acknowledge vote")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout())
	defer cancel()

	resp, ok := h.vote(ctx, log, i.Message.ID, actor.ID, desire)
	if ok {
		return
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: resp.embeds,
		Flags:  discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx)); err != nil {
		logging.LogPlatformError(log, err, "suggestions: failed to report vote failure")
	}
}

// vote reports ok when nothing needs to be said to the voter. Votes on
// unknown messages are dropped silently.
func (h *Handler) vote(ctx context.Context, log *logrus.Entry, ref, voterID string, d suggestions.Desire) (response, bool) {
	res, err := h.Engine.Vote(ctx, ref, voterID, d)
	switch {
	case errors.Is(err, suggestions.ErrNotFound):
		log.Debug("suggestions: vote on unknown message ignored")
		return response{}, true
	case err != nil:
		logging.LogPlatformError(log, err, "suggestions: vote failed")
		return internalReply(), false
	}
	log.WithFields(logrus.Fields{
		"suggestion": res.Suggestion.ID,
		"changed":    res.Changed,
		"attempts":   res.Attempts,
	}).Debug("suggestions: vote applied")
	return response{}, true
}

func (h *Handler) run(ctx context.Context, log *logrus.Entry, actor suggestions.Actor, sub string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) response {
	switch sub {
	case shareddiscord.SubcommandCreate:
		created, err := h.Engine.Create(ctx, actor, stringOption(opts, "title"), stringOption(opts, "description"))
		if err != nil {
			return h.failure(log, err, 0)
		}
		return createdReply(created)

	case shareddiscord.SubcommandSetStatus:
		id := idOption(opts)
		status, ok := suggestions.ParseStatus(stringOption(opts, "status"))
		if !ok {
			return invalidReply("Unknown status.")
		}
		s, err := h.Engine.SetStatus(ctx, actor, id, status, stringOption(opts, "reason"))
		if err != nil {
			return h.failure(log, err, id)
		}
		return statusReply(s)

	case shareddiscord.SubcommandDelete:
		id := idOption(opts)
		deleted, err := h.Engine.Delete(ctx, actor, id)
		if err != nil {
			return h.failure(log, err, id)
		}
		return deletedReply(deleted)

	case shareddiscord.SubcommandList:
		groups, err := h.Engine.List(ctx)
		if err != nil {
			return h.failure(log, err, 0)
		}
		return listReply(groups)

	default:
		log.Warnf("suggestions: unknown subcommand %q", sub)
		return invalidReply("Unknown command.")
	}
}

// failure turns an engine error into a reply. Lookup, permission and input
// problems are answered directly; anything else is logged and answered
// without detail.
func (h *Handler) failure(log *logrus.Entry, err error, id uint64) response {
	var verr *suggestions.ValidationError
	switch {
	case errors.Is(err, suggestions.ErrNotFound):
		return notFoundReply(id)
	case errors.Is(err, suggestions.ErrForbidden):
		return forbiddenReply()
	case errors.As(err, &verr):
		return invalidReply(verr.Message)
	case errors.Is(err, suggestions.ErrInvalid):
		return invalidReply("That input is not valid.")
	case errors.Is(err, suggestions.ErrConfiguration):
		log.WithError(err).Error("suggestions: configuration error")
		return configurationReply()
	default:
		logging.LogPlatformError(log, err, "suggestions: command failed")
		return internalReply()
	}
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := opts[name]; ok && o.Type == discordgo.ApplicationCommandOptionString {
		return strings.TrimSpace(o.StringValue())
	}
	return ""
}

func idOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) uint64 {
	if o, ok := opts["id"]; ok && o.Type == discordgo.ApplicationCommandOptionInteger {
		if v := o.IntValue(); v > 0 {
			return uint64(v)
		}
	}
	return 0
}

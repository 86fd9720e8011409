package suggestions

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/govcomms-suggestions/src/actions/core"
	sharedconfig "github.com/stake-plus/govcomms-suggestions/src/config"
	shareddiscord "github.com/stake-plus/govcomms-suggestions/src/discord"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

var _ core.Module = (*Module)(nil)

// Module is the Discord side of the suggestion engine: it owns the gateway
// session and routes commands and vote buttons to the Handler.
type Module struct {
	config  *sharedconfig.SuggestionsConfig
	session *discordgo.Session
	surface *shareddiscord.Surface
	handler *Handler
	log     *logrus.Entry
}

// NewSession creates the bot session. Interactions need no privileged intents.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

func NewModule(cfg *sharedconfig.SuggestionsConfig, session *discordgo.Session, surface *shareddiscord.Surface, engine *suggestions.Engine, log *logrus.Entry) *Module {
	if log == nil {
		log = logrus.WithField("module", "suggestions")
	}
	module := &Module{
		config:  cfg,
		session: session,
		surface: surface,
		log:     log,
		handler: &Handler{
			Engine:        engine,
			CuratorRoleID: cfg.CuratorRoleID,
			Log:           log,
		},
	}
	module.initHandlers()
	return module
}

// Name implements actions.Module.
func (b *Module) Name() string { return "suggestions" }

func (b *Module) initHandlers() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
}

func (b *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Infof("suggestions: bot logged in as %s", r.User.Username)

	if err := shareddiscord.RegisterSlashCommands(s, b.config.GuildID, shareddiscord.CommandSuggestion); err != nil {
		b.log.WithError(err).Error("suggestions: failed to register slash commands")
		return
	}
	b.log.Info("suggestions: slash command registered")
}

func (b *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID != "" && i.GuildID != b.config.GuildID {
		return
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.ApplicationCommandData().Name == shareddiscord.CommandSuggestion {
			b.handler.HandleSlash(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if _, ok := shareddiscord.Desires[i.MessageComponentData().CustomID]; ok {
			b.handler.HandleVote(s, i)
		}
	}
}

// Start opens the gateway and verifies the suggestion channel. An unusable
// channel is fatal to the module.
func (b *Module) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open Discord connection")
	}
	if err := b.surface.CheckChannel(ctx); err != nil {
		_ = b.session.Close()
		return err
	}
	return nil
}

func (b *Module) Stop(ctx context.Context) {
	if b.session != nil {
		if err := b.session.Close(); err != nil {
			b.log.WithError(err).Warn("suggestions: failed to close Discord session")
		}
	}
}

package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

const (
	CommandSuggestion = "suggestion"

	SubcommandCreate    = "create"
	SubcommandSetStatus = "set-status"
	SubcommandDelete    = "delete"
	SubcommandList      = "list"
)

func statusChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions.Statuses))
	for _, s := range suggestions.Statuses {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: s.String(), Value: s.String()})
	}
	return choices
}

func idOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: description,
		Required:    true,
		MinValue:    &minSuggestionID,
	}
}

var minSuggestionID = 1.0

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandSuggestion: {
		Name:        CommandSuggestion,
		Description: "Create, review and list community suggestions",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandCreate,
				Description: "Submit a new suggestion",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "title",
						Description: "A short title",
						Required:    true,
						MaxLength:   suggestions.MaxTitleLen,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "description",
						Description: "What should change and why",
						Required:    true,
						MaxLength:   suggestions.MaxDescriptionLen,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandSetStatus,
				Description: "Change the status of a suggestion (curators only)",
				Options: []*discordgo.ApplicationCommandOption{
					idOption("Suggestion ID"),
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "status",
						Description: "New status",
						Required:    true,
						Choices:     statusChoices(),
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "reason",
						Description: "Shown on the suggestion",
						MaxLength:   suggestions.MaxReasonLen,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandDelete,
				Description: "Delete a suggestion (author or curators)",
				Options:     []*discordgo.ApplicationCommandOption{idOption("Suggestion ID")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        SubcommandList,
				Description: "List open, considered and approved suggestions",
			},
		},
	},
}

var defaultCommandOrder = []string{CommandSuggestion}

// RegisterSlashCommands registers the requested slash commands for a guild.
// When no command names are provided, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if guildID == "" {
		return errors.New("discord: guildID is required to register slash commands")
	}
	if len(names) == 0 {
		names = defaultCommandOrder
	}

	log := logrus.WithField("module", "discord")
	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Warnf("discord: unknown slash command %q", name)
			continue
		}

		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition); err != nil {
			if isDuplicateCommandError(err) {
				log.Debugf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.WithError(err).Errorf("discord: failed to register command %q", name)
		}
	}

	if len(failures) > 0 {
		return errors.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		if strings.Contains(strings.ToLower(restErr.Message.Message), "already exists") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}

// Subcommand returns the invoked subcommand of a grouped command together with its options by name.
func Subcommand(data discordgo.ApplicationCommandInteractionData) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	opts := map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", opts
	}
	sub := data.Options[0]
	for _, o := range sub.Options {
		opts[o.Name] = o
	}
	return sub.Name, opts
}

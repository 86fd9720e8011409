package suggestions

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/stake-plus/govcomms-suggestions/src/discord"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

const (
	successColor = 0x3BA55D
	errorColor   = 0xED4245
)

// Metric labels of command outcomes.
const (
	resultOK        = "ok"
	resultNotFound  = "not_found"
	resultForbidden = "forbidden"
	resultInvalid   = "invalid"
	resultConfig    = "config_error"
	resultError     = "error"
)

// response is what a command produces for the invoking user.
type response struct {
	embeds     []*discordgo.MessageEmbed
	components []discordgo.MessageComponent
	// content and followups carry plain-text replies split to the message limit.
	content   string
	followups []string
	result    string
}

func replyEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func failureReply(title, description, result string) response {
	return response{
		embeds: []*discordgo.MessageEmbed{replyEmbed("🚫 "+title, description, errorColor)},
		result: result,
	}
}

func notFoundReply(id uint64) response {
	return failureReply("Not found", fmt.Sprintf("There is no suggestion #%d.", id), resultNotFound)
}

func forbiddenReply() response {
	return failureReply("Forbidden", "You may not use this command.", resultForbidden)
}

func invalidReply(message string) response {
	return failureReply("Invalid input", message, resultInvalid)
}

func configurationReply() response {
	return failureReply("Interaction failed",
		"I'm sorry, this interaction failed due to a configuration error. Please contact your administrator.",
		resultConfig)
}

func internalReply() response {
	return failureReply("Interaction failed",
		"I'm sorry, this interaction failed due to an internal error. Please contact your administrator with the command you used and the parameters you provided.",
		resultError)
}

func createdReply(c *suggestions.Created) response {
	embed := replyEmbed("✅ Suggestion created",
		"Your suggestion has been recorded. You can discuss it with other members in its thread.",
		successColor)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Suggestion #%d", c.Suggestion.ID)}

	resp := response{embeds: []*discordgo.MessageEmbed{embed}, result: resultOK}
	if c.Link != "" {
		resp.components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "See suggestion", Style: discordgo.LinkButton, URL: c.Link},
			}},
		}
	}
	return resp
}

func statusReply(s *suggestions.Suggestion) response {
	desc := fmt.Sprintf("The status of the suggestion _%s_ (#%d) was changed to **%s**.",
		s.Title, s.ID, s.Status.String())
	if s.StatusReason != "" {
		desc += "\nReason: " + s.StatusReason
	}
	return response{
		embeds: []*discordgo.MessageEmbed{replyEmbed("✅ Status changed", desc, successColor)},
		result: resultOK,
	}
}

func deletedReply(d *suggestions.Deleted) response {
	desc := fmt.Sprintf("The suggestion _%s_ (#%d) by %s was deleted.", d.Title, d.ID, d.AuthorName)
	return response{
		embeds: []*discordgo.MessageEmbed{replyEmbed("✅ Suggestion deleted", desc, successColor)},
		result: resultOK,
	}
}

// listReply renders the listing as text so long listings can span messages.
func listReply(groups []suggestions.Group) response {
	lines := []string{"**Here is a list of all open suggestions.**"}
	for _, g := range groups {
		lines = append(lines, "", fmt.Sprintf("__%s:__", g.Status.Label()))
		if len(g.Entries) == 0 {
			lines = append(lines, "None")
			continue
		}
		for _, e := range g.Entries {
			title := strings.ReplaceAll(e.Title, "]", "\\]")
			if e.Link == "" {
				lines = append(lines, fmt.Sprintf("» %s (#%d)", title, e.ID))
				continue
			}
			lines = append(lines, fmt.Sprintf("» %s ([#%d](<%s>))", title, e.ID, e.Link))
		}
	}

	chunks := shareddiscord.SplitLines(lines)
	resp := response{result: resultOK}
	if len(chunks) > 0 {
		resp.content = chunks[0]
		resp.followups = chunks[1:]
	}
	return resp
}

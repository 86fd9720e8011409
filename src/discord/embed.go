package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

// Custom ids of the vote buttons under every suggestion.
const (
	CustomIDUpvote   = "suggestion_upvote"
	CustomIDDownvote = "suggestion_downvote"
	CustomIDRetract  = "suggestion_retract"
)

// blankField stands in for empty values, which Discord rejects.
const blankField = "\u200b"

// Desires maps vote button ids to the vote they request.
var Desires = map[string]suggestions.Desire{
	CustomIDUpvote:   suggestions.DesireUp,
	CustomIDDownvote: suggestions.DesireDown,
	CustomIDRetract:  suggestions.DesireRetract,
}

// BuildEmbed renders a new suggestion.
func BuildEmbed(d suggestions.Display) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       truncateForDiscord(d.Title, 256),
		Description: truncateForDiscord(d.Description, 4096),
		Color:       d.Status.Style().Color,
		Fields:      EmbedFields(d.Layout),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Suggestion #%d", d.SuggestionID)},
	}
	if d.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: d.AuthorName}
	}
	return embed
}

// EmbedFields converts a layout to embed fields, preserving order.
func EmbedFields(l suggestions.Layout) []*discordgo.MessageEmbedField {
	fields := make([]*discordgo.MessageEmbedField, 0, len(l))
	for _, f := range l {
		value := f.Value
		if value == "" {
			value = blankField
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  truncateForDiscord(value, 1024),
			Inline: f.Inline,
		})
	}
	return fields
}

// LayoutFromEmbed reads the layout back from a rendered embed.
func LayoutFromEmbed(embed *discordgo.MessageEmbed) suggestions.Layout {
	if embed == nil {
		return nil
	}
	l := make(suggestions.Layout, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		if f == nil {
			continue
		}
		value := f.Value
		if value == blankField {
			value = ""
		}
		l = append(l, suggestions.Field{Name: f.Name, Value: value, Inline: f.Inline})
	}
	return l
}

// VoteButtons is the action row attached to every suggestion.
func VoteButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "👍 Upvote", Style: discordgo.SuccessButton, CustomID: CustomIDUpvote},
			discordgo.Button{Label: "👎 Downvote", Style: discordgo.DangerButton, CustomID: CustomIDDownvote},
			discordgo.Button{Label: "Retract vote", Style: discordgo.SecondaryButton, CustomID: CustomIDRetract},
		}},
	}
}

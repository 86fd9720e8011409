package discord

import (
	"fmt"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s\[\]()<>]+`)

// WrapURLsNoEmbed wraps URLs in angle brackets so Discord does not unfurl them.
func WrapURLsNoEmbed(text string) string {
	return urlPattern.ReplaceAllStringFunc(text, func(url string) string {
		trimmed := strings.TrimRight(url, ".,;:!?)")
		return "<" + trimmed + ">" + url[len(trimmed):]
	})
}

// MessageLink is the jump link of a guild message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

package logging

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-faster/errors"
)

// IsRateLimit reports whether err came from hitting a platform rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "rate_limit") || strings.Contains(msg, "429")
}

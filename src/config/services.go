package config

import (
	"github.com/go-faster/errors"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
	"gorm.io/gorm"
)

// Discord accepts only these auto-archive windows, in minutes.
var archiveWindows = []int{60, 1440, 4320, 10080}

// SuggestionsConfig holds the suggestion bot configuration
type SuggestionsConfig struct {
	Base
	ChannelID             string
	CuratorRoleID         string
	ThreadCooldownSeconds int
	ThreadArchiveMinutes  int
	VoteMaxAttempts       int
	Enabled               bool
}

// LoadSuggestionsConfig loads suggestion bot configuration
func LoadSuggestionsConfig(db *gorm.DB, e Env) SuggestionsConfig {
	return SuggestionsConfig{
		Base:                  LoadBase(db, e),
		ChannelID:             GetSetting("suggestions_channel_id", e.SuggestionsChannelID),
		CuratorRoleID:         GetSetting("curator_role_id", e.CuratorRoleID),
		ThreadCooldownSeconds: getIntSetting("thread_cooldown_seconds", e.ThreadCooldownSeconds),
		ThreadArchiveMinutes:  getIntSetting("thread_archive_minutes", e.ThreadArchiveMinutes),
		VoteMaxAttempts:       getIntSetting("vote_max_attempts", e.VoteMaxAttempts),
		Enabled:               getBoolSetting("enable_suggestions", e.EnableSuggestions),
	}
}

// Validate reports settings the bot cannot start without as configuration errors.
func (c SuggestionsConfig) Validate() error {
	switch {
	case c.Token == "":
		return errors.Wrap(suggestions.ErrConfiguration, "discord token is not set")
	case c.GuildID == "":
		return errors.Wrap(suggestions.ErrConfiguration, "guild id is not set")
	case c.ChannelID == "":
		return errors.Wrap(suggestions.ErrConfiguration, "suggestions channel id is not set")
	case c.ThreadCooldownSeconds < 0 || c.ThreadCooldownSeconds > 21600:
		return errors.Wrapf(suggestions.ErrConfiguration, "thread cooldown %ds is outside 0..21600", c.ThreadCooldownSeconds)
	}
	for _, w := range archiveWindows {
		if c.ThreadArchiveMinutes == w {
			return nil
		}
	}
	return errors.Wrapf(suggestions.ErrConfiguration, "thread archive window %d is not one of %v", c.ThreadArchiveMinutes, archiveWindows)
}

// APIConfig holds the read API configuration
type APIConfig struct {
	Listen       string
	JWTSecret    string
	AllowOrigins []string
	Enabled      bool
}

// LoadAPIConfig loads read API configuration
func LoadAPIConfig(e Env) APIConfig {
	listen := GetSetting("api_listen", e.APIListen)
	return APIConfig{
		Listen:       listen,
		JWTSecret:    GetSetting("api_jwt_secret", e.APIJWTSecret),
		AllowOrigins: e.APIAllowOrigins,
		Enabled:      listen != "" && getBoolSetting("enable_api", e.EnableAPI),
	}
}

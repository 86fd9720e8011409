package config

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stake-plus/govcomms-suggestions/src/data"
	"gorm.io/gorm"
)

// Base contains common configuration fields
type Base struct {
	Token   string
	GuildID string
}

// LoadBase loads the Discord token and guild, letting settings rows override env.
func LoadBase(db *gorm.DB, e Env) Base {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			logrus.WithError(err).Warn("config: settings table unavailable, using environment only")
		}
	}
	return Base{
		Token:   GetSetting("discord_token", e.DiscordToken),
		GuildID: GetSetting("guild_id", e.GuildID),
	}
}

// GetSetting returns the settings-table value of name, or fallback.
func GetSetting(name, fallback string) string {
	if val := strings.TrimSpace(data.GetSetting(name)); val != "" {
		return val
	}
	return fallback
}

func getIntSetting(name string, fallback int) int {
	val := data.GetSetting(name)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		logrus.WithField("setting", name).Warnf("config: ignoring non-numeric value %q", val)
		return fallback
	}
	return n
}

func getBoolSetting(name string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(data.GetSetting(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

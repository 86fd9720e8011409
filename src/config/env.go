package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Env is the process environment. Values here are fallbacks: active rows of
// the settings table take precedence once the database is reachable.
type Env struct {
	DiscordToken         string `env:"DISCORD_TOKEN"`
	GuildID              string `env:"GUILD_ID"`
	SuggestionsChannelID string `env:"SUGGESTIONS_CHANNEL_ID"`
	CuratorRoleID        string `env:"CURATOR_ROLE_ID"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	MySQLDSN   string `env:"MYSQL_DSN"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"suggestions.db"`
	RedisURL   string `env:"REDIS_URL"`

	APIListen       string   `env:"API_LISTEN"`
	APIJWTSecret    string   `env:"API_JWT_SECRET"`
	APIAllowOrigins []string `env:"API_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`

	ThreadCooldownSeconds int `env:"THREAD_COOLDOWN_SECONDS" envDefault:"21600"`
	ThreadArchiveMinutes  int `env:"THREAD_ARCHIVE_MINUTES" envDefault:"60"`
	VoteMaxAttempts       int `env:"VOTE_MAX_ATTEMPTS" envDefault:"100"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	EnableSuggestions bool `env:"ENABLE_SUGGESTIONS" envDefault:"true"`
	EnableAPI         bool `env:"ENABLE_API" envDefault:"true"`
}

// LoadEnv reads the optional dotenv files and parses the environment.
// Variables already set in the process win over dotenv values.
func LoadEnv(files ...string) (Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Env{}, errors.Wrapf(err, "load %s", f)
		}
	}

	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errors.Wrap(err, "parse environment")
	}
	return e, nil
}

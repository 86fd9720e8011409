package actions

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	apimodule "github.com/stake-plus/govcomms-suggestions/src/actions/api"
	"github.com/stake-plus/govcomms-suggestions/src/actions/core"
	suggestionsmodule "github.com/stake-plus/govcomms-suggestions/src/actions/suggestions"
	"github.com/stake-plus/govcomms-suggestions/src/api/webserver"
	sharedconfig "github.com/stake-plus/govcomms-suggestions/src/config"
	shareddiscord "github.com/stake-plus/govcomms-suggestions/src/discord"
	"github.com/stake-plus/govcomms-suggestions/src/events"
	"github.com/stake-plus/govcomms-suggestions/src/logging"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
	"gorm.io/gorm"
)

type (
	// Manager re-exports the core.Manager for consumers outside the actions package.
	Manager = core.Manager
	// Module re-exports the core.Module interface.
	Module = core.Module
)

// Deps are the process-wide resources shared by the action modules.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client // optional
	Registry *prometheus.Registry
	Logger   *logrus.Logger
	Env      sharedconfig.Env
}

// StartAll wires up enabled action modules and starts the manager.
func StartAll(ctx context.Context, deps Deps) (*Manager, error) {
	mgr := core.NewManager()
	mgr.SetLogger(logging.Module(deps.Logger, "actions"))
	log := logging.Module(deps.Logger, "actions")

	sugCfg := sharedconfig.LoadSuggestionsConfig(deps.DB, deps.Env)
	apiCfg := sharedconfig.LoadAPIConfig(deps.Env)

	session, err := suggestionsmodule.NewSession(sugCfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "actions: init discord session")
	}
	surface := shareddiscord.NewSurface(session, shareddiscord.SurfaceConfig{
		GuildID:         sugCfg.GuildID,
		ChannelID:       sugCfg.ChannelID,
		CooldownSeconds: sugCfg.ThreadCooldownSeconds,
		ArchiveMinutes:  sugCfg.ThreadArchiveMinutes,
	})

	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	opts := suggestions.Options{
		Metrics: suggestions.NewMetrics(registerer),
		Logger:  logging.Module(deps.Logger, "suggestions"),
	}
	if deps.Redis != nil {
		opts.Events = events.NewRedisPublisher(deps.Redis)
	} else {
		log.Info("actions: REDIS_URL not set, status events disabled")
	}
	engine := suggestions.NewEngine(suggestions.NewStore(deps.DB, sugCfg.VoteMaxAttempts), surface, opts)

	if sugCfg.Enabled {
		if err := sugCfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "actions: suggestions config")
		}
		mod := suggestionsmodule.NewModule(&sugCfg, session, surface, engine, logging.Module(deps.Logger, "suggestions"))
		if err := mgr.Add(mod); err != nil {
			return nil, errors.Wrap(err, "actions: add suggestions module")
		}
	} else {
		log.Info("actions: suggestions module disabled via configuration")
	}

	if apiCfg.Enabled {
		router := webserver.New(engine, webserver.Options{
			JWTSecret:    apiCfg.JWTSecret,
			AllowOrigins: apiCfg.AllowOrigins,
			Ping:         pinger(deps.DB),
			Gatherer:     gatherer,
			Logger:       logging.Module(deps.Logger, "api"),
			RateLimit:    120,
			RateWindow:   time.Minute,
		})
		if err := mgr.Add(apimodule.NewModule(&apiCfg, router, logging.Module(deps.Logger, "api"))); err != nil {
			return nil, errors.Wrap(err, "actions: add api module")
		}
	} else {
		log.Info("actions: api module disabled via configuration")
	}

	if mgr.Len() == 0 {
		return nil, errors.New("actions: every module is disabled")
	}
	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

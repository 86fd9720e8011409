package main

import (
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stake-plus/govcomms-suggestions/src/config"
	"github.com/stake-plus/govcomms-suggestions/src/data"
	"github.com/stake-plus/govcomms-suggestions/src/logging"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
	"gorm.io/gorm"
)

type app struct {
	env config.Env
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		rt      app
	)

	cmd := &cobra.Command{
		Use:           "suggestions",
		Short:         "Community suggestion bot with vote ledger and status workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv(envFile)
			if err != nil {
				return err
			}
			log, err := logging.New(env.LogLevel, env.LogFormat)
			if err != nil {
				return err
			}
			logrus.SetLevel(log.GetLevel())
			logrus.SetFormatter(log.Formatter)
			rt = app{env: env, log: log}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load when present")

	serve := newServeCmd(&rt)
	cmd.AddCommand(serve, newMigrateCmd(&rt))
	cmd.RunE = serve.RunE
	return cmd
}

// openDB connects to the configured database and migrates the schema.
func (rt *app) openDB() (*gorm.DB, error) {
	db, err := data.Connect(rt.env.DBDriver, rt.env.MySQLDSN, rt.env.SQLitePath, data.WithLogger(rt.log))
	if err != nil {
		return nil, errors.Wrap(err, "db")
	}
	if err := db.AutoMigrate(&data.Setting{}); err != nil {
		return nil, errors.Wrap(err, "migrate settings")
	}
	if err := suggestions.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "migrate suggestions")
	}
	return db, nil
}

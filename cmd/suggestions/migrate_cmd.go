package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rt.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			rt.log.WithField("driver", rt.env.DBDriver).Info("suggestions: schema is up to date")
			return nil
		},
	}
}

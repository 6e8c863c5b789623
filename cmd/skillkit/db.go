package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillkit/pkg/db"
	"github.com/jingkaihe/skillkit/pkg/db/migrations"
	"github.com/jingkaihe/skillkit/pkg/presenter"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "History database management commands",
	Long:  `Commands for managing the run history database (migrations, status).`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database migration status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withDatabase(ctx, func(path string, sqlDB *sqlx.DB) error {
			applied, err := db.NewMigrationRunner(sqlDB).GetAppliedVersions(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to get migration status")
			}

			appliedMap := make(map[int64]bool)
			for _, v := range applied {
				appliedMap[v] = true
			}

			all := migrations.All()
			p := presenter.Default()
			p.Section("Database Migration Status")
			p.Info(fmt.Sprintf("Database: %s", path))
			p.Info("")

			appliedCount := 0
			for _, m := range all {
				status := "[ ]"
				if appliedMap[m.Version] {
					status = "[✓]"
					appliedCount++
				}
				p.Info(fmt.Sprintf("%s %d - %s", status, m.Version, m.Description))
			}

			p.Info("")
			p.Info(fmt.Sprintf("Applied: %d/%d migrations", appliedCount, len(all)))
			return nil
		})
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withDatabase(ctx, func(_ string, sqlDB *sqlx.DB) error {
			runner := db.NewMigrationRunner(sqlDB)
			pending, err := runner.Pending(ctx, migrations.All())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				presenter.Info("Database is up to date")
				return nil
			}
			if err := runner.Run(ctx, migrations.All()); err != nil {
				return errors.Wrap(err, "failed to run migrations")
			}
			for _, m := range pending {
				presenter.Success(fmt.Sprintf("Applied migration %d: %s", m.Version, m.Description))
			}
			return nil
		})
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback the last database migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withDatabase(ctx, func(_ string, sqlDB *sqlx.DB) error {
			runner := db.NewMigrationRunner(sqlDB)
			applied, err := runner.GetAppliedVersions(ctx)
			if err != nil {
				return errors.Wrap(err, "failed to get migration status")
			}
			if len(applied) == 0 {
				presenter.Warning("No migrations to rollback")
				return nil
			}

			lastVersion := applied[len(applied)-1]
			var description string
			for _, m := range migrations.All() {
				if m.Version == lastVersion {
					description = m.Description
					break
				}
			}

			presenter.Info(fmt.Sprintf("Rolling back migration %d: %s", lastVersion, description))
			if err := runner.Rollback(ctx, migrations.All()); err != nil {
				return errors.Wrap(err, "failed to rollback migration")
			}
			presenter.Success(fmt.Sprintf("Successfully rolled back migration %d", lastVersion))
			return nil
		})
	},
}

// withDatabase opens the history database without migrating it.
func withDatabase(ctx context.Context, fn func(path string, sqlDB *sqlx.DB) error) error {
	path := viper.GetString("history.db_path")
	if path == "" {
		var err error
		if path, err = db.DefaultDBPath(); err != nil {
			return err
		}
	}

	sqlDB, err := db.Open(ctx, path)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(path, sqlDB)
}

func init() {
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
}

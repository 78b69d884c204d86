package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dir string
	var steps int

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	migrateCmd.PersistentFlags().StringVarP(&dir, "dir", "d", "migrate", "Directory with the SQL migrations")
	migrateCmd.PersistentFlags().IntVarP(&steps, "steps", "n", 0, "Number of migrations to apply, 0 means all")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, dir, func(m *migrate.Migrate) error {
				if steps > 0 {
					return m.Steps(steps)
				}
				return m.Up()
			})
		},
	}
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (one step unless --steps is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, dir, func(m *migrate.Migrate) error {
				return m.Steps(-max(steps, 1))
			})
		},
	}
	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

func runMigrate(cmd *cobra.Command, dir string, apply func(m *migrate.Migrate) error) error {
	ctx := cmd.Context()
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	err = apply(m)
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
	return nil
}

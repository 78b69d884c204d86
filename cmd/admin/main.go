package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/programme-lv/classroom/account"
	"github.com/programme-lv/classroom/conf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel, logFile string

	rootCmd := &cobra.Command{
		Use:   "classroom-admin",
		Short: "Admin CLI for the classroom backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			return initLogger(logLevel, logFile)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level [debug, info, warn, error]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(newMigrateCmd(), newSeedCmd(), newStudentCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	connStr, err := conf.GetPgConnStrFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("error creating pg pool: %w", err)
	}
	return pool, nil
}

// newAccountSrvc needs no identity provider: nothing here confirms signups.
func newAccountSrvc(pool *pgxpool.Pool) *account.AccountSrvc {
	return account.NewAccountSrvc(account.NewPgAccountRepo(pool), nil, "")
}

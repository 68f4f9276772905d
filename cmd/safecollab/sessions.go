package main

import (
	"context"
	"log/slog"

	"github.com/safecollab/safecollab/internal/database"
	"github.com/safecollab/safecollab/internal/user"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage login sessions",
}

var sessionsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete expired sessions",
	RunE:  runSessionsClean,
}

func init() {
	sessionsCmd.AddCommand(sessionsCleanCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := user.NewStore(pool, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL).CleanExpiredSessions(ctx)
	if err != nil {
		return err
	}

	slog.Info("expired sessions deleted", "count", n)
	return nil
}

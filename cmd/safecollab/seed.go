package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/safecollab/safecollab/internal/database"
	"github.com/safecollab/safecollab/internal/group"
	"github.com/safecollab/safecollab/internal/membership"
	"github.com/safecollab/safecollab/internal/record"
	"github.com/safecollab/safecollab/internal/user"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users, a group and a record",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const demoPassword = "collab-demo-1"

var demoMembers = []struct {
	Email string
	Role  string
}{
	{"editor@example.com", "editor"},
	{"viewer@example.com", "viewer"},
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	users := user.NewStore(pool, cfg.Auth.BcryptCost, cfg.Auth.SessionTTL)
	members := membership.NewService(membership.NewStore(pool), users)
	groups := group.NewService(group.NewStore(pool), cfg.RecordPolicy())
	records := record.NewService(record.NewStore(pool))

	// Check if seed has already run.
	if _, err := users.GetByEmail(ctx, "admin@example.com"); err == nil {
		slog.Info("demo data already exists, skipping seed")
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("checking existing users: %w", err)
	}

	admin, err := users.Create(ctx, user.CreateUserInput{Email: "admin@example.com", Password: demoPassword})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	g, err := groups.Create(ctx, admin.ID, "Demo Team")
	if err != nil {
		return fmt.Errorf("creating group: %w", err)
	}
	slog.Info("created group", "name", g.Name, "id", g.ID)

	for _, dm := range demoMembers {
		if _, err := users.Create(ctx, user.CreateUserInput{Email: dm.Email, Password: demoPassword}); err != nil {
			return fmt.Errorf("creating %s: %w", dm.Email, err)
		}
		if _, err := members.Add(ctx, g.ID, dm.Email, dm.Role); err != nil {
			return fmt.Errorf("adding %s: %w", dm.Email, err)
		}
	}

	if _, err := records.Create(ctx, g.ID, admin.ID, record.Input{
		Title:   "Welcome",
		Content: "Editors can change this record. Viewers can only read it.",
	}); err != nil {
		return fmt.Errorf("creating record: %w", err)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Group:     %s (%s)\n", g.Name, g.ID)
	fmt.Printf("Users:     admin@example.com, editor@example.com, viewer@example.com\n")
	fmt.Printf("Password:  %s\n", demoPassword)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST -d '{\"email\":\"admin@example.com\",\"password\":\"%s\"}' http://localhost:8080/api/v1/auth/login\n", demoPassword)
	fmt.Printf("  curl -H 'Authorization: Bearer <token>' -H 'X-Group-ID: %s' http://localhost:8080/api/v1/records\n", g.ID)

	return nil
}

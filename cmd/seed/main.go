// Command seed loads the plan catalog into the database. It is idempotent;
// rerunning upserts in place.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/internal/config"
	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/pkg/catalog"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/password"
)

func main() {
	catalogFile := flag.String("file", "plans.yaml", "Path to plan catalog file")
	demo := flag.Bool("demo", false, "Also create a demo organization with an owner account")
	flag.Parse()

	if err := run(*catalogFile, *demo); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(catalogFile string, demo bool) error {
	plans, err := catalog.Load(catalogFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := postgres.NewPlanRepository(db)
	for _, p := range plans {
		if err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to upsert plan %s: %w", p.Tier(), err)
		}
		fmt.Printf("seeded plan %-14s %s\n", p.Tier(), p.Name())
	}
	fmt.Printf("seeded %d plans\n", len(plans))

	if demo {
		if err := seedDemoOrganization(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// seedDemoOrganization creates a demo tenant on the free tier. Safe to rerun;
// an existing demo account is left untouched.
func seedDemoOrganization(ctx context.Context, db *postgres.DB) error {
	svc := app.NewOrganizationService(
		postgres.NewOrganizationRepository(db),
		postgres.NewUserRepository(db),
		postgres.NewSubscriptionRepository(db),
		password.New(),
		nil,
		logger.NewNop(),
	)

	result, err := svc.Onboard(ctx, app.OnboardInput{
		OrganizationName: "Demo Bistro",
		Email:            "demo@menucraft.local",
		Name:             "Demo Owner",
		Password:         "demo-password-1",
	})
	if errors.Is(err, shared.ErrConflict) {
		fmt.Println("demo organization already exists, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed demo organization: %w", err)
	}

	fmt.Printf("seeded demo organization %s (owner %s)\n",
		result.Organization.Slug(), result.Owner.Email())
	return nil
}

// Package cmd implements the menucraft-admin CLI. The CLI talks directly to
// the database, so it must run where the database is reachable.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/menucraft/api/internal/app"
	"github.com/menucraft/api/internal/config"
	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/pkg/logger"
)

var (
	version string

	flagOutput  string
	flagTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "menucraft-admin",
	Short: "MenuCraft platform administration CLI",
	Long: `menucraft-admin manages the MenuCraft platform directly against its
database: plan catalog updates, subscription inspection and repair, and
schema migrations.

Database settings come from the same environment variables the server
reads (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "Command timeout")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(subscriptionsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withDB opens the database, runs fn with a deadline, and closes it.
func withDB(fn func(ctx context.Context, db *postgres.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()
	return fn(ctx, db)
}

// billingStack wires the services subscription commands need. The CLI runs
// without Redis: the plan cache and notifications are skipped.
type billingStack struct {
	Entitlement *app.EntitlementService
	Billing     *app.BillingService
}

func newBillingStack(db *postgres.DB) (*billingStack, error) {
	log := logger.NewNop()

	restaurantRepo := postgres.NewRestaurantRepository(db)
	productRepo := postgres.NewProductRepository(db)
	subRepo := postgres.NewSubscriptionRepository(db)

	planService, err := app.NewPlanService(postgres.NewPlanRepository(db), nil, log)
	if err != nil {
		return nil, err
	}

	entitlements := app.NewEntitlementService(
		postgres.NewOrganizationRepository(db),
		subRepo,
		planService,
		postgres.NewUsageRepository(db),
		restaurantRepo,
		productRepo,
		nil,
		log,
	)
	billing := app.NewBillingService(
		subRepo,
		planService,
		entitlements,
		restaurantRepo,
		productRepo,
		postgres.NewAuditRepository(db),
		app.NopNotifier{},
		nil,
		0,
		log,
	)
	return &billingStack{Entitlement: entitlements, Billing: billing}, nil
}

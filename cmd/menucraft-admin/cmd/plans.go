package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/pkg/catalog"
	"github.com/menucraft/api/pkg/domain/plan"
)

var flagCatalogFile string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage the plan catalog",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all plans, including retired ones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			plans, err := postgres.NewPlanRepository(db).List(ctx, false)
			if err != nil {
				return err
			}

			if flagOutput != "table" {
				snapshots := make([]plan.Snapshot, 0, len(plans))
				for _, p := range plans {
					snapshots = append(snapshots, p.Snapshot())
				}
				return render(cmd.OutOrStdout(), snapshots)
			}

			rows := make([][]string, 0, len(plans))
			for _, p := range plans {
				limits := p.Limits()
				rows = append(rows, []string{
					p.Tier().String(),
					p.Name(),
					fmt.Sprintf("$%.2f", float64(p.PriceMonthly())/100),
					formatLimit(limits.Restaurants),
					formatLimit(limits.Products),
					formatLimit(limits.APICalls),
					strconv.FormatBool(p.Active()),
				})
			}
			return renderTable(cmd.OutOrStdout(),
				[]string{"TIER", "NAME", "PRICE/MO", "RESTAURANTS", "PRODUCTS", "API CALLS", "ACTIVE"},
				rows,
			)
		})
	},
}

var plansApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Upsert the catalog from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		plans, err := catalog.Load(flagCatalogFile)
		if err != nil {
			return err
		}
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			repo := postgres.NewPlanRepository(db)
			for _, p := range plans {
				if err := repo.Upsert(ctx, p); err != nil {
					return fmt.Errorf("failed to upsert plan %s: %w", p.Tier(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied plan %s\n", p.Tier())
			}
			return nil
		})
	},
}

func formatLimit(v int64) string {
	if v == plan.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(v, 10)
}

func init() {
	plansApplyCmd.Flags().StringVarP(&flagCatalogFile, "file", "f", "plans.yaml", "Catalog file to apply")
	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansApplyCmd)
}

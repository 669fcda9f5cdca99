package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/menucraft/api/internal/infra/postgres"
	"github.com/menucraft/api/pkg/domain/shared"
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "Inspect and repair subscriptions",
}

var subscriptionsGetCmd = &cobra.Command{
	Use:   "get <organization-id>",
	Short: "Show an organization's effective subscription status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id: %w", err)
		}
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			stack, err := newBillingStack(db)
			if err != nil {
				return err
			}
			status, err := stack.Entitlement.GetStatus(ctx, orgID)
			if err != nil {
				return err
			}

			if flagOutput != "table" {
				return render(cmd.OutOrStdout(), status)
			}
			rows := [][]string{
				{"Source", string(status.Source)},
				{"Status", string(status.Status)},
				{"Plan", fmt.Sprintf("%s (%s)", status.PlanName, status.PlanTier)},
				{"Period end", status.CurrentPeriodEnd.Format("2006-01-02 15:04:05 MST")},
				{"Active", strconv.FormatBool(status.IsActive)},
				{"Expired", strconv.FormatBool(status.IsExpired)},
				{"Days until expiry", strconv.Itoa(status.DaysUntilExpiry)},
				{"In grace period", strconv.FormatBool(status.Grace.InGracePeriod)},
				{"Cancel at period end", strconv.FormatBool(status.CancelAtPeriodEnd)},
			}
			return renderTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, rows)
		})
	},
}

var subscriptionsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expiry sweep: finalize lapsed subscriptions and send notices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			stack, err := newBillingStack(db)
			if err != nil {
				return err
			}
			processed, err := stack.Billing.ProcessExpiredSubscriptions(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d expired subscriptions\n", processed)
			return nil
		})
	},
}

var subscriptionsRestoreCmd = &cobra.Command{
	Use:   "restore <organization-id>",
	Short: "Restore access for a suspended organization with a fresh paid period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid organization id: %w", err)
		}
		return withDB(func(ctx context.Context, db *postgres.DB) error {
			stack, err := newBillingStack(db)
			if err != nil {
				return err
			}
			status, err := stack.Billing.RestoreAccess(ctx, orgID, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored: plan %s, period ends %s\n",
				status.PlanTier, status.CurrentPeriodEnd.Format("2006-01-02"))
			return nil
		})
	},
}

func init() {
	subscriptionsCmd.AddCommand(subscriptionsGetCmd)
	subscriptionsCmd.AddCommand(subscriptionsSweepCmd)
	subscriptionsCmd.AddCommand(subscriptionsRestoreCmd)
}

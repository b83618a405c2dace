package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/history"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/reconcile"
)

func newReconcileCommand() *cobra.Command {
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Match bank transactions against invoices and expenses",
	}
	reconcileCmd.AddCommand(newReconcileSuggestCommand())
	reconcileCmd.AddCommand(newReconcileActionCommand("match", "Match a transaction to an invoice or expense"))
	reconcileCmd.AddCommand(newReconcileActionCommand("ignore", "Ignore a transaction"))
	reconcileCmd.AddCommand(newReconcileActionCommand("unmatch", "Return a transaction to the unmatched pool"))
	reconcileCmd.AddCommand(newReconcileSummaryCommand())
	return reconcileCmd
}

func newReconcileSuggestCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "suggest <transaction-id>",
		Short: "Show ranked match suggestions for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			suggestions, err := ws.engine.Suggestions(args[0])
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println("No suggestions")
				return nil
			}
			for _, s := range suggestions {
				fmt.Printf("%-5s  %s/%s  %s  %s\n", s.Confidence, s.Type, s.ID, s.Amount.StringFixed(2), s.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	return cmd
}

func newReconcileActionCommand(action, short string) *cobra.Command {
	var dir, actor, toID, toType string

	cmd := &cobra.Command{
		Use:   action + " <transaction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			var payload *reconcile.MatchPayload
			if action == "match" {
				payload = &reconcile.MatchPayload{MatchedToID: toID, MatchedToType: toType}
			}

			txn, changed, err := ws.engine.Reconcile(args[0], reconcile.Action(action), payload, actorUser(actor))
			if err != nil {
				return err
			}
			if !changed {
				fmt.Printf("%s already %s\n", txn.ID, txn.Status)
				return nil
			}

			entry := history.Entry{
				Timestamp:     time.Now(),
				Actor:         actor,
				Action:        action,
				TransactionID: txn.ID,
				TargetType:    string(txn.MatchedToType),
				TargetID:      txn.MatchedToID,
				Details:       txn.Description,
			}
			if err := history.Append(ws.dir, []history.Entry{entry}); err != nil {
				return fmt.Errorf("writing activity log: %w", err)
			}

			if err := ws.save(fmt.Sprintf("reconcile: %s %s", action, txn.ID)); err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", txn.ID, txn.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&actor, "actor", "cli", "acting user id")
	if action == "match" {
		cmd.Flags().StringVar(&toID, "to", "", "target record id (required)")
		_ = cmd.MarkFlagRequired("to")
		cmd.Flags().StringVar(&toType, "to-type", string(model.EntityInvoices), "target entity type")
	}

	return cmd
}

func newReconcileSummaryCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show live bank feed aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			sum, err := ws.engine.Summary()
			if err != nil {
				return err
			}
			fmt.Printf("Unmatched: %d (%s)\n", sum.UnmatchedCount, sum.UnmatchedTotal.StringFixed(2))
			fmt.Printf("Inflow:    %s\n", sum.Inflow.StringFixed(2))
			fmt.Printf("Outflow:   %s\n", sum.Outflow.StringFixed(2))
			fmt.Printf("Net:       %s\n", sum.NetCashFlow.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	return cmd
}

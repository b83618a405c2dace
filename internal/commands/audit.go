package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/audit"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
)

func newAuditCommand() *cobra.Command {
	var dir string
	var sample int
	var failOnFindings bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Re-derive store invariants and report integrity findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			auditor := audit.New(ws.store, policy.NewValidationPolicy(ws.cfg.RequiredFields))
			auditor.SampleSize = sample

			report, err := auditor.Run()
			if err != nil {
				return err
			}

			fmt.Printf("Checked %d records\n", report.CheckedRecords)
			if report.Clean() {
				fmt.Println("No findings")
				return nil
			}
			for _, f := range report.Findings {
				fmt.Println(f)
			}
			if failOnFindings {
				return fmt.Errorf("%d findings", len(report.Findings))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().IntVar(&sample, "sample", 25, "parent records sampled per type for selector checks (0 = all)")
	cmd.Flags().BoolVar(&failOnFindings, "fail", false, "exit non-zero when findings exist")

	return cmd
}

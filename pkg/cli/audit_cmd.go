package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trinogate/internal/db/repository"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}
	cmd.AddCommand(newAuditTailCmd())
	return cmd
}

func newAuditTailCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := repository.NewAuditRepo(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, records)
			}
			for _, rec := range records {
				outcome := "DENY"
				if rec.Allowed {
					outcome = "ALLOW"
				}
				_, _ = fmt.Fprintf(os.Stdout, "%s %-5s %-28s user=%s access=%s resource=%s policy=%d\n",
					rec.EventTime.Format("2006-01-02T15:04:05Z07:00"),
					outcome, rec.Operation, rec.User, rec.Access, rec.Resource, rec.PolicyID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")
	return cmd
}

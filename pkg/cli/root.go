// Package cli implements the trinogate administration CLI: policy
// bundle import, policy inspection, offline decision checks, and audit
// log tailing, all operating directly on the SQLite policy store.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internaldb "trinogate/internal/db"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		dbPath string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "trinogate",
		Short:         "Trino authorization policy administration",
		Long:          "Manage the policy store backing the trinogate decision service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "trinogate_policies.sqlite", "Path to the SQLite policy store")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text or json")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newPoliciesCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// openStore opens the policy store read-write and runs migrations so a
// fresh path is usable immediately.
func openStore(cmd *cobra.Command) (*sql.DB, error) {
	dbPath, _ := cmd.Root().PersistentFlags().GetString("db")
	db, err := internaldb.OpenSQLite(dbPath, "write", 1)
	if err != nil {
		return nil, err
	}
	if err := internaldb.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// getOutputFormat returns the effective output format from the root
// command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	output, _ := cmd.Root().PersistentFlags().GetString("output")
	return output
}

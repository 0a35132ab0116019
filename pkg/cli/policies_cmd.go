package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"trinogate/internal/db/repository"
	"trinogate/internal/policy"
)

func newPoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Inspect the policy store",
	}
	cmd.AddCommand(newPoliciesListCmd())
	return cmd
}

func newPoliciesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every policy in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			store := policy.NewStore()
			if err := repository.NewPolicyRepo(db).LoadInto(cmd.Context(), store); err != nil {
				return err
			}

			access := store.AccessPolicies()
			rowFilters := store.RowFilterPolicies()
			dataMasks := store.DataMaskPolicies()

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"access_policies":     access,
					"row_filter_policies": rowFilters,
					"data_mask_policies":  dataMasks,
				})
			}

			_, _ = fmt.Fprintf(os.Stdout, "Access policies (%d):\n", len(access))
			for _, p := range access {
				accesses := make([]string, len(p.Accesses))
				for i, a := range p.Accesses {
					accesses[i] = a.Wire()
				}
				_, _ = fmt.Fprintf(os.Stdout, "  %-4d %-30s %-40s [%s]\n",
					p.ID, p.Name, formatResource(p.Resource), strings.Join(accesses, ","))
			}
			_, _ = fmt.Fprintf(os.Stdout, "Row filter policies (%d):\n", len(rowFilters))
			for _, p := range rowFilters {
				_, _ = fmt.Fprintf(os.Stdout, "  %-4d %-30s %s.%s.%s: %s\n",
					p.ID, p.Name, p.Catalog, p.Schema, p.Table, p.FilterExpr)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Data mask policies (%d):\n", len(dataMasks))
			for _, p := range dataMasks {
				_, _ = fmt.Fprintf(os.Stdout, "  %-4d %-30s %s.%s.%s.%s -> %s\n",
					p.ID, p.Name, p.Catalog, p.Schema, p.Table, p.Column, p.MaskType)
			}
			return nil
		},
	}
}

func formatResource(resource map[string]string) string {
	parts := make([]string, 0, len(resource))
	for key, pattern := range resource {
		parts = append(parts, key+"="+pattern)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

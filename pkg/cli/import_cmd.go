package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trinogate/internal/db/repository"
	"trinogate/internal/domain"
	"trinogate/internal/policy"
)

func newImportCmd() *cobra.Command {
	var bundlePath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML policy bundle into the policy store",
		Long:  "Reads a YAML bundle of access policies, row filters, data masks, and groups and persists it. Entries whose names already exist are skipped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := policy.LoadBundleFile(bundlePath)
			if err != nil {
				return err
			}

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			policyRepo := repository.NewPolicyRepo(db)
			groupRepo := repository.NewGroupRepo(db)
			ctx := cmd.Context()

			var imported, skipped int
			for _, p := range bundle.AccessPolicyList() {
				p := p
				switch err := policyRepo.SaveAccessPolicy(ctx, &p); {
				case err == nil:
					imported++
				case isConflict(err):
					skipped++
				default:
					return fmt.Errorf("access policy %q: %w", p.Name, err)
				}
			}
			for _, p := range bundle.RowFilterPolicyList() {
				p := p
				switch err := policyRepo.SaveRowFilterPolicy(ctx, &p); {
				case err == nil:
					imported++
				case isConflict(err):
					skipped++
				default:
					return fmt.Errorf("row filter policy %q: %w", p.Name, err)
				}
			}
			for _, p := range bundle.DataMaskPolicyList() {
				p := p
				switch err := policyRepo.SaveDataMaskPolicy(ctx, &p); {
				case err == nil:
					imported++
				case isConflict(err):
					skipped++
				default:
					return fmt.Errorf("data mask policy %q: %w", p.Name, err)
				}
			}
			for _, g := range bundle.Groups {
				if err := groupRepo.EnsureGroup(ctx, g.Name); err != nil {
					return fmt.Errorf("group %q: %w", g.Name, err)
				}
				for _, m := range g.Members {
					if err := groupRepo.AddMember(ctx, g.Name, "user", m); err != nil && !isConflict(err) {
						return fmt.Errorf("group %q member %q: %w", g.Name, m, err)
					}
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"imported": imported,
					"skipped":  skipped,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Imported %d policies (%d already present).\n", imported, skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&bundlePath, "bundle", "", "Path to the YAML policy bundle")
	_ = cmd.MarkFlagRequired("bundle")

	return cmd
}

func isConflict(err error) bool {
	var conflict *domain.ConflictError
	return errors.As(err, &conflict)
}

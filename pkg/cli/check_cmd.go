package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"trinogate/internal/accesscontrol"
	"trinogate/internal/db/repository"
	"trinogate/internal/domain"
	"trinogate/internal/groups"
	"trinogate/internal/policy"
)

func newCheckCmd() *cobra.Command {
	var (
		user        string
		userGroups  []string
		operation   string
		catalog     string
		schema      string
		table       string
		columns     []string
		property    string
		targetUser  string
		function    string
		procedure   string
		useDBGroups bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one operation against the policy store",
		Long:  "Runs a single authorization check locally, without the decision service, and reports the outcome.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			op, ok := accesscontrol.ParseOperation(operation)
			if !ok {
				return domain.ErrValidation("unknown operation %q", operation)
			}

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			store := policy.NewStore()
			if err := repository.NewPolicyRepo(db).LoadInto(cmd.Context(), store); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			var resolver domain.GroupResolver = groups.IdentityGroups{}
			if useDBGroups {
				resolver = groups.NewStoreResolver(repository.NewGroupRepo(db))
			}
			ac := accesscontrol.New(accesscontrol.Config{
				Evaluator: policy.NewEvaluator(store, logger),
				Groups:    resolver,
				Logger:    logger,
			})

			id := domain.Identity{User: user, Groups: userGroups}
			t := accesscontrol.Target{
				Catalog:   catalog,
				Schema:    schema,
				Table:     table,
				Columns:   columns,
				Property:  property,
				User:      targetUser,
				Function:  function,
				Procedure: procedure,
			}

			checkErr := ac.Authorize(cmd.Context(), id, op, t)
			var denied *domain.AccessDeniedError
			switch {
			case checkErr == nil:
				if getOutputFormat(cmd) == "json" {
					return printJSON(os.Stdout, map[string]interface{}{"allowed": true})
				}
				_, _ = fmt.Fprintln(os.Stdout, "ALLOWED")
				return nil
			case errors.As(checkErr, &denied):
				if getOutputFormat(cmd) == "json" {
					if err := printJSON(os.Stdout, map[string]interface{}{
						"allowed": false,
						"message": denied.Message,
					}); err != nil {
						return err
					}
				} else {
					_, _ = fmt.Fprintf(os.Stdout, "DENIED: %s\n", denied.Message)
				}
				os.Exit(2)
				return nil
			default:
				return checkErr
			}
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Acting user")
	cmd.Flags().StringSliceVar(&userGroups, "groups", nil, "Session groups of the acting user")
	cmd.Flags().StringVar(&operation, "operation", "", "Operation name, e.g. DropTable")
	cmd.Flags().StringVar(&catalog, "catalog", "", "Target catalog")
	cmd.Flags().StringVar(&schema, "schema", "", "Target schema")
	cmd.Flags().StringVar(&table, "table", "", "Target table or view")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Target columns for SelectFromColumns")
	cmd.Flags().StringVar(&property, "property", "", "Target session property")
	cmd.Flags().StringVar(&targetUser, "target-user", "", "Target user for impersonation checks")
	cmd.Flags().StringVar(&function, "function", "", "Target function")
	cmd.Flags().StringVar(&procedure, "procedure", "", "Target procedure")
	cmd.Flags().BoolVar(&useDBGroups, "use-db-groups", false, "Resolve groups from the policy store instead of --groups")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("operation")

	return cmd
}

package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/ticketing"
)

func newCustomersCommand() *cobra.Command {
	customersCmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Query and update customers",
	}

	customersCmd.AddCommand(
		accessorCommand("find-by-username <substring>", "Active customers whose username contains substring", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Customers.FindByUsernameSubstringActive(ctx, args[0])
			}),
		accessorCommand("copy-email-into-username", "Set every username to the customer's email", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return bulk(s.Customers.CopyEmailIntoUsername(ctx))
			}),
		accessorCommand("deactivate-short-usernames <min-length>", "Deactivate customers with usernames shorter than min-length", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				n, err := parseInt("min-length", args[0])
				if err != nil {
					return nil, err
				}
				return bulk(s.Customers.DeactivateShortUsernames(ctx, n))
			}),
		accessorCommand("list-without-email", "List customers without loading their email", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Customers.ListWithoutEmail(ctx)
			}),
		accessorCommand("find-active-raw <true|false>", "Customers by active flag, using literal SQL", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				active, err := strconv.ParseBool(args[0])
				if err != nil {
					return nil, err
				}
				return s.Customers.FindActiveRaw(ctx, active)
			}),
		accessorCommand("first <n>", "First n customers, newest first", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				n, err := parseCount("n", args[0])
				if err != nil {
					return nil, err
				}
				return s.Customers.FirstN(ctx, n)
			}),
		accessorCommand("sorted-by-username", "All customers ordered by username", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Customers.SortedByUsername(ctx)
			}),
	)

	return customersCmd
}

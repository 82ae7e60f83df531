package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/ticketing"
)

func newStadiumsCommand() *cobra.Command {
	stadiumsCmd := &cobra.Command{
		Use:     "stadiums",
		Aliases: []string{"stadium"},
		Short:   "Query and update stadiums",
	}

	stadiumsCmd.AddCommand(
		accessorCommand("find-by-name <name> <min-capacity>", "Stadiums whose name contains name (any case) with capacity above min-capacity", cobra.ExactArgs(2),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				minCapacity, err := parseInt("min-capacity", args[1])
				if err != nil {
					return nil, err
				}
				return s.Stadiums.FindByNameAndMinCapacity(ctx, args[0], minCapacity)
			}),
		accessorCommand("double-capacity <min-capacity>", "Double the capacity of stadiums above min-capacity", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				minCapacity, err := parseInt("min-capacity", args[0])
				if err != nil {
					return nil, err
				}
				return bulk(s.Stadiums.DoubleCapacityAboveThreshold(ctx, minCapacity))
			}),
		accessorCommand("add-sold-tickets <event-id>", "Add the tickets sold for an event to its stadium's capacity", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				eventID, err := parseID("event-id", args[0])
				if err != nil {
					return nil, err
				}
				return bulk(s.Stadiums.IncreaseCapacityBySoldTickets(ctx, eventID))
			}),
		accessorCommand("list-without-address", "List stadiums without loading their address", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Stadiums.ListWithoutAddress(ctx)
			}),
		accessorCommand("find-by-min-capacity-raw <min-capacity>", "Stadiums above min-capacity, using literal SQL", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				minCapacity, err := parseInt("min-capacity", args[0])
				if err != nil {
					return nil, err
				}
				return s.Stadiums.FindByMinCapacityRaw(ctx, minCapacity)
			}),
		accessorCommand("top <n>", "The n largest stadiums", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				n, err := parseCount("n", args[0])
				if err != nil {
					return nil, err
				}
				return s.Stadiums.TopNByCapacity(ctx, n)
			}),
		accessorCommand("sorted-by-name", "All stadiums ordered by name", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Stadiums.SortedByName(ctx)
			}),
	)

	return stadiumsCmd
}

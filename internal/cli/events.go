package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/ticketing"
)

func newEventsCommand() *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event"},
		Short:   "Query and update events",
	}

	eventsCmd.AddCommand(
		accessorCommand("extend-dates <days>", "Move every event by days", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				days, err := parseInt("days", args[0])
				if err != nil {
					return nil, err
				}
				return bulk(s.Events.ExtendAllDatesBy(ctx, days))
			}),
		accessorCommand("deactivate-past", "Deactivate events dated before now", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return bulk(s.Events.DeactivatePastEvents(ctx))
			}),
		accessorCommand("append-stadium-name", "Append the stadium name to every event name", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return bulk(s.Events.AppendStadiumNameToEventName(ctx))
			}),
		accessorCommand("list-without-stadium", "List events without loading their stadium", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Events.ListWithoutStadium(ctx)
			}),
		accessorCommand("find-future-raw", "Future events as raw rows, using literal SQL", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Events.FindFutureRaw(ctx)
			}),
		accessorCommand("upcoming <limit>", "The next limit events from now", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				limit, err := parseCount("limit", args[0])
				if err != nil {
					return nil, err
				}
				return s.Events.Upcoming(ctx, limit)
			}),
		accessorCommand("sorted-by-name", "All events ordered by name", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Events.SortedByName(ctx)
			}),
	)

	return eventsCmd
}

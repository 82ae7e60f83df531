package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/ticketing"
)

func newTicketsCommand() *cobra.Command {
	ticketsCmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket"},
		Short:   "Query and update tickets",
	}

	ticketsCmd.AddCommand(
		accessorCommand("by-customer-or-event <customer-id> <event-id>", "Tickets owned by a customer or sold for an event", cobra.ExactArgs(2),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				customerID, err := parseID("customer-id", args[0])
				if err != nil {
					return nil, err
				}
				eventID, err := parseID("event-id", args[1])
				if err != nil {
					return nil, err
				}
				return s.Tickets.ByCustomerOrEvent(ctx, customerID, eventID)
			}),
		accessorCommand("recent-excluding-event <event-id> [days]", "Tickets bought recently for any other event", cobra.RangeArgs(1, 2),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				eventID, err := parseID("event-id", args[0])
				if err != nil {
					return nil, err
				}
				days := ticketing.DefaultRecentDays
				if len(args) > 1 {
					if days, err = parseInt("days", args[1]); err != nil {
						return nil, err
					}
				}
				return s.Tickets.RecentExcludingEvent(ctx, eventID, days)
			}),
		accessorCommand("apply-bulk-discount [days] [percent]", "Discount recently bought tickets", cobra.MaximumNArgs(2),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				days := ticketing.DefaultRecentDays
				percent := float64(ticketing.DefaultDiscountPercent)
				var err error
				if len(args) > 0 {
					if days, err = parseInt("days", args[0]); err != nil {
						return nil, err
					}
				}
				if len(args) > 1 {
					if percent, err = strconv.ParseFloat(args[1], 64); err != nil {
						return nil, err
					}
				}
				return bulk(s.Tickets.ApplyBulkDiscount(ctx, days, percent))
			}),
		accessorCommand("transfer <old-customer-id> <new-customer-id>", "Move every ticket from one customer to another", cobra.ExactArgs(2),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				oldID, err := parseID("old-customer-id", args[0])
				if err != nil {
					return nil, err
				}
				newID, err := parseID("new-customer-id", args[1])
				if err != nil {
					return nil, err
				}
				return bulk(s.Tickets.TransferOwnership(ctx, oldID, newID))
			}),
		accessorCommand("list-without-event", "List tickets without loading their event", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				return s.Tickets.ListWithoutEvent(ctx)
			}),
		accessorCommand("find-by-event-raw <event-id>", "Tickets for an event, using literal SQL", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				eventID, err := parseID("event-id", args[0])
				if err != nil {
					return nil, err
				}
				return s.Tickets.FindByEventRaw(ctx, eventID)
			}),
		accessorCommand("most-recent <limit>", "The limit most recently bought tickets", cobra.ExactArgs(1),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				limit, err := parseCount("limit", args[0])
				if err != nil {
					return nil, err
				}
				tickets, err := s.Tickets.MostRecent(ctx, limit)
				if err != nil {
					return nil, err
				}
				return describeTickets(ctx, s, tickets)
			}),
		accessorCommand("sorted-by-customer-name", "All tickets ordered by their owner's first name", cobra.ExactArgs(0),
			func(ctx context.Context, s *ticketing.Store, args []string) (interface{}, error) {
				tickets, err := s.Tickets.SortedByCustomerName(ctx)
				if err != nil {
					return nil, err
				}
				return describeTickets(ctx, s, tickets)
			}),
	)

	return ticketsCmd
}

type describedTicket struct {
	ticketing.Ticket `yaml:",inline"`
	Description      string `yaml:"description"`
}

// describeTickets loads relations so each ticket carries its display string.
func describeTickets(ctx context.Context, s *ticketing.Store, tickets []ticketing.Ticket) ([]describedTicket, error) {
	if err := s.Tickets.LoadRelations(ctx, tickets); err != nil {
		return nil, err
	}
	out := make([]describedTicket, len(tickets))
	for i, t := range tickets {
		out[i] = describedTicket{Ticket: t, Description: t.String()}
	}
	return out, nil
}

package ticketing

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/boxoffice/internal/clock"
	"github.com/eleven-am/boxoffice/pkg/orm"
)

const (
	DefaultRecentDays      = 30
	DefaultDiscountPercent = 10
)

type Ticket struct {
	ID         int64     `db:"id" yaml:"id"`
	CustomerID int64     `db:"customer_id" yaml:"customer_id" validate:"required"`
	EventID    int64     `db:"event_id" yaml:"event_id,omitempty" validate:"required"`
	BoughtAt   time.Time `db:"bought_at" yaml:"bought_at" validate:"required"`

	// Filled by TicketRepository.LoadRelations
	Customer *Customer `db:"-" yaml:"-" validate:"-"`
	Event    *Event    `db:"-" yaml:"-" validate:"-"`
}

// String renders "<customer> -- <event>", falling back to ids for relations
// that have not been loaded.
func (t Ticket) String() string {
	customer := fmt.Sprintf("customer #%d", t.CustomerID)
	if t.Customer != nil {
		customer = t.Customer.String()
	}
	event := fmt.Sprintf("event #%d", t.EventID)
	if t.Event != nil {
		event = t.Event.String()
	}
	return customer + " -- " + event
}

// Tickets holds the typed columns of the ticket table.
var Tickets = struct {
	ID         orm.NumericColumn[int64]
	CustomerID orm.NumericColumn[int64]
	EventID    orm.NumericColumn[int64]
	BoughtAt   orm.TimeColumn

	// Price is referenced by ApplyBulkDiscount but has no backing column.
	Price orm.NumericColumn[float64]
}{
	ID:         orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "id", Table: "ticket"}}},
	CustomerID: orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "customer_id", Table: "ticket"}}},
	EventID:    orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: "event_id", Table: "ticket"}}},
	BoughtAt:   orm.TimeColumn{ComparableColumn: orm.ComparableColumn[time.Time]{Column: orm.Column[time.Time]{Name: "bought_at", Table: "ticket"}}},
	Price:      orm.NumericColumn[float64]{ComparableColumn: orm.ComparableColumn[float64]{Column: orm.Column[float64]{Name: "price", Table: "ticket"}}},
}

var ticketMetadata = orm.Metadata{
	Table:   orm.Table{Name: "ticket", PrimaryKey: "id"},
	Columns: []string{"id", "customer_id", "event_id", "bought_at"},
}

const findTicketsByEventSQL = `SELECT * FROM ticket WHERE event_id = $1`

type TicketRepository struct {
	*orm.Repository[Ticket]
	customers *orm.Repository[Customer]
	events    *orm.Repository[Event]
	clock     clock.Clock
}

func newTicketRepository(tickets *orm.Repository[Ticket], customers *orm.Repository[Customer], events *orm.Repository[Event], c clock.Clock) *TicketRepository {
	return &TicketRepository{
		Repository: tickets,
		customers:  customers,
		events:     events,
		clock:      c,
	}
}

func (r *TicketRepository) since(days int) time.Time {
	return r.clock.Now().AddDate(0, 0, -days)
}

func (r *TicketRepository) ByCustomerOrEvent(ctx context.Context, customerID, eventID int64) ([]Ticket, error) {
	return r.Query(ctx).
		Where(orm.Or(
			Tickets.CustomerID.Eq(customerID),
			Tickets.EventID.Eq(eventID),
		)).
		Find()
}

// RecentExcludingEvent returns tickets bought within the last days days for
// any event other than eventID.
func (r *TicketRepository) RecentExcludingEvent(ctx context.Context, eventID int64, days int) ([]Ticket, error) {
	return r.Query(ctx).
		Where(Tickets.BoughtAt.Since(r.since(days))).
		Where(orm.Not(Tickets.EventID.Eq(eventID))).
		Find()
}

// ApplyBulkDiscount reduces the price of tickets bought within the last days
// days by discountPercent. The ticket table has no price column, so the
// statement fails with orm.ErrUndefinedColumn.
func (r *TicketRepository) ApplyBulkDiscount(ctx context.Context, days int, discountPercent float64) (int64, error) {
	factor := 1 - discountPercent/100
	return r.Query(ctx).
		Where(Tickets.BoughtAt.Since(r.since(days))).
		Update(map[string]interface{}{
			Tickets.Price.Name: Tickets.Price.Mul(factor),
		})
}

// TransferOwnership moves every ticket owned by oldCustomerID to newCustomerID.
func (r *TicketRepository) TransferOwnership(ctx context.Context, oldCustomerID, newCustomerID int64) (int64, error) {
	return r.Query(ctx).
		Where(Tickets.CustomerID.Eq(oldCustomerID)).
		Update(map[string]interface{}{
			Tickets.CustomerID.Name: newCustomerID,
		})
}

// ListWithoutEvent loads every ticket except for the event reference.
func (r *TicketRepository) ListWithoutEvent(ctx context.Context) ([]Ticket, error) {
	return r.Query(ctx).Omit(Tickets.EventID.Name).Find()
}

func (r *TicketRepository) FindByEventRaw(ctx context.Context, eventID int64) ([]Ticket, error) {
	return r.Raw(ctx, findTicketsByEventSQL, eventID)
}

func (r *TicketRepository) MostRecent(ctx context.Context, limit uint64) ([]Ticket, error) {
	return r.Query(ctx).
		OrderBy(Tickets.BoughtAt.Desc()).
		Limit(limit).
		Find()
}

// SortedByCustomerName orders tickets by their owner's first name.
func (r *TicketRepository) SortedByCustomerName(ctx context.Context) ([]Ticket, error) {
	return r.Query(ctx).
		InnerJoin("customer", Customers.ID.String()+" = "+Tickets.CustomerID.String()).
		OrderBy(Customers.FirstName.Asc()).
		Find()
}

// LoadRelations fills Customer and Event on each ticket with one query per
// relation.
func (r *TicketRepository) LoadRelations(ctx context.Context, tickets []Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	customerIDs := make([]int64, 0, len(tickets))
	eventIDs := make([]int64, 0, len(tickets))
	seenCustomers := make(map[int64]struct{})
	seenEvents := make(map[int64]struct{})
	for _, t := range tickets {
		if _, ok := seenCustomers[t.CustomerID]; !ok {
			seenCustomers[t.CustomerID] = struct{}{}
			customerIDs = append(customerIDs, t.CustomerID)
		}
		if _, ok := seenEvents[t.EventID]; !ok && t.EventID != 0 {
			seenEvents[t.EventID] = struct{}{}
			eventIDs = append(eventIDs, t.EventID)
		}
	}

	customers, err := r.customers.Query(ctx).Where(Customers.ID.In(customerIDs...)).Find()
	if err != nil {
		return fmt.Errorf("load ticket customers: %w", err)
	}
	byCustomer := make(map[int64]*Customer, len(customers))
	for i := range customers {
		byCustomer[customers[i].ID] = &customers[i]
	}

	byEvent := make(map[int64]*Event)
	if len(eventIDs) > 0 {
		events, err := r.events.Query(ctx).Where(Events.ID.In(eventIDs...)).Find()
		if err != nil {
			return fmt.Errorf("load ticket events: %w", err)
		}
		for i := range events {
			byEvent[events[i].ID] = &events[i]
		}
	}

	for i := range tickets {
		tickets[i].Customer = byCustomer[tickets[i].CustomerID]
		tickets[i].Event = byEvent[tickets[i].EventID]
	}
	return nil
}

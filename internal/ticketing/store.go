package ticketing

import (
	"context"
	"fmt"

	"github.com/eleven-am/boxoffice/internal/clock"
	"github.com/eleven-am/boxoffice/pkg/orm"
)

// Store bundles the ticketing repositories over a single session.
type Store struct {
	session *orm.Session
	opts    storeOptions

	Customers *CustomerRepository
	Stadiums  *StadiumRepository
	Events    *EventRepository
	Tickets   *TicketRepository
}

type storeOptions struct {
	clock      clock.Clock
	middleware []orm.QueryMiddleware
}

type Option func(*storeOptions)

// WithClock sets the clock used for every "now" comparison. Defaults to the
// system clock.
func WithClock(c clock.Clock) Option {
	return func(o *storeOptions) {
		o.clock = c
	}
}

// WithMiddleware registers middleware on every repository, first outermost.
func WithMiddleware(middleware ...orm.QueryMiddleware) Option {
	return func(o *storeOptions) {
		o.middleware = append(o.middleware, middleware...)
	}
}

func NewStore(session *orm.Session, opts ...Option) (*Store, error) {
	if session == nil {
		return nil, fmt.Errorf("ticketing store requires a session")
	}

	o := storeOptions{clock: clock.NewSystem()}
	for _, opt := range opts {
		opt(&o)
	}

	return newStore(session, o)
}

func newStore(session *orm.Session, o storeOptions) (*Store, error) {
	db := session.Executor()

	customers, err := newCustomerRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer repository: %w", err)
	}

	tickets, err := orm.NewRepository[Ticket](db, ticketMetadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket repository: %w", err)
	}

	stadiums, err := newStadiumRepository(db, tickets)
	if err != nil {
		return nil, fmt.Errorf("failed to create stadium repository: %w", err)
	}

	events, err := newEventRepository(db, o.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create event repository: %w", err)
	}

	for _, mw := range o.middleware {
		customers.AddMiddleware(mw)
		stadiums.AddMiddleware(mw)
		events.AddMiddleware(mw)
		tickets.AddMiddleware(mw)
	}

	return &Store{
		session:   session,
		opts:      o,
		Customers: customers,
		Stadiums:  stadiums,
		Events:    events,
		Tickets:   newTicketRepository(tickets, customers.Repository, events.Repository, o.clock),
	}, nil
}

func (s *Store) Session() *orm.Session {
	return s.session
}

// WithTransaction runs fn with a store bound to one transaction. Nested calls
// join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(*Store) error) error {
	return s.session.WithTransaction(ctx, func(tx *orm.Session) error {
		txStore, err := newStore(tx, s.opts)
		if err != nil {
			return err
		}
		return fn(txStore)
	})
}

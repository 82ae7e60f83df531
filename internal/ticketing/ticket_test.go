package ticketing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/boxoffice/pkg/orm"
)

func ticketRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "event_id", "bought_at"})
}

func TestTicketString(t *testing.T) {
	ticket := Ticket{CustomerID: 1, EventID: 2}
	assert.Equal(t, "customer #1 -- event #2", ticket.String())

	ticket.Customer = &Customer{FirstName: "Nino", Email: "nino@example.com"}
	ticket.Event = &Event{Name: "Derby"}
	assert.Equal(t, "Nino -- Derby", ticket.String())
}

func TestTicketAccessors(t *testing.T) {
	ctx := context.Background()
	monthAgo := testNow.AddDate(0, 0, -DefaultRecentDays)

	t.Run("ByCustomerOrEvent", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery("SELECT " + ticketCols + " FROM ticket WHERE ((ticket.customer_id = $1 OR ticket.event_id = $2))").
			WithArgs(int64(1), int64(2)).
			WillReturnRows(ticketRows().
				AddRow(1, 1, 9, testNow).
				AddRow(2, 5, 2, testNow))

		got, err := store.Tickets.ByCustomerOrEvent(ctx, 1, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("RecentExcludingEvent", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery("SELECT "+ticketCols+" FROM ticket WHERE (ticket.bought_at >= $1 AND NOT (ticket.event_id = $2))").
			WithArgs(monthAgo, int64(2)).
			WillReturnRows(ticketRows().AddRow(3, 1, 4, testNow.Add(-time.Hour)))

		got, err := store.Tickets.RecentExcludingEvent(ctx, 2, DefaultRecentDays)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotEqual(t, int64(2), got[0].EventID)
	})

	t.Run("ApplyBulkDiscount fails on the missing price column", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectExec("UPDATE ticket SET price = price * $1 WHERE (ticket.bought_at >= $2)").
			WithArgs(1-float64(DefaultDiscountPercent)/100, monthAgo).
			WillReturnError(&pq.Error{
				Code:    "42703",
				Message: `column "price" of relation "ticket" does not exist`,
			})

		_, err := store.Tickets.ApplyBulkDiscount(ctx, DefaultRecentDays, DefaultDiscountPercent)
		assert.ErrorIs(t, err, orm.ErrUndefinedColumn)

		var ormErr *orm.Error
		require.ErrorAs(t, err, &ormErr)
		assert.Equal(t, "ticket", ormErr.Table)
		assert.Equal(t, "price", ormErr.Column)
	})

	t.Run("TransferOwnership", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectExec("UPDATE ticket SET customer_id = $1 WHERE (ticket.customer_id = $2)").
			WithArgs(int64(9), int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := store.Tickets.TransferOwnership(ctx, 4, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("ListWithoutEvent", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery("SELECT ticket.id, ticket.customer_id, ticket.bought_at FROM ticket").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "bought_at"}).AddRow(1, 2, testNow))

		got, err := store.Tickets.ListWithoutEvent(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Zero(t, got[0].EventID)
	})

	t.Run("FindByEventRaw", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery("SELECT * FROM ticket WHERE event_id = $1").
			WithArgs(int64(3)).
			WillReturnRows(ticketRows().AddRow(1, 2, 3, testNow))

		got, err := store.Tickets.FindByEventRaw(ctx, 3)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(3), got[0].EventID)
	})

	t.Run("MostRecent", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery("SELECT " + ticketCols + " FROM ticket ORDER BY ticket.bought_at DESC LIMIT 3").
			WillReturnRows(ticketRows())

		_, err := store.Tickets.MostRecent(ctx, 3)
		require.NoError(t, err)
	})

	t.Run("SortedByCustomerName", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery("SELECT " + ticketCols + " FROM ticket INNER JOIN customer ON customer.id = ticket.customer_id ORDER BY customer.first_name ASC").
			WillReturnRows(ticketRows().AddRow(1, 2, 3, testNow))

		got, err := store.Tickets.SortedByCustomerName(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("LoadRelations", func(t *testing.T) {
		store, mock := newTestStore(t)

		tickets := []Ticket{
			{ID: 1, CustomerID: 10, EventID: 20},
			{ID: 2, CustomerID: 11, EventID: 20},
			{ID: 3, CustomerID: 10, EventID: 21},
		}

		mock.ExpectQuery("SELECT "+customerCols+" FROM customer WHERE (customer.id IN ($1,$2)) ORDER BY customer.id DESC").
			WithArgs(int64(10), int64(11)).
			WillReturnRows(customerRows().
				AddRow(11, "b", "", "b@example.com", true).
				AddRow(10, "a", "Ana", "a@example.com", true))
		mock.ExpectQuery("SELECT "+eventCols+" FROM event WHERE (event.id IN ($1,$2))").
			WithArgs(int64(20), int64(21)).
			WillReturnRows(eventRows().
				AddRow(20, "Derby", testNow, 1, true).
				AddRow(21, "Final", testNow, 1, true))

		require.NoError(t, store.Tickets.LoadRelations(ctx, tickets))

		assert.Equal(t, "Ana -- Derby", tickets[0].String())
		assert.Equal(t, "b@example.com -- Derby", tickets[1].String())
		assert.Equal(t, "Ana -- Final", tickets[2].String())
	})

	t.Run("LoadRelations without tickets issues no query", func(t *testing.T) {
		store, _ := newTestStore(t)
		assert.NoError(t, store.Tickets.LoadRelations(ctx, nil))
	})
}

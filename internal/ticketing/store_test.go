package ticketing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/boxoffice/internal/clock"
	"github.com/eleven-am/boxoffice/pkg/orm"
)

var testNow = time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)

const (
	customerCols = "customer.id, customer.username, customer.first_name, customer.email, customer.is_active"
	stadiumCols  = "stadium.id, stadium.name, stadium.address, stadium.capacity"
	eventCols    = "event.id, event.name, event.date, event.stadium_id, event.is_active"
	ticketCols   = "ticket.id, ticket.customer_id, ticket.event_id, ticket.bought_at"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	opts = append([]Option{WithClock(clock.NewFixed(testNow))}, opts...)
	store, err := NewStore(orm.NewSession(sqlx.NewDb(db, "postgres")), opts...)
	require.NoError(t, err)

	return store, mock
}

func TestNewStoreRequiresSession(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestStoreMiddleware(t *testing.T) {
	var seen []string
	mw := func(next orm.QueryMiddlewareFunc) orm.QueryMiddlewareFunc {
		return func(ctx *orm.MiddlewareContext) error {
			seen = append(seen, ctx.TableName+":"+string(ctx.Operation))
			return next(ctx)
		}
	}

	store, mock := newTestStore(t, WithMiddleware(mw))
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT(*) FROM ticket WHERE (ticket.event_id = $1)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("UPDATE stadium SET capacity = capacity + $1 WHERE (stadium.id IN (SELECT stadium_id FROM event WHERE id = $2))").
		WithArgs(int64(0), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.Stadiums.IncreaseCapacityBySoldTickets(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"ticket:count", "stadium:update_many"}, seen)
}

func TestStoreWithTransaction(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE ticket SET customer_id = $1 WHERE (ticket.customer_id = $2)").
			WithArgs(int64(2), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := store.WithTransaction(context.Background(), func(tx *Store) error {
			assert.True(t, tx.Session().InTransaction())
			n, err := tx.Tickets.TransferOwnership(context.Background(), 1, 2)
			assert.Equal(t, int64(3), n)
			return err
		})
		require.NoError(t, err)
		assert.False(t, store.Session().InTransaction())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		store, mock := newTestStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithTransaction(context.Background(), func(tx *Store) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nested calls share the transaction", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := store.WithTransaction(context.Background(), func(outer *Store) error {
			return outer.WithTransaction(context.Background(), func(inner *Store) error {
				assert.Same(t, outer.Session().Executor(), inner.Session().Executor())
				return nil
			})
		})
		require.NoError(t, err)
	})
}

package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_ticketing.sql"}, names)
}

func TestSchemaReferentialActions(t *testing.T) {
	content, err := files.ReadFile("sql/0001_ticketing.sql")
	require.NoError(t, err)
	ddl := string(content)

	for _, table := range Tables {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}

	// only ticket.event_id cascades
	assert.Equal(t, 1, strings.Count(ddl, "ON DELETE"))
	assert.Contains(t, ddl, "REFERENCES event (id) ON DELETE CASCADE")
	assert.Equal(t, 3, strings.Count(ddl, "DEFERRABLE INITIALLY DEFERRED"))
	assert.Contains(t, ddl, "CONSTRAINT customer_email_key UNIQUE (email)")
}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestApply(t *testing.T) {
	t.Run("applies pending files", func(t *testing.T) {
		db, mock := newMock(t)

		mock.ExpectExec(`SELECT pg_advisory_lock\(\$1\)`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_ticketing.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS customer`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("0001_ticketing.sql").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).WithArgs(advisoryLockID).WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := Apply(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, []string{"0001_ticketing.sql"}, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips recorded files", func(t *testing.T) {
		db, mock := newMock(t)

		mock.ExpectExec(`SELECT pg_advisory_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("0001_ticketing.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec(`SELECT pg_advisory_unlock`).WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := Apply(context.Background(), db)
		require.NoError(t, err)
		assert.Empty(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock failure", func(t *testing.T) {
		db, mock := newMock(t)

		mock.ExpectExec(`SELECT pg_advisory_lock`).WillReturnError(assert.AnError)

		_, err := Apply(context.Background(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acquire schema lock")
	})
}

package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/eleven-am/boxoffice/internal/database"
	"github.com/eleven-am/boxoffice/pkg/boxoffice"
)

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func findCommand(root *cobra.Command, path ...string) *cobra.Command {
	cmd, _, err := root.Find(path)
	if err != nil {
		return nil
	}
	return cmd
}

// withMockDB points every command at a sqlmock database for one test.
func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	saved := openDB
	openDB = func(ctx context.Context, cfg *database.DBConfig) (*sqlx.DB, error) {
		return sqlx.NewDb(db, "postgres"), nil
	}
	t.Cleanup(func() {
		openDB = saved
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	return mock
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	t.Run("creates root command", func(t *testing.T) {
		cmd := NewRootCommand()
		require.NotNil(t, cmd)
		assert.Equal(t, "boxoffice", cmd.Use)
		assert.Equal(t, boxoffice.Version, cmd.Version)
	})

	t.Run("has expected subcommands", func(t *testing.T) {
		cmd := NewRootCommand()
		for _, name := range []string{"schema", "customers", "stadiums", "events", "tickets", "worker", "version"} {
			assert.NotNil(t, findCommand(cmd, name), name)
		}
	})

	t.Run("every accessor has a command", func(t *testing.T) {
		cmd := NewRootCommand()
		expected := map[string][]string{
			"customers": {"find-by-username", "copy-email-into-username", "deactivate-short-usernames", "list-without-email", "find-active-raw", "first", "sorted-by-username"},
			"stadiums":  {"find-by-name", "double-capacity", "add-sold-tickets", "list-without-address", "find-by-min-capacity-raw", "top", "sorted-by-name"},
			"events":    {"extend-dates", "deactivate-past", "append-stadium-name", "list-without-stadium", "find-future-raw", "upcoming", "sorted-by-name"},
			"tickets":   {"by-customer-or-event", "recent-excluding-event", "apply-bulk-discount", "transfer", "list-without-event", "find-by-event-raw", "most-recent", "sorted-by-customer-name"},
		}

		for group, subs := range expected {
			for _, sub := range subs {
				found := findCommand(cmd, group, sub)
				if assert.NotNil(t, found, group+" "+sub) {
					assert.Equal(t, sub, found.Name())
				}
			}
		}
	})

	t.Run("has global flags", func(t *testing.T) {
		cmd := NewRootCommand()
		for _, flag := range []string{"config", "url", "debug", "verbose"} {
			assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "boxoffice "+boxoffice.Version)
}

func TestAccessorCommands(t *testing.T) {
	t.Run("list output is YAML", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectQuery("SELECT customer.id, customer.username, customer.first_name, customer.email, customer.is_active FROM customer ORDER BY customer.id DESC LIMIT 2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "email", "is_active"}).
				AddRow(2, "bob", "Bob", "bob@example.com", true).
				AddRow(1, "ana", "", "ana@example.com", false))
		mock.ExpectClose()

		out, err := execute(t, "--url", "postgres://mock", "customers", "first", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "- id: 2\n  username: bob\n")
		assert.Contains(t, out, "email: ana@example.com")
	})

	t.Run("bulk output reports rows affected", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectExec("UPDATE stadium SET capacity = capacity * $1 WHERE (stadium.capacity > $2)").
			WithArgs(2, 1000).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectClose()

		out, err := execute(t, "--url", "postgres://mock", "stadiums", "double-capacity", "1000")
		require.NoError(t, err)
		assert.Equal(t, "rows_affected: 3\n", out)
	})

	t.Run("ticket listings carry descriptions", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectQuery("SELECT ticket.id, ticket.customer_id, ticket.event_id, ticket.bought_at FROM ticket ORDER BY ticket.bought_at DESC LIMIT 1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "event_id", "bought_at"}).
				AddRow(1, 10, 20, time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)))
		mock.ExpectQuery("SELECT customer.id, customer.username, customer.first_name, customer.email, customer.is_active FROM customer WHERE (customer.id IN ($1)) ORDER BY customer.id DESC").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "email", "is_active"}).
				AddRow(10, "ana", "Ana", "ana@example.com", true))
		mock.ExpectQuery("SELECT event.id, event.name, event.date, event.stadium_id, event.is_active FROM event WHERE (event.id IN ($1))").
			WithArgs(int64(20)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "date", "stadium_id", "is_active"}))
		mock.ExpectClose()

		out, err := execute(t, "--url", "postgres://mock", "tickets", "most-recent", "1")
		require.NoError(t, err)
		var listed []map[string]interface{}
		require.NoError(t, yaml.Unmarshal([]byte(out), &listed))
		require.Len(t, listed, 1)
		assert.Equal(t, "Ana -- event #20", listed[0]["description"])
		assert.Equal(t, 10, listed[0]["customer_id"])
	})

	t.Run("invalid arguments never reach the database", func(t *testing.T) {
		mock := withMockDB(t)
		mock.ExpectClose()

		_, err := execute(t, "--url", "postgres://mock", "tickets", "transfer", "one", "2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid old-customer-id")
	})

	t.Run("wrong argument count", func(t *testing.T) {
		_, err := execute(t, "--url", "postgres://mock", "events", "upcoming")
		assert.Error(t, err)
	})

	t.Run("missing database URL", func(t *testing.T) {
		chdir(t, t.TempDir())
		_, err := execute(t, "events", "sorted-by-name")
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "database URL is required"))
	})
}

func TestParseHelpers(t *testing.T) {
	_, err := parseID("event-id", "0")
	assert.Error(t, err)

	id, err := parseID("event-id", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseCount("n", "-1")
	assert.Error(t, err)

	n, err := parseInt("days", "-3")
	require.NoError(t, err)
	assert.Equal(t, -3, n)
}

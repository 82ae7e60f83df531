package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eleven-am/boxoffice/internal/config"
	"github.com/eleven-am/boxoffice/internal/database"
	"github.com/eleven-am/boxoffice/internal/logger"
	"github.com/eleven-am/boxoffice/internal/ticketing"
	"github.com/eleven-am/boxoffice/pkg/orm"
)

// openDB is replaced in tests.
var openDB = func(ctx context.Context, cfg *database.DBConfig) (*sqlx.DB, error) {
	return cfg.Connect(ctx)
}

func dbConfig(cfg *config.Config) *database.DBConfig {
	dbCfg := database.NewDBConfig(cfg.Database.URL)
	dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.StatementTimeout = cfg.Database.StatementTimeout
	return dbCfg
}

func connect(ctx context.Context) (*sqlx.DB, error) {
	if appConfig == nil {
		appConfig = config.Default()
	}
	if appConfig.Database.URL == "" {
		return nil, fmt.Errorf("database URL is required (use --url, DATABASE_URL or database.url in boxoffice.yaml)")
	}
	return openDB(ctx, dbConfig(appConfig))
}

func openStore(ctx context.Context, opts ...ticketing.Option) (*ticketing.Store, *sqlx.DB, error) {
	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]ticketing.Option{ticketing.WithMiddleware(logger.QueryMiddleware(logger.ORM()))}, opts...)
	store, err := ticketing.NewStore(orm.NewSession(db), opts...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// accessorFunc runs one store accessor and returns what should be printed.
type accessorFunc func(ctx context.Context, store *ticketing.Store, args []string) (interface{}, error)

// accessorCommand builds a subcommand that opens the store, runs fn and prints
// its result as YAML.
func accessorCommand(use, short string, args cobra.PositionalArgs, fn accessorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := fn(ctx, store, args)
			if err != nil {
				return err
			}
			return printYAML(cmd, result)
		},
	}
}

type rowsAffected struct {
	RowsAffected int64 `yaml:"rows_affected"`
}

// bulk adapts a bulk update to an accessorFunc result.
func bulk(n int64, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return rowsAffected{RowsAffected: n}, nil
}

func printYAML(cmd *cobra.Command, v interface{}) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

func parseInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, value)
	}
	return n, nil
}

func parseID(name, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	return n, nil
}

func parseCount(name, value string) (uint64, error) {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	return n, nil
}

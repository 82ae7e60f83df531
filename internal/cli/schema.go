package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/schema"
)

func newSchemaCommand() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the ticketing schema",
	}

	var createDatabase bool

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the ticketing tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if createDatabase {
				if appConfig == nil || appConfig.Database.URL == "" {
					return fmt.Errorf("database URL is required to create the database")
				}
				created, err := dbConfig(appConfig).EnsureExists(ctx)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintln(cmd.OutOrStdout(), "Created database")
				}
			}

			db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := schema.Apply(ctx, db)
			if err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}

			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
			}
			return nil
		},
	}
	applyCmd.Flags().BoolVar(&createDatabase, "create-database", false, "Create the target database first if the server does not have it")

	schemaCmd.AddCommand(applyCmd)
	return schemaCmd
}

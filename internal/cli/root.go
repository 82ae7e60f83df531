package cli

import (
	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/config"
	"github.com/eleven-am/boxoffice/pkg/boxoffice"
)

// Global configuration variables
var (
	configFile  string
	appConfig   *config.Config
	databaseURL string
	debug       bool
	verbose     bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "boxoffice",
		Short: "boxoffice - ticketing data layer",
		Long: `boxoffice manages the customers, stadiums, events and tickets of a
ticketing database.

It provides:
- Schema bootstrap for the four ticketing tables
- One command per query accessor, printing results as YAML
- A worker that deactivates past events on a schedule`,
		Version:       boxoffice.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: boxoffice.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newCustomersCommand())
	rootCmd.AddCommand(newStadiumsCommand())
	rootCmd.AddCommand(newEventsCommand())
	rootCmd.AddCommand(newTicketsCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

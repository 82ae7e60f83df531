package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/pkg/boxoffice"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display boxoffice version and build information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), boxoffice.FullVersionInfo())
	},
}

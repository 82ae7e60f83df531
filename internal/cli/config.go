package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/boxoffice/internal/config"
	"github.com/eleven-am/boxoffice/internal/logger"
)

// loadConfig resolves the configuration for a command run. Precedence, lowest
// first: defaults, config file, environment, command-line flags.
func loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if databaseURL != "" {
		cfg.Database.URL = databaseURL
	}

	level := cfg.Log.Level
	switch {
	case verbose:
		level = "debug"
	case debug:
		level = "info"
	}

	if err := logger.Configure(logger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return fmt.Errorf("invalid log settings: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if path := config.Path(); path != "" || configFile != "" {
		logger.CLI().Debug("Loaded configuration", "file", firstNonEmpty(configFile, path))
	}

	appConfig = cfg
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"procurement-backend/internal/config"
	"procurement-backend/internal/infrastructure/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "procurement-api",
		Short:        "Procurement approval workflow API",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "optional YAML config file; the environment overrides it")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// setup loads and validates the config, then builds the logger from it.
func setup(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

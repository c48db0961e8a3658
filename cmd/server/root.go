package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alem-hub/adaptive-learning/config"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "server",
		Short: "Adaptive learning hub",
		Long: `Adaptive learning hub connects the course catalog to an external
spaced-repetition service.

It lists pending revisions for a learner, forwards quiz results from the
tracking stream and keeps learners linked to review questions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment (default: .env if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console)")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newReviewsCommand(opts),
		newVersionCommand(),
	)
	return root
}

// load reads the dotenv file and the environment, then applies flag overrides.
func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, nil, fmt.Errorf("load env file %s: %w", o.envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.App.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.App.LogFormat = o.logFormat
	}

	log := logger.New(logger.Options{
		Level:   logger.ParseLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Service: cfg.App.Name,
	})
	return cfg, log, nil
}

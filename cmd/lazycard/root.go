package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lazycard/internal/config"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/platform/sqldb"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "lazycard",
		Short:         "Local spaced-repetition flashcards",
		Long:          "lazycard keeps flashcards in topics, schedules reviews with SM-2 and serves an optional local HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a config file (default: config.yaml in the working or data directory)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTopicCmd(opts),
		newCardCmd(opts),
		newDueCmd(opts),
		newReviewCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newRestoreCmd(opts),
		newStatsCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lazycard version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "lazycard %s\n", version)
			return err
		},
	}
}

// loadConfig loads the configuration and sets up the logger on the
// command's stderr.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	log, err := logger.SetupWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

// withApp migrates the database to the latest schema, builds the
// application and runs fn with it. The application is cleaned up afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *application) error) error {
	cfg, log, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := logger.WithLogger(cmd.Context(), log)

	db, err := sqldb.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if err := sqldb.Migrate(ctx, db, sqldb.MigrateUp, log); err != nil {
		_ = db.Close()
		return err
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return fn(ctx, app)
}

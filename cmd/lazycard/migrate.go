package main

import (
	"fmt"

	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/platform/sqldb"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect schema migrations",
		Long:      "migrate runs the embedded schema migrations. Without an argument it applies all pending migrations.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{sqldb.MigrateUp, sqldb.MigrateDown, sqldb.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := sqldb.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, log, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := logger.WithLogger(cmd.Context(), log)

			db, err := sqldb.Open(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := sqldb.Migrate(ctx, db, command, log); err != nil {
				return err
			}

			version, err := sqldb.SchemaVersion(ctx, db)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return err
		},
	}
}

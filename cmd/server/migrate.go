package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/altscribe/altscribe-api/internal/platform/docstore"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the document store schema",
		Long: `Applies, rolls back or lists the embedded migrations of the document
store named by storage.database_url. serve and worker apply pending
migrations on startup, so these commands are mainly for operators.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrationDB(opts, func(db *sql.DB, dialect docstore.Dialect, log *slog.Logger) error {
					return docstore.Migrate(cmd.Context(), db, dialect, log)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrationDB(opts, func(db *sql.DB, dialect docstore.Dialect, log *slog.Logger) error {
					return docstore.MigrateDown(cmd.Context(), db, dialect, log)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrationDB(opts, func(db *sql.DB, dialect docstore.Dialect, _ *slog.Logger) error {
					statuses, err := docstore.Status(cmd.Context(), db, dialect)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "VERSION\tSTATE\tFILE")
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, state, s.Path)
					}
					return w.Flush()
				})
			},
		},
	)
	return cmd
}

// withMigrationDB opens the configured database without migrating it and
// runs fn against it.
func withMigrationDB(opts *rootOptions, fn func(db *sql.DB, dialect docstore.Dialect, log *slog.Logger) error) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	if cfg.Storage.DatabaseURL == "" {
		return errors.New("storage.database_url is not configured")
	}

	dialect, dsn, err := docstore.ParseURL(cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	return fn(db, dialect, log)
}

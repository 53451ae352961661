package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cassa/internal/decode"
	"cassa/internal/log"
	"cassa/internal/storage"
)

func newMigrateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "migrate",
		Short:       "Manage the SQLite schema at SQLITE_DB_PATH",
		Annotations: map[string]string{skipBackend: "true"},
	}

	up := &cobra.Command{
		Use:         "up",
		Short:       "Apply every pending migration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipBackend: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.RunMigrations(app.cfg.SQLiteDBPath); err != nil {
				return err
			}
			return printVersion(cmd, app.cfg.SQLiteDBPath)
		},
	}

	down := &cobra.Command{
		Use:         "down [steps]",
		Short:       "Roll back migrations (default one step)",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipBackend: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			app.logger.Info("Rolling back migrations", log.FieldOperation, log.OpMigrate, "steps", steps)
			if err := storage.RollbackMigrations(app.cfg.SQLiteDBPath, steps); err != nil {
				return err
			}
			return printVersion(cmd, app.cfg.SQLiteDBPath)
		},
	}

	version := &cobra.Command{
		Use:         "version",
		Short:       "Print the current schema version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipBackend: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd, app.cfg.SQLiteDBPath)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, dbPath string) error {
	v, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", v, dirty)
	return nil
}

func newImportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "import <file>",
		Short:       "Import a YAML or JSON document into the SQLite database",
		Long:        "Import writes every entity of the document, replacing rows that share an id, in one transaction.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipBackend: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := decode.ReadFile(args[0])
			if err != nil {
				return err
			}
			ledger, err := doc.Ledger()
			if err != nil {
				return err
			}
			markets, err := doc.MarketSnapshot()
			if err != nil {
				return err
			}

			repo, err := storage.NewSQLiteRepository(app.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.ImportSnapshots(cmd.Context(), ledger, markets); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d pools, %d movements, %d markets, %d participations\n",
				len(ledger.Pools), len(ledger.Movements), len(markets.Markets), len(markets.Participations))
			return nil
		},
	}
}

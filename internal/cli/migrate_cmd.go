package cli

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	"github.com/cmlabs-hris/attendance-backend-go/migrations"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.migrate(cmd.Context())
		},
	}
}

func (app *App) migrate(ctx context.Context) error {
	cfg := app.Config
	log := app.Log.WithField("driver", cfg.Database.Driver)

	if cfg.Database.Driver == "sqlite" {
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return err
		}
		// the store auto-migrates its tables when it is built
		store, err := sqlite.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
		defer store.Close()

		log.WithField("path", cfg.Database.SQLitePath).Info("SQLite schema is up to date")
		return nil
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	applied, err := postgresql.Migrate(ctx, db, migrations.FS)
	if err != nil {
		return err
	}
	for _, name := range applied {
		log.WithFields(logrus.Fields{"migration": name}).Info("Applied migration")
	}
	log.WithField("count", len(applied)).Info("Migrations complete")
	return nil
}

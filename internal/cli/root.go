// Package cli implements the attendctl maintenance commands.
package cli

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/sqlite"
	shiftService "github.com/cmlabs-hris/attendance-backend-go/internal/service/shift"
	userService "github.com/cmlabs-hris/attendance-backend-go/internal/service/user"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// App holds what every command needs.
type App struct {
	Config *config.Config
	Log    *logrus.Logger
}

// NewRootCmd creates the top-level "attendctl" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "attendctl",
		Short:         "Maintenance commands for the attendance backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(app),
		newSeedCmd(app),
	)

	return root
}

// openSeeder connects to the configured database and returns a Seeder over
// it together with a function that releases the connection.
func (app *App) openSeeder() (*Seeder, func(), error) {
	cfg := app.Config
	loc := cfg.Location()

	switch cfg.Database.Driver {
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlite.NewStore(db)
		if err != nil {
			return nil, nil, err
		}
		seeder := NewSeeder(
			userService.NewUserService(store.Users, store.Shifts, store.Tokens, nil),
			shiftService.NewShiftService(store.Transactor, store.Shifts, store.Users, store.Attendances, loc),
			store.Users,
			store.Shifts,
			app.Log,
		)
		return seeder, func() { store.Close() }, nil
	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		users := postgresql.NewUserRepository(db)
		shifts := postgresql.NewShiftRepository(db)
		seeder := NewSeeder(
			userService.NewUserService(users, shifts, postgresql.NewTokenRepository(db), nil),
			shiftService.NewShiftService(postgresql.NewTransactor(db), shifts, users, postgresql.NewAttendanceRepository(db), loc),
			users,
			shifts,
			app.Log,
		)
		return seeder, db.Close, nil
	}
}

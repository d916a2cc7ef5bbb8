package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load shifts and users from a YAML seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := LoadSeedFile(file)
			if err != nil {
				return err
			}

			seeder, closeDB, err := app.openSeeder()
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := seeder.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}

			app.Log.WithFields(logrus.Fields{
				"file":           file,
				"shifts_created": result.ShiftsCreated,
				"shifts_skipped": result.ShiftsSkipped,
				"users_created":  result.UsersCreated,
				"users_skipped":  result.UsersSkipped,
			}).Info("Seed complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", app.Config.App.SeedFile, "path to the seed file")
	return cmd
}

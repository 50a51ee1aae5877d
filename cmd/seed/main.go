package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oggyb/leomatch/internal/config"
	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var minimal bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load demo profiles",
		Long: `seed wipes profiles, likes, super-likes and matches, then loads a demo dataset.

The default dataset has 24 complete profiles in three cities with random likes
and matches. --minimal loads three fixed profiles instead (two in lima, one in quito).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg := config.New()
			logger.InitFromConfig(cfg)
			log := logger.Named("seed")

			database, err := db.NewDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to init db: %w", err)
			}

			if minimal {
				err = db.SeedMinimalTestData(database)
			} else {
				err = db.SeedTestData(database, log)
			}
			if err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}

			log.Info("seeding completed", "driver", cfg.DB.Driver, "minimal", minimal)
			return nil
		},
	}

	cmd.Flags().BoolVar(&minimal, "minimal", false, "load the three-profile fixture instead of the demo dataset")
	return cmd
}

package main

import (
	"fmt"

	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/database"
	"github.com/article-ingest/pkg/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the document and run ledger schema",
	Long:      `Applies every pending migration (up, the default) or rolls back the most recent one (down).`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, err := config.ResolveDatabase(envFiles())
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)

	db, err := database.New(cmd.Context(), &cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "down":
		err = db.MigrateDown(cfg.Database.MigrationsPath)
	default:
		err = db.RunMigrations(cfg.Database.MigrationsPath)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", direction)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/article-ingest/internal/app"
	"github.com/article-ingest/internal/config"
	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "importer [flags] <file.json> [file.json ...]",
	Short: "Import article documents into the content store",
	Long: `Reads each file from the content directory, extracts the article JSON
(also when it is wrapped in prose or code fences), validates and
canonicalizes it, then writes it to the store. A failing file is reported
and the batch carries on.`,
	Args:          requireFiles,
	RunE:          runImport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagStrategy   string
	flagContentDir string
	flagBackend    string
	flagEnvFile    string
	flagDryRun     bool
	flagRecordRuns bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file to load (default: .env.local, ../.env.local, .env)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "store backend: sanity or postgres (overrides STORE_BACKEND)")

	rootCmd.Flags().StringVar(&flagStrategy, "strategy", "", "upsert strategy: replace or delete-create (overrides IMPORT_STRATEGY)")
	rootCmd.Flags().StringVar(&flagContentDir, "content-dir", "", "directory the file names are relative to (overrides CONTENT_DIR)")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "validate and canonicalize without writing")
	rootCmd.Flags().BoolVar(&flagRecordRuns, "record-runs", false, "record the run in the PostgreSQL ledger (overrides RECORD_RUNS)")

	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func requireFiles(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("at least one file is required\n\nUsage: " + cmd.UseLine())
	}
	return nil
}

// envFiles returns the dotenv candidates for the --env-file flag
func envFiles() []string {
	if flagEnvFile != "" {
		return []string{flagEnvFile}
	}
	return nil
}

// flagOverrides turns explicitly set flags into config overrides
func flagOverrides(cmd *cobra.Command) config.Override {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("backend") {
			cfg.Store.Backend = flagBackend
		}
		if flags.Changed("strategy") {
			cfg.Import.Strategy = flagStrategy
		}
		if flags.Changed("content-dir") {
			cfg.Import.ContentDir = flagContentDir
		}
		if flags.Changed("dry-run") {
			cfg.Import.DryRun = flagDryRun
		}
		if flags.Changed("record-runs") {
			cfg.Import.RecordRuns = flagRecordRuns
		}
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(envFiles(), flagOverrides(cmd))
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	if cfg.EnvFile != "" {
		log.Debug().Str("path", cfg.EnvFile).Msg("Loaded environment file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.Services.Import.Run(ctx, args)
	if run != nil {
		printReport(cmd, run)
	}
	if errors.Is(err, context.Canceled) {
		log.Warn().Msg("Import interrupted")
		return nil
	}
	return err
}

// printReport writes one line per article and a summary to stdout
func printReport(cmd *cobra.Command, run *models.Run) {
	out := cmd.OutOrStdout()
	for _, o := range run.Outcomes {
		fmt.Fprintln(out, o.String())
	}

	summary := fmt.Sprintf("%d imported, %d skipped, %d failed", run.ImportedCount, run.SkippedCount, run.FailedCount)
	if run.DryRun {
		summary += " (dry run)"
	}
	fmt.Fprintln(out, summary)
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svipsc/ranking/internal/config"
	"github.com/svipsc/ranking/internal/logging"
	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/publish"
	"github.com/svipsc/ranking/internal/rankings"
	"github.com/svipsc/ranking/internal/storage"
)

var (
	configPath string
	resultsDir string
	dataDir    string
	dbPath     string
	showStats  bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "publish",
	Short:        "Svenska IPSC Ranking - website update tool",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if resultsDir != "" {
			cfg.Publish.ResultsDir = resultsDir
		}
		if dataDir != "" {
			cfg.Data.Dir = dataDir
		}
		if dbPath != "" {
			cfg.Data.DBPath = dbPath
		}
		logger, err = logging.New(verbose || cfg.Verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy ranking files into the data directory, validate them and write metadata",
	RunE:  runPublish,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Only validate the existing data files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return validate(cfg.Registry())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the data directory into the SQLite mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		return importSnapshot(cmd, nil)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the data files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printStats()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Served data directory")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	runCmd.Flags().StringVar(&resultsDir, "results", "", "Directory with freshly generated ranking files")
	runCmd.Flags().BoolVar(&showStats, "stats", false, "Show statistics about the data files")
	runCmd.Flags().Bool("import", false, "Also import the published files into SQLite")

	rootCmd.AddCommand(runCmd, validateCmd, importCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	registry := cfg.Registry()

	copied, err := publish.CopyRankingFiles(cfg.Publish.ResultsDir, cfg.Data.Dir)
	for _, name := range copied {
		fmt.Printf("✓ Copied %s\n", name)
	}
	if err != nil {
		logger.Warn("Some files failed to copy", zap.Error(err))
	}
	if len(copied) == 0 {
		return fmt.Errorf("no files were copied from %s", cfg.Publish.ResultsDir)
	}

	if err := validate(registry); err != nil {
		return fmt.Errorf("validation failed after copying: %w", err)
	}

	meta, err := publish.WriteMetadata(cfg.Data.Dir, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Updated metadata with timestamp: %s\n", meta.LastUpdated)

	if doImport, _ := cmd.Flags().GetBool("import"); doImport {
		if err := importSnapshot(cmd, meta); err != nil {
			return err
		}
	}

	if showStats {
		if err := printStats(); err != nil {
			return err
		}
	}

	fmt.Printf("\n✓ Successfully updated website data (%d files)\n", len(copied))
	return nil
}

func validate(registry *models.Registry) error {
	report := publish.Validate(cfg.Data.Dir, registry)
	if report.OK() {
		fmt.Println("✓ All data files are valid")
		return nil
	}
	for _, name := range report.Missing {
		fmt.Printf("✗ Missing: %s\n", name)
	}
	for _, name := range report.Invalid {
		fmt.Printf("✗ Invalid: %s\n", name)
	}
	return fmt.Errorf("%d missing, %d invalid", len(report.Missing), len(report.Invalid))
}

func importSnapshot(cmd *cobra.Command, meta *models.Metadata) error {
	store, err := storage.New(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if meta == nil {
		meta, err = rankings.NewDirSource(os.DirFS(cfg.Data.Dir)).Metadata(cmd.Context())
		if err != nil {
			logger.Warn("Ignoring unreadable metadata", zap.Error(err))
		}
	}

	id, err := publish.Import(cmd.Context(), store, cfg.Data.Dir, cfg.Registry(), meta)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.Info("Imported snapshot", zap.String("id", id), zap.String("db", cfg.Data.DBPath))

	if keep := cfg.Publish.KeepSnapshots; keep > 0 {
		pruned, err := store.PruneSnapshots(cmd.Context(), keep)
		if err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		logger.Debug("Pruned snapshots", zap.Int64("deleted", pruned))
	}
	return nil
}

func printStats() error {
	stats, err := publish.Stats(cfg.Data.Dir, logger)
	if err != nil {
		return err
	}
	fmt.Println("\nData statistics:")
	for _, s := range stats {
		fmt.Printf("  %s: %d players, %.1f MB\n", s.Division, s.Players, float64(s.FileSize)/(1024*1024))
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svipsc/ranking/internal/api"
	"github.com/svipsc/ranking/internal/config"
	"github.com/svipsc/ranking/internal/logging"
	"github.com/svipsc/ranking/internal/rankings"
	"github.com/svipsc/ranking/internal/storage"
)

var (
	configPath string
	port       string
	dataDir    string
	dataURL    string
	dbPath     string
	sourceKind string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Serve the Svenska IPSC Ranking site",
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "YAML config file (optional)")
	rootCmd.Flags().StringVar(&port, "port", "", "Server port")
	rootCmd.Flags().StringVar(&sourceKind, "source", "", "Ranking source: dir, http or sqlite")
	rootCmd.Flags().StringVar(&dataDir, "data", "", "Ranking data directory")
	rootCmd.Flags().StringVar(&dataURL, "data-url", "", "Base URL of published ranking files")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(verbose || cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	source, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	opts := api.Options{
		Registry:       cfg.Registry(),
		Source:         source,
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	if cfg.Data.Source == config.SourceDir {
		opts.DataDir = cfg.Data.Dir
	}
	srv, err := api.New(opts)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Ranking site starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("source", cfg.Data.Source))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func applyFlags(cfg *config.Config) {
	if port != "" {
		cfg.Port = port
	}
	if sourceKind != "" {
		cfg.Data.Source = sourceKind
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if dataURL != "" {
		cfg.Data.BaseURL = dataURL
	}
	if dbPath != "" {
		cfg.Data.DBPath = dbPath
	}
}

func openSource(cfg *config.Config) (rankings.Source, func(), error) {
	switch cfg.Data.Source {
	case config.SourceHTTP:
		timeout, err := cfg.HTTPTimeout()
		if err != nil {
			return nil, nil, err
		}
		return rankings.NewHTTPSource(cfg.Data.BaseURL, &http.Client{Timeout: timeout}), func() {}, nil
	case config.SourceSQLite:
		store, err := storage.New(cfg.Data.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return rankings.NewDirSource(os.DirFS(cfg.Data.Dir)), func() {}, nil
	}
}

// Package cli implements the expenselens command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/expenselens/backend/internal/config"
	"github.com/expenselens/backend/internal/extraction"
	"github.com/expenselens/backend/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "expenselens",
	Short: "Document extraction and expense review backend",
	Long: `ExpenseLens ingests invoices and receipts, extracts structured fields,
normalizes them against UAE vendor and category rules, reconciles VAT,
and routes uncertain records through a guided human review flow.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to TOML config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore builds the configured persistence backend.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Backend == "sqlite" {
		return store.NewSQLiteStore(cfg.Store.Path)
	}
	return store.NewMemoryStore(), nil
}

func newExtractor(cfg *config.Config) *extraction.GeminiExtractor {
	return extraction.NewGeminiExtractor(cfg.Extraction.GeminiAPIKey, cfg.Extraction.Model)
}

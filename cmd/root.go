package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vivahvendors/vendor-crawler/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vendor-crawler",
	Short: "Wedding vendor listing ingestion pipeline",
	Long:  "Scrapes wedding vendor listings from Google Places, directories, vendor websites, and spreadsheets, then normalizes, deduplicates, and writes them to the vendor catalog.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

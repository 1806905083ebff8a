package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rangecast",
	Short: "Species distribution ensemble pipeline",
	Long:  "Rarefies occurrence records, samples background and pseudo-absence points from ecoregions, and combines per-model suitability rasters into consensus maps across climate scenarios.",
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
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full batch for every species",
	Long:  "Rarefies, samples, and combines every species in the occurrence directory across all configured scenarios, recording per-unit outcomes in the audit store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		for _, section := range []string{"study", "sampling", "ensemble", "pipeline"} {
			if err := cfg.Validate(section); err != nil {
				return err
			}
		}

		g, err := studyGrid(cfg)
		if err != nil {
			return err
		}
		regions, err := loadRegions(cfg)
		if err != nil {
			return err
		}
		scenarios, err := loadScenarios(cfg)
		if err != nil {
			return err
		}

		audit, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer audit.Close() //nolint:errcheck

		out, err := fileOutputs(cfg)
		if err != nil {
			return err
		}

		p, err := pipeline.New(cfg, g, regions, scenarios, fileSources(cfg), out, audit)
		if err != nil {
			return err
		}

		summary, err := p.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.String("run_id", summary.RunID),
			zap.Int64("succeeded", summary.Succeeded),
			zap.Int64("skipped", summary.Skipped),
			zap.Int64("failed", summary.Failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

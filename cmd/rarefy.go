package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/rarefy"
)

var rarefyCmd = &cobra.Command{
	Use:   "rarefy",
	Short: "Rarefy occurrence records to one per grid cell",
	Long:  "Reads an occurrence CSV, keeps the first record per grid cell, drops points outside the study area, and writes the thinned set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("study"); err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		minCount, _ := cmd.Flags().GetInt("min")
		if minCount == 0 {
			minCount = cfg.Study.MinOccurrence
		}

		g, err := studyGrid(cfg)
		if err != nil {
			return err
		}

		occ, err := points.ReadFile(input, points.Presence)
		if err != nil {
			return err
		}

		rarefied, err := rarefy.Rarefy(occ, g, minCount)
		if err != nil {
			return eris.Wrapf(err, "rarefy: %s", occ.Species)
		}
		if err := points.WriteFile(output, rarefied); err != nil {
			return err
		}

		zap.L().Info("rarefaction complete",
			zap.String("species", rarefied.Species),
			zap.Int("input_points", occ.Len()),
			zap.Int("retained", rarefied.Len()),
			zap.String("output", output),
		)
		return nil
	},
}

func init() {
	rarefyCmd.Flags().String("input", "", "occurrence CSV path (required)")
	rarefyCmd.Flags().String("output", "", "rarefied CSV path (required)")
	rarefyCmd.Flags().Int("min", 0, "minimum retained points (default study.min_occurrence)")
	_ = rarefyCmd.MarkFlagRequired("input")
	_ = rarefyCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(rarefyCmd)
}

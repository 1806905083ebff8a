package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/sampler"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample background or pseudo-absence points",
	Long:  "Draws random points from the ecoregions occupied by a species' presences. Pseudo-absences keep an exclusion buffer around every presence.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("study"); err != nil {
			return err
		}
		if err := cfg.Validate("sampling"); err != nil {
			return err
		}

		presencesPath, _ := cmd.Flags().GetString("presences")
		output, _ := cmd.Flags().GetString("output")
		classFlag, _ := cmd.Flags().GetString("class")
		seed, _ := cmd.Flags().GetInt64("seed")
		if seed == 0 {
			seed = cfg.Sampling.Seed
		}

		class, err := points.ParseClass(classFlag)
		if err != nil {
			return err
		}
		if class == points.Presence {
			return eris.New("sample: --class must be background or pseudoabsence")
		}

		g, err := studyGrid(cfg)
		if err != nil {
			return err
		}
		regions, err := loadRegions(cfg)
		if err != nil {
			return err
		}
		presences, err := points.ReadFile(presencesPath, points.Presence)
		if err != nil {
			return err
		}

		req := sampler.Request{
			Species:     presences.Species,
			Type:        class,
			Seed:        seed,
			MaxAttempts: cfg.Sampling.MaxAttempts,
		}
		switch class {
		case points.Background:
			req.Count = cfg.Sampling.BackgroundCount
			req.Density = cfg.Sampling.BackgroundDensity
		case points.PseudoAbsence:
			req.Count = cfg.Sampling.PseudoCount
			req.Density = cfg.Sampling.PseudoDensity
			req.Buffer = cfg.Sampling.Buffer
		}

		log := zap.L().With(
			zap.String("species", presences.Species),
			zap.String("class", string(class)),
		)

		set, err := sampler.Sample(ctx, req, presences, regions, g)
		switch {
		case err == nil:
		case eris.Is(err, sampler.ErrPartialSample):
			// The draw came up short; the partial set is still usable.
			log.Warn("partial sample", zap.Error(err))
		default:
			return eris.Wrapf(err, "sample: %s", presences.Species)
		}

		if err := points.WriteFile(output, set); err != nil {
			return err
		}

		log.Info("sampling complete",
			zap.Int("points", set.Len()),
			zap.Int64("seed", set.Seed),
			zap.String("output", output),
		)
		return nil
	},
}

func init() {
	sampleCmd.Flags().String("presences", "", "rarefied presence CSV path (required)")
	sampleCmd.Flags().String("output", "", "sampled points CSV path (required)")
	sampleCmd.Flags().String("class", "background", "point class to draw (background, pseudoabsence)")
	sampleCmd.Flags().Int64("seed", 0, "sampling seed (default sampling.seed)")
	_ = sampleCmd.MarkFlagRequired("presences")
	_ = sampleCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(sampleCmd)
}

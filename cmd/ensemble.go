package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/ensemble"
	"github.com/ecotope/rangecast/internal/evaluation"
	"github.com/ecotope/rangecast/internal/scenario"
)

var ensembleCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Combine one species' model outputs into consensus maps",
	Long:  "Reads the suitability rasters of every configured model for one species and scenario, binarizes them at the selected thresholds, and writes one ensemble raster per configured method.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("ensemble"); err != nil {
			return err
		}

		species, _ := cmd.Flags().GetString("species")
		scen, _ := cmd.Flags().GetString("scenario")

		criterion, err := evaluation.ParseCriterion(cfg.Evaluation.Criterion)
		if err != nil {
			return err
		}
		methods := make([]ensemble.Method, 0, len(cfg.Ensemble.Methods))
		for _, m := range cfg.Ensemble.Methods {
			method, err := ensemble.ParseMethod(m)
			if err != nil {
				return err
			}
			methods = append(methods, method)
		}

		src := fileSources(cfg)
		out, err := fileOutputs(cfg)
		if err != nil {
			return err
		}

		records, err := src.Evaluations(ctx, species)
		if err != nil {
			return err
		}

		outputs := make([]ensemble.ModelOutput, 0, len(cfg.Ensemble.Models))
		for _, model := range cfg.Ensemble.Models {
			rec, ok := records[model]
			if !ok {
				return eris.Errorf("ensemble: %s has no evaluation record for model %s", species, model)
			}
			cutoff, weight, err := evaluation.SelectThreshold(rec, criterion)
			if err != nil {
				return err
			}
			r, err := src.Suitability(ctx, species, model, scen)
			if err != nil {
				return eris.Wrapf(err, "ensemble: %s/%s suitability for model %s", species, scen, model)
			}
			outputs = append(outputs, ensemble.ModelOutput{
				Model:     model,
				Raster:    r,
				Threshold: cutoff,
				Weight:    weight,
			})
		}

		log := zap.L().With(zap.String("species", species), zap.String("scenario", scen))
		for _, method := range methods {
			combined, err := ensemble.Combine(species, outputs, method)
			if err != nil {
				return err
			}
			if err := out.WriteEnsemble(species, scen, method, combined); err != nil {
				return err
			}
			log.Info("ensemble written",
				zap.String("method", string(method)),
				zap.Int("models", len(outputs)),
			)
		}
		return nil
	},
}

func init() {
	ensembleCmd.Flags().String("species", "", "species name (required)")
	ensembleCmd.Flags().String("scenario", scenario.Present, "climate scenario name")
	_ = ensembleCmd.MarkFlagRequired("species")
	rootCmd.AddCommand(ensembleCmd)
}

package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotope/rangecast/internal/config"
	"github.com/ecotope/rangecast/internal/grid"
	"github.com/ecotope/rangecast/internal/pipeline"
	"github.com/ecotope/rangecast/internal/raster"
	"github.com/ecotope/rangecast/internal/scenario"
	"github.com/ecotope/rangecast/internal/store"
	"github.com/ecotope/rangecast/internal/vector"
)

// studyGrid builds the reference grid, preferring the mask raster (which
// fixes extent, resolution, and the validity mask in one file) over the
// configured extent.
func studyGrid(cfg *config.Config) (*grid.Grid, error) {
	if cfg.Study.MaskRaster != "" {
		r, err := raster.ReadFile(cfg.Study.MaskRaster)
		if err != nil {
			return nil, err
		}
		g := r.Grid
		if err := g.SetMask(r.Mask()); err != nil {
			return nil, err
		}
		zap.L().Debug("loaded study grid from mask raster",
			zap.String("path", cfg.Study.MaskRaster),
			zap.Int("rows", g.Rows),
			zap.Int("cols", g.Cols),
		)
		return g, nil
	}
	return grid.New(cfg.Study.Extent, cfg.Study.Resolution)
}

// loadRegions reads the ecoregion shapefile.
func loadRegions(cfg *config.Config) ([]vector.Ecoregion, error) {
	if cfg.Paths.Ecoregions == "" {
		return nil, eris.New("setup: paths.ecoregions is required")
	}
	return vector.LoadShapefile(cfg.Paths.Ecoregions, cfg.Paths.EcoregionName)
}

// loadScenarios returns present plus any future scenarios from the manifest.
func loadScenarios(cfg *config.Config) ([]string, error) {
	if cfg.Paths.Scenarios == "" {
		return []string{scenario.Present}, nil
	}
	m, err := scenario.Load(cfg.Paths.Scenarios)
	if err != nil {
		return nil, err
	}
	return m.Names(), nil
}

// openStore opens and migrates the audit database.
func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// fileSources wires the configured input directories.
func fileSources(cfg *config.Config) *pipeline.FileSources {
	return &pipeline.FileSources{
		OccurrencesDir: cfg.Paths.Occurrences,
		EvaluationsDir: cfg.Paths.Evaluations,
		RastersDir:     cfg.Paths.Rasters,
	}
}

// fileOutputs wires the configured output directories, creating them once.
func fileOutputs(cfg *config.Config) (*pipeline.FileOutputs, error) {
	return pipeline.NewFileOutputs(cfg.Paths.PointsOut, cfg.Paths.EnsemblesOut)
}

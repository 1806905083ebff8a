package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ecotope/rangecast/internal/evaluation"
	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/raster"
)

// FileSources reads pipeline inputs from the configured directory layout:
//
//	<occurrences>/<species>.csv
//	<evaluations>/<species>.csv
//	<rasters>/<scenario>/<species>_<model>.asc
type FileSources struct {
	OccurrencesDir string
	EvaluationsDir string
	RastersDir     string
}

// Species lists the species keys found in the occurrence directory.
func (s *FileSources) Species(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.OccurrencesDir)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: read %s", s.OccurrencesDir)
	}

	var species []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		species = append(species, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(species)
	if len(species) == 0 {
		return nil, eris.Errorf("sources: no occurrence files in %s", s.OccurrencesDir)
	}
	return species, nil
}

// Occurrences loads one species' occurrence points.
func (s *FileSources) Occurrences(_ context.Context, species string) (*points.Set, error) {
	set, err := points.ReadFile(filepath.Join(s.OccurrencesDir, species+".csv"), points.Presence)
	if err != nil {
		return nil, err
	}
	if set.Species == "" {
		set.Species = species
	}
	return set, nil
}

// Evaluations loads one species' per-model evaluation records.
func (s *FileSources) Evaluations(_ context.Context, species string) (map[string]*evaluation.Record, error) {
	return evaluation.ReadFile(filepath.Join(s.EvaluationsDir, species+".csv"))
}

// Suitability loads one classifier output raster.
func (s *FileSources) Suitability(_ context.Context, species, model, scenario string) (*raster.Raster, error) {
	name := fmt.Sprintf("%s_%s.asc", species, model)
	return raster.ReadFile(filepath.Join(s.RastersDir, scenario, name))
}

var _ Sources = (*FileSources)(nil)

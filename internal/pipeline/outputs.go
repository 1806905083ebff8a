package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ecotope/rangecast/internal/ensemble"
	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/raster"
)

// FileOutputs writes pipeline products under two directories. Each output
// path is unique per species/scenario/method, so concurrent units never
// contend on a file.
type FileOutputs struct {
	PointsDir    string
	EnsemblesDir string
}

// NewFileOutputs resolves and creates the output directories once, up front.
func NewFileOutputs(pointsDir, ensemblesDir string) (*FileOutputs, error) {
	for _, dir := range []string{pointsDir, ensemblesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "outputs: create %s", dir)
		}
	}
	return &FileOutputs{PointsDir: pointsDir, EnsemblesDir: ensemblesDir}, nil
}

// WritePoints writes a point set to <points>/<species>_<class>.csv.
func (o *FileOutputs) WritePoints(set *points.Set) error {
	name := fmt.Sprintf("%s_%s.csv", set.Species, set.Class)
	return points.WriteFile(filepath.Join(o.PointsDir, name), set)
}

// WriteEnsemble writes a combined raster to
// <ensembles>/<species>_<scenario>_<method>.asc.
func (o *FileOutputs) WriteEnsemble(species, scenario string, method ensemble.Method, r *raster.Raster) error {
	name := fmt.Sprintf("%s_%s_%s.asc", species, scenario, method)
	return raster.WriteFile(filepath.Join(o.EnsemblesDir, name), r)
}

var _ Outputs = (*FileOutputs)(nil)

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/ecotope/rangecast/internal/ensemble"
	"github.com/ecotope/rangecast/internal/evaluation"
	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/raster"
)

// memSources is an in-memory Sources for tests.
type memSources struct {
	occurrences map[string]*points.Set
	evaluations map[string]map[string]*evaluation.Record
	rasters     map[string]*raster.Raster // key: species/model/scenario
}

func rasterKey(species, model, scenario string) string {
	return fmt.Sprintf("%s/%s/%s", species, model, scenario)
}

func (m *memSources) Species(context.Context) ([]string, error) {
	var names []string
	for sp := range m.occurrences {
		names = append(names, sp)
	}
	return names, nil
}

func (m *memSources) Occurrences(_ context.Context, species string) (*points.Set, error) {
	set, ok := m.occurrences[species]
	if !ok {
		return nil, eris.Errorf("mock: no occurrences for %s", species)
	}
	return set, nil
}

func (m *memSources) Evaluations(_ context.Context, species string) (map[string]*evaluation.Record, error) {
	recs, ok := m.evaluations[species]
	if !ok {
		return nil, eris.Errorf("mock: no evaluations for %s", species)
	}
	return recs, nil
}

func (m *memSources) Suitability(_ context.Context, species, model, scenario string) (*raster.Raster, error) {
	r, ok := m.rasters[rasterKey(species, model, scenario)]
	if !ok {
		return nil, eris.Errorf("mock: no raster for %s/%s/%s", species, model, scenario)
	}
	return r, nil
}

// memOutputs captures written products for assertions.
type memOutputs struct {
	mu        sync.Mutex
	points    map[string]*points.Set    // key: species/class
	ensembles map[string]*raster.Raster // key: species/scenario/method
}

func newMemOutputs() *memOutputs {
	return &memOutputs{
		points:    make(map[string]*points.Set),
		ensembles: make(map[string]*raster.Raster),
	}
}

func (m *memOutputs) WritePoints(set *points.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[fmt.Sprintf("%s/%s", set.Species, set.Class)] = set
	return nil
}

func (m *memOutputs) WriteEnsemble(species, scenario string, method ensemble.Method, r *raster.Raster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensembles[fmt.Sprintf("%s/%s/%s", species, scenario, method)] = r
	return nil
}

package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/ecotope/rangecast/internal/config"
	"github.com/ecotope/rangecast/internal/evaluation"
	"github.com/ecotope/rangecast/internal/grid"
	"github.com/ecotope/rangecast/internal/points"
	"github.com/ecotope/rangecast/internal/raster"
	"github.com/ecotope/rangecast/internal/scenario"
	"github.com/ecotope/rangecast/internal/store"
	"github.com/ecotope/rangecast/internal/vector"
)

func testConfig() *config.Config {
	return &config.Config{
		Study: config.StudyConfig{MinOccurrence: 20},
		Sampling: config.SamplingConfig{
			BackgroundCount: 100,
			PseudoCount:     50,
			Buffer:          1.0,
			Seed:            7,
		},
		Evaluation: config.EvaluationConfig{Criterion: "spec_sens"},
		Ensemble: config.EnsembleConfig{
			Methods: []string{"majority_pa", "weighted"},
			Models:  []string{"bioclim", "glm", "rf"},
		},
		Pipeline: config.PipelineConfig{Workers: 4},
	}
}

func testGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(grid.Extent{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}, 1.0)
	require.NoError(t, err)
	return g
}

func square(t *testing.T, name string, minX, minY, maxX, maxY float64) vector.Ecoregion {
	t.Helper()
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	})
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(ring))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return vector.Ecoregion{Name: name, Geom: mp}
}

func testAudit(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func evalRecords(species string) map[string]*evaluation.Record {
	recs := make(map[string]*evaluation.Record)
	for model, auc := range map[string]float64{"bioclim": 0.81, "glm": 0.85, "rf": 0.92} {
		recs[model] = &evaluation.Record{
			Species: species,
			Model:   model,
			AUC:     auc,
			Thresholds: map[evaluation.Criterion]float64{
				evaluation.SpecSens: 0.5,
			},
		}
	}
	return recs
}

func uniformRaster(g *grid.Grid, v float64) *raster.Raster {
	r := raster.New(g)
	for i := range r.Values {
		r.Values[i] = v
	}
	return r
}

// buildSources assembles the end-to-end fixture: one species with 3 points
// (below the minimum of 20) and one with 50 rarefiable points.
func buildSources(g *grid.Grid) *memSources {
	rare := &points.Set{Species: "rare", Class: points.Presence, Points: []points.Point{
		{X: 10.5, Y: 10.5}, {X: 20.5, Y: 20.5}, {X: 30.5, Y: 30.5},
	}}

	common := &points.Set{Species: "common", Class: points.Presence}
	for i := 0; i < 50; i++ {
		common.Points = append(common.Points, points.Point{
			X: float64(i) + 0.5,
			Y: float64(i) + 0.5,
		})
	}

	src := &memSources{
		occurrences: map[string]*points.Set{"rare": rare, "common": common},
		evaluations: map[string]map[string]*evaluation.Record{"common": evalRecords("common")},
		rasters:     make(map[string]*raster.Raster),
	}
	scores := map[string]float64{"bioclim": 0.9, "glm": 0.7, "rf": 0.2}
	for _, scen := range []string{scenario.Present, "cc85_2070"} {
		for model, v := range scores {
			src.rasters[rasterKey("common", model, scen)] = uniformRaster(g, v)
		}
	}
	return src
}

func TestPipeline_EndToEnd(t *testing.T) {
	g := testGrid(t)
	regions := []vector.Ecoregion{
		square(t, "west", 0, 0, 50, 100),
		square(t, "east", 50, 0, 100, 100),
	}
	audit := testAudit(t)
	outputs := newMemOutputs()

	p, err := New(testConfig(), g, regions, []string{scenario.Present, "cc85_2070"},
		buildSources(g), outputs, audit)
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.Succeeded)
	assert.Equal(t, int64(1), summary.Skipped, "3-point species is excluded")
	assert.Equal(t, int64(0), summary.Failed)

	// Rarefied presences written for the surviving species only.
	rarefied := outputs.points["common/presence"]
	require.NotNil(t, rarefied)
	assert.Equal(t, 50, rarefied.Len())
	assert.Nil(t, outputs.points["rare/presence"])

	// Background hits the exact fixed count and stays inside eligible polygons.
	background := outputs.points["common/background"]
	require.NotNil(t, background)
	require.Equal(t, 100, background.Len())
	for _, pt := range background.Points {
		assert.True(t, regions[0].Contains(pt.X, pt.Y) || regions[1].Contains(pt.X, pt.Y))
	}
	assert.NotZero(t, background.Seed)

	pseudo := outputs.points["common/pseudoabsence"]
	require.NotNil(t, pseudo)
	assert.Equal(t, 50, pseudo.Len())

	// One ensemble per scenario × method; majority of [1,1,0] votes presence.
	require.Len(t, outputs.ensembles, 4)
	maj := outputs.ensembles["common/present/majority_pa"]
	require.NotNil(t, maj)
	v, ok := maj.At(0)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	weighted := outputs.ensembles["common/cc85_2070/weighted"]
	require.NotNil(t, weighted)
	v, ok = weighted.At(0)
	require.True(t, ok)
	assert.InDelta(t, (0.81+0.85)/(0.81+0.85+0.92), v, 1e-12)
}

func TestPipeline_RecordsAudit(t *testing.T) {
	g := testGrid(t)
	regions := []vector.Ecoregion{square(t, "all", 0, 0, 100, 100)}
	audit := testAudit(t)

	p, err := New(testConfig(), g, regions, []string{scenario.Present},
		buildSources(g), newMemOutputs(), audit)
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	runs, err := audit.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunComplete, runs[0].Status)
	assert.Equal(t, summary.RunID, runs[0].ID)

	units, err := audit.ListUnits(context.Background(), summary.RunID)
	require.NoError(t, err)

	byStage := make(map[string][]store.Unit)
	for _, u := range units {
		byStage[u.Stage] = append(byStage[u.Stage], u)
	}

	require.Len(t, byStage["rarefy"], 2)
	statuses := map[string]string{}
	for _, u := range byStage["rarefy"] {
		statuses[u.Species] = u.Status
	}
	assert.Equal(t, store.StatusSkipped, statuses["rare"])
	assert.Equal(t, store.StatusOK, statuses["common"])

	require.Len(t, byStage["sample_background"], 1)
	assert.NotZero(t, byStage["sample_background"][0].Seed, "sampling seed is recorded for audit")

	require.Len(t, byStage["ensemble"], 1)
	assert.Equal(t, store.StatusOK, byStage["ensemble"][0].Status)
}

func TestPipeline_FailureIsolation(t *testing.T) {
	g := testGrid(t)
	regions := []vector.Ecoregion{square(t, "all", 0, 0, 100, 100)}
	src := buildSources(g)
	// Remove one model raster: the combine step for "common" fails, but the
	// run itself still completes.
	delete(src.rasters, rasterKey("common", "rf", scenario.Present))

	p, err := New(testConfig(), g, regions, []string{scenario.Present},
		src, newMemOutputs(), testAudit(t))
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Failed)
	assert.Equal(t, int64(1), summary.Skipped)
	assert.Equal(t, int64(0), summary.Succeeded)
}

func TestNew_ConfigErrors(t *testing.T) {
	g := testGrid(t)
	regions := []vector.Ecoregion{square(t, "all", 0, 0, 100, 100)}

	cfg := testConfig()
	cfg.Evaluation.Criterion = "tss"
	_, err := New(cfg, g, regions, []string{scenario.Present}, buildSources(g), newMemOutputs(), testAudit(t))
	assert.Error(t, err, "unknown criterion aborts before any unit runs")

	cfg = testConfig()
	cfg.Ensemble.Methods = []string{"mean"}
	_, err = New(cfg, g, regions, []string{scenario.Present}, buildSources(g), newMemOutputs(), testAudit(t))
	assert.Error(t, err)
}

func TestUnitSeed_DeterministicAndDistinct(t *testing.T) {
	a := unitSeed(7, "common", "background")
	b := unitSeed(7, "common", "background")
	c := unitSeed(7, "common", "pseudoabsence")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotZero(t, a)
}

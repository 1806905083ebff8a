package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Study.Resolution)
	assert.Equal(t, 20, cfg.Study.MinOccurrence)
	assert.Equal(t, 10000, cfg.Sampling.BackgroundCount)
	assert.Equal(t, "spec_sens", cfg.Evaluation.Criterion)
	assert.Equal(t, []string{"majority_pa", "weighted"}, cfg.Ensemble.Methods)
	assert.Equal(t, []string{"bioclim", "glm", "rf"}, cfg.Ensemble.Models)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RANGECAST_PIPELINE_WORKERS", "12")
	t.Setenv("RANGECAST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Pipeline.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	// mask_raster empty and extent empty
	assert.Error(t, cfg.Validate("study"))
	cfg.Study.MaskRaster = "mask.asc"
	assert.NoError(t, cfg.Validate("study"))

	assert.NoError(t, cfg.Validate("sampling"))
	cfg.Sampling.BackgroundCount = 0
	cfg.Sampling.BackgroundDensity = 0
	assert.Error(t, cfg.Validate("sampling"))

	assert.NoError(t, cfg.Validate("ensemble"))
	cfg.Ensemble.Methods = nil
	assert.Error(t, cfg.Validate("ensemble"))

	assert.NoError(t, cfg.Validate("pipeline"))
	cfg.Pipeline.Workers = 0
	assert.Error(t, cfg.Validate("pipeline"))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}

// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ecotope/rangecast/internal/grid"
)

// Config holds the full application configuration.
type Config struct {
	Study      StudyConfig      `yaml:"study" mapstructure:"study"`
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Sampling   SamplingConfig   `yaml:"sampling" mapstructure:"sampling"`
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`
	Ensemble   EnsembleConfig   `yaml:"ensemble" mapstructure:"ensemble"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StudyConfig defines the study area and the modeling minimums.
type StudyConfig struct {
	Extent        grid.Extent `yaml:"extent" mapstructure:"extent"`
	Resolution    float64     `yaml:"resolution" mapstructure:"resolution"`
	MaskRaster    string      `yaml:"mask_raster" mapstructure:"mask_raster"`
	MinOccurrence int         `yaml:"min_occurrence" mapstructure:"min_occurrence"`
}

// PathsConfig resolves every input and output location once at startup.
type PathsConfig struct {
	Occurrences   string `yaml:"occurrences" mapstructure:"occurrences"`
	Rasters       string `yaml:"rasters" mapstructure:"rasters"`
	Evaluations   string `yaml:"evaluations" mapstructure:"evaluations"`
	Ecoregions    string `yaml:"ecoregions" mapstructure:"ecoregions"`
	EcoregionName string `yaml:"ecoregion_name_field" mapstructure:"ecoregion_name_field"`
	Scenarios     string `yaml:"scenarios" mapstructure:"scenarios"`
	PointsOut     string `yaml:"points_out" mapstructure:"points_out"`
	EnsemblesOut  string `yaml:"ensembles_out" mapstructure:"ensembles_out"`
}

// SamplingConfig configures background and pseudo-absence draws.
type SamplingConfig struct {
	BackgroundCount   int     `yaml:"background_count" mapstructure:"background_count"`
	BackgroundDensity float64 `yaml:"background_density" mapstructure:"background_density"`
	PseudoCount       int     `yaml:"pseudo_count" mapstructure:"pseudo_count"`
	PseudoDensity     float64 `yaml:"pseudo_density" mapstructure:"pseudo_density"`
	Buffer            float64 `yaml:"buffer" mapstructure:"buffer"`
	Seed              int64   `yaml:"seed" mapstructure:"seed"`
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// EvaluationConfig picks the threshold criterion.
type EvaluationConfig struct {
	Criterion string `yaml:"criterion" mapstructure:"criterion"`
}

// EnsembleConfig configures the combination step.
type EnsembleConfig struct {
	Methods []string `yaml:"methods" mapstructure:"methods"`
	Models  []string `yaml:"models" mapstructure:"models"`
}

// PipelineConfig configures batch execution.
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig configures the audit database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RANGECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("study.resolution", 0.5)
	v.SetDefault("study.min_occurrence", 20)
	v.SetDefault("paths.occurrences", "data/occurrences")
	v.SetDefault("paths.rasters", "data/rasters")
	v.SetDefault("paths.evaluations", "data/evaluations")
	v.SetDefault("paths.ecoregion_name_field", "ECO_NAME")
	v.SetDefault("paths.points_out", "out/points")
	v.SetDefault("paths.ensembles_out", "out/ensembles")
	v.SetDefault("sampling.background_count", 10000)
	v.SetDefault("sampling.buffer", 1.0)
	v.SetDefault("sampling.seed", 1)
	v.SetDefault("evaluation.criterion", "spec_sens")
	v.SetDefault("ensemble.methods", []string{"majority_pa", "weighted"})
	v.SetDefault("ensemble.models", []string{"bioclim", "glm", "rf"})
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("store.path", "rangecast.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the parts of the config the named command depends on.
func (c *Config) Validate(section string) error {
	switch section {
	case "study":
		if c.Study.Resolution <= 0 {
			return eris.New("config: study.resolution must be positive")
		}
		if c.Study.MaskRaster == "" && c.Study.Extent.Width() <= 0 {
			return eris.New("config: set study.mask_raster or a non-empty study.extent")
		}
	case "sampling":
		if c.Sampling.BackgroundCount <= 0 && c.Sampling.BackgroundDensity <= 0 {
			return eris.New("config: set sampling.background_count or sampling.background_density")
		}
		if c.Sampling.Buffer <= 0 {
			return eris.New("config: sampling.buffer must be positive")
		}
	case "ensemble":
		if len(c.Ensemble.Methods) == 0 {
			return eris.New("config: ensemble.methods is empty")
		}
		if len(c.Ensemble.Models) == 0 {
			return eris.New("config: ensemble.models is empty")
		}
	case "pipeline":
		if c.Pipeline.Workers <= 0 {
			return eris.New("config: pipeline.workers must be positive")
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

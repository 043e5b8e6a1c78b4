package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"studentrisk/advisor"
	"studentrisk/ml"
)

const DefaultPath = "config.yaml"

type Config struct {
	DatasetPath string `yaml:"dataset_path"`
	ModelDir    string `yaml:"model_dir"`
	ML          struct {
		ModelType       string `yaml:"model_type"`
		NumTrees        int    `yaml:"num_trees"`
		MaxDepth        int    `yaml:"max_depth"`
		MinSamplesSplit int    `yaml:"min_samples_split"`
		MaxFeatures     int    `yaml:"max_features"`
		RandomSeed      int64  `yaml:"random_seed"`
	} `yaml:"ml"`
	Rules     advisor.Rules `yaml:"rules"`
	Predictor struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"predictor"`
	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Encoding   string `yaml:"encoding"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() *Config {
	forest := ml.DefaultForestConfig()

	var config Config
	config.DatasetPath = "data/students.csv"
	config.ModelDir = "models"
	config.ML.ModelType = ml.ModelTypeRandomForest
	config.ML.NumTrees = forest.NumTrees
	config.ML.MinSamplesSplit = forest.MinSamplesSplit
	config.ML.RandomSeed = forest.Seed
	config.Rules = advisor.DefaultRules()
	config.Predictor.CacheSize = 256
	config.Log = LogConfig{
		Level:      "warn",
		Encoding:   "console",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
	return &config
}

// Load decodes path over the defaults. A missing file is not an error when
// optional is set; the defaults are returned unchanged.
func Load(path string, optional bool) (*Config, error) {
	config := Default()
	file, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	config.Rules = config.Rules.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.DatasetPath == "" {
		return errors.New("dataset_path is required")
	}
	if c.ModelDir == "" {
		return errors.New("model_dir is required")
	}
	switch c.ML.ModelType {
	case ml.ModelTypeRandomForest, ml.ModelTypeDecisionTree:
	default:
		return fmt.Errorf("unsupported model_type %q", c.ML.ModelType)
	}
	if c.ML.NumTrees <= 0 {
		return errors.New("num_trees must be positive")
	}
	if c.Predictor.CacheSize < 0 {
		return errors.New("cache_size must not be negative")
	}
	return nil
}

func (c *Config) ForestConfig() ml.ForestConfig {
	return ml.ForestConfig{
		NumTrees:        c.ML.NumTrees,
		MaxDepth:        c.ML.MaxDepth,
		MinSamplesSplit: c.ML.MinSamplesSplit,
		MaxFeatures:     c.ML.MaxFeatures,
		Seed:            c.ML.RandomSeed,
	}
}

func (c *Config) Artifacts() ml.ArtifactPaths {
	return ml.ArtifactPathsIn(c.ModelDir)
}

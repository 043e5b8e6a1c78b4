// Package training fits the risk model offline and writes its artifacts.
package training

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"studentrisk/dataset"
	"studentrisk/ml"
)

type TrainingConfig struct {
	DatasetPath string
	ModelType   string
	Forest      ml.ForestConfig
	Artifacts   ml.ArtifactPaths
}

type Summary struct {
	Rows      int
	Classes   []string
	Accuracy  float64
	Features  []ml.FeatureRange
	Artifacts ml.ArtifactPaths
}

// Train reads the dataset, fits the label encoder and model on every row and
// saves both artifacts. Nothing is written unless fitting succeeds, so the
// previous artifacts survive a failed run.
func Train(config TrainingConfig, logger *zap.Logger) (*Summary, error) {
	if config.DatasetPath == "" {
		return nil, errors.New("dataset path is required")
	}
	if config.Artifacts.ModelPath == "" || config.Artifacts.EncoderPath == "" {
		return nil, errors.New("artifact paths are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := dataset.ReadTrainingRecords(config.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	logger.Info("training data loaded", zap.String("path", config.DatasetPath), zap.Int("rows", len(records)))

	samples := make([]ml.Sample, len(records))
	for i, record := range records {
		samples[i] = record.Sample()
	}
	features, labels, encoder, err := ml.BuildTrainingSet(samples)
	if err != nil {
		return nil, fmt.Errorf("build training set: %w", err)
	}

	stats, err := ml.ComputeFeatureStats(features)
	if err != nil {
		return nil, err
	}
	for _, stat := range stats {
		logger.Debug("feature range",
			zap.String("feature", stat.Name),
			zap.Float64("min", stat.Min),
			zap.Float64("max", stat.Max),
			zap.Float64("mean", stat.Mean))
	}

	model, err := ml.NewModel(config.ModelType, config.Forest)
	if err != nil {
		return nil, err
	}
	if err := model.Train(features, labels); err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	accuracy, err := ml.Accuracy(model, features, labels)
	if err != nil {
		return nil, fmt.Errorf("score model: %w", err)
	}
	logger.Info("model trained",
		zap.String("model_type", config.ModelType),
		zap.Int("num_trees", config.Forest.NumTrees),
		zap.Int64("seed", config.Forest.Seed),
		zap.Strings("classes", encoder.Classes()),
		zap.Float64("training_accuracy", accuracy))

	if err := ml.SaveArtifacts(config.Artifacts, model, encoder); err != nil {
		return nil, err
	}
	logger.Info("artifacts saved",
		zap.String("model", config.Artifacts.ModelPath),
		zap.String("encoder", config.Artifacts.EncoderPath))

	return &Summary{
		Rows:      len(records),
		Classes:   encoder.Classes(),
		Accuracy:  accuracy,
		Features:  stats,
		Artifacts: config.Artifacts,
	}, nil
}

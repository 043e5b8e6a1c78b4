package ml

import (
	"fmt"
)

const (
	ModelTypeRandomForest = "random_forest"
	ModelTypeDecisionTree = "decision_tree"
)

// NewModel returns an untrained model of the given type.
func NewModel(modelType string, config ForestConfig) (MLModel, error) {
	switch modelType {
	case ModelTypeRandomForest, "":
		return NewRandomForest(config), nil
	case ModelTypeDecisionTree:
		tree := NewDecisionTree(config.MaxDepth)
		if config.MinSamplesSplit > 2 {
			tree.minSamplesSplit = config.MinSamplesSplit
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

func LoadModel(modelType, path string) (MLModel, error) {
	model, err := NewModel(modelType, ForestConfig{})
	if err != nil {
		return nil, err
	}
	if err := model.Load(path); err != nil {
		return nil, fmt.Errorf("load %s model from %s: %w", modelType, path, err)
	}
	return model, nil
}

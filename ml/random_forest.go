package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig controls how a RandomForest is grown. Seed makes training
// reproducible: the same data and config always yield the same forest.
type ForestConfig struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MaxFeatures     int   `json:"max_features"`
	Seed            int64 `json:"seed"`
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        100,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

type RandomForest struct {
	config      ForestConfig
	trees       []*DecisionTree
	classes     int
	numFeatures int
}

type forestState struct {
	Config      ForestConfig `json:"config"`
	Classes     int          `json:"classes"`
	NumFeatures int          `json:"num_features"`
	Trees       []treeState  `json:"trees"`
}

func NewRandomForest(config ForestConfig) *RandomForest {
	defaults := DefaultForestConfig()
	if config.NumTrees <= 0 {
		config.NumTrees = defaults.NumTrees
	}
	if config.MinSamplesSplit < 2 {
		config.MinSamplesSplit = defaults.MinSamplesSplit
	}
	return &RandomForest{config: config}
}

func (rf *RandomForest) Config() ForestConfig {
	return rf.config
}

// Train grows every tree on a bootstrap sample drawn from one seeded source.
// Trees are grown one after another so the draw order never changes.
func (rf *RandomForest) Train(features [][]float64, labels []int) error {
	if err := validateTrainingSet(features, labels); err != nil {
		return err
	}

	rf.classes = maxLabel(labels) + 1
	rf.numFeatures = len(features[0])
	maxFeatures := rf.config.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(rf.numFeatures)))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rnd := rand.New(rand.NewSource(rf.config.Seed))
	n := len(features)
	trees := make([]*DecisionTree, 0, rf.config.NumTrees)
	for t := 0; t < rf.config.NumTrees; t++ {
		sampleX := make([][]float64, n)
		sampleY := make([]int, n)
		for i := 0; i < n; i++ {
			pick := rnd.Intn(n)
			sampleX[i] = features[pick]
			sampleY[i] = labels[pick]
		}

		tree := &DecisionTree{
			maxDepth:        rf.config.MaxDepth,
			minSamplesSplit: rf.config.MinSamplesSplit,
			maxFeatures:     maxFeatures,
			rng:             rand.New(rand.NewSource(rnd.Int63())),
		}
		if err := tree.fit(sampleX, sampleY, rf.classes); err != nil {
			return fmt.Errorf("train tree %d: %w", t, err)
		}
		tree.rng = nil
		trees = append(trees, tree)
	}
	rf.trees = trees
	return nil
}

// Predict returns the class with the highest mean probability across trees
// along with that probability.
func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	label := argmax(proba)
	return label, proba[label], nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, ErrNotTrained
	}
	if len(features) != rf.numFeatures {
		return nil, ErrFeatureMismatch
	}
	proba := make([]float64, rf.classes)
	for _, tree := range rf.trees {
		dist, err := tree.PredictProba(features)
		if err != nil {
			return nil, err
		}
		for label, p := range dist {
			proba[label] += p
		}
	}
	for label := range proba {
		proba[label] /= float64(len(rf.trees))
	}
	return proba, nil
}

func (rf *RandomForest) Classes() int {
	return rf.classes
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return ErrNotTrained
	}
	state := forestState{
		Config:      rf.config,
		Classes:     rf.classes,
		NumFeatures: rf.numFeatures,
		Trees:       make([]treeState, len(rf.trees)),
	}
	for i, tree := range rf.trees {
		state.Trees[i] = tree.state()
	}
	return saveJSON(path, state)
}

func (rf *RandomForest) Load(path string) error {
	var state forestState
	if err := loadJSON(path, &state); err != nil {
		return err
	}
	if len(state.Trees) == 0 || state.Classes <= 0 || state.NumFeatures <= 0 {
		return errors.New("corrupt forest: empty state")
	}
	trees := make([]*DecisionTree, len(state.Trees))
	for i, ts := range state.Trees {
		tree := &DecisionTree{}
		if err := tree.restore(ts); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		if tree.classes != state.Classes || tree.numFeatures != state.NumFeatures {
			return fmt.Errorf("tree %d: shape does not match forest", i)
		}
		trees[i] = tree
	}
	rf.config = state.Config
	rf.classes = state.Classes
	rf.numFeatures = state.NumFeatures
	rf.trees = trees
	return nil
}

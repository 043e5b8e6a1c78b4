package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	ErrNotTrained       = errors.New("model not trained")
	ErrFeatureMismatch  = errors.New("feature vector length mismatch")
	errEmptyTrainingSet = errors.New("features or labels empty")
)

type DecisionTree struct {
	nodes       []TreeNode
	classes     int
	numFeatures int

	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
	rng             *rand.Rand
}

type TreeNode struct {
	FeatureIdx   int       `json:"feature_idx"`
	Threshold    float64   `json:"threshold"`
	LeftChild    int       `json:"left_child"`
	RightChild   int       `json:"right_child"`
	ClassLabel   int       `json:"class_label"`
	IsLeaf       bool      `json:"is_leaf"`
	Distribution []float64 `json:"distribution,omitempty"`
}

type treeState struct {
	Classes     int        `json:"classes"`
	NumFeatures int        `json:"num_features"`
	Nodes       []TreeNode `json:"nodes"`
}

// NewDecisionTree returns a tree that considers every feature at each split.
// maxDepth <= 0 grows the tree until leaves are pure.
func NewDecisionTree(maxDepth int) *DecisionTree {
	return &DecisionTree{maxDepth: maxDepth, minSamplesSplit: 2}
}

func (dt *DecisionTree) Train(features [][]float64, labels []int) error {
	if err := validateTrainingSet(features, labels); err != nil {
		return err
	}
	return dt.fit(features, labels, maxLabel(labels)+1)
}

func (dt *DecisionTree) fit(features [][]float64, labels []int, classes int) error {
	if dt.minSamplesSplit < 2 {
		dt.minSamplesSplit = 2
	}
	dt.classes = classes
	dt.numFeatures = len(features[0])
	if dt.maxFeatures <= 0 || dt.maxFeatures > dt.numFeatures {
		dt.maxFeatures = dt.numFeatures
	}

	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	dt.nodes = dt.buildNode(features, labels, indices, 0)
	return nil
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return 0, 0, err
	}
	return leaf.ClassLabel, leaf.Distribution[leaf.ClassLabel], nil
}

// PredictProba returns the class distribution of the leaf reached by features.
func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	return leaf.Distribution, nil
}

func (dt *DecisionTree) Classes() int {
	return dt.classes
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, ErrNotTrained
	}
	if len(features) != dt.numFeatures {
		return TreeNode{}, ErrFeatureMismatch
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			if node.ClassLabel < 0 || node.ClassLabel >= len(node.Distribution) {
				return TreeNode{}, errors.New("invalid tree state")
			}
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotTrained
	}
	return saveJSON(path, dt.state())
}

func (dt *DecisionTree) Load(path string) error {
	var state treeState
	if err := loadJSON(path, &state); err != nil {
		return err
	}
	return dt.restore(state)
}

func (dt *DecisionTree) state() treeState {
	return treeState{Classes: dt.classes, NumFeatures: dt.numFeatures, Nodes: dt.nodes}
}

func (dt *DecisionTree) restore(state treeState) error {
	if len(state.Nodes) == 0 || state.Classes <= 0 || state.NumFeatures <= 0 {
		return errors.New("corrupt tree: empty state")
	}
	if err := validateNodes(state); err != nil {
		return err
	}
	dt.classes = state.Classes
	dt.numFeatures = state.NumFeatures
	dt.nodes = state.Nodes
	return nil
}

// validateNodes rejects node arrays that could loop or index out of range.
// Children always follow their parent, so every walk from the root ends.
func validateNodes(state treeState) error {
	for i, node := range state.Nodes {
		if node.IsLeaf {
			if len(node.Distribution) != state.Classes {
				return fmt.Errorf("corrupt tree: leaf %d has %d classes, want %d", i, len(node.Distribution), state.Classes)
			}
			if node.ClassLabel < 0 || node.ClassLabel >= state.Classes {
				return fmt.Errorf("corrupt tree: leaf %d has class %d", i, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= state.NumFeatures {
			return fmt.Errorf("corrupt tree: node %d splits on feature %d", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(state.Nodes) {
				return fmt.Errorf("corrupt tree: node %d has child %d", i, child)
			}
		}
	}
	return nil
}

func (dt *DecisionTree) buildNode(features [][]float64, labels []int, indices []int, depth int) []TreeNode {
	counts := classCounts(labels, indices, dt.classes)
	leaf := leafNode(counts, len(indices))
	if isPure(counts) || len(indices) < dt.minSamplesSplit || (dt.maxDepth > 0 && depth >= dt.maxDepth) {
		return []TreeNode{leaf}
	}

	bestFeature, threshold, ok := dt.findBestSplit(features, labels, indices, counts)
	if !ok {
		return []TreeNode{leaf}
	}

	leftIdx, rightIdx := splitIndices(features, indices, bestFeature, threshold)
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return []TreeNode{leaf}
	}

	leftNodes := dt.buildNode(features, labels, leftIdx, depth+1)
	rightNodes := dt.buildNode(features, labels, rightIdx, depth+1)

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		ClassLabel: leaf.ClassLabel,
		IsLeaf:     false,
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, offsetChildren(leftNodes, 1)...)
	nodes = append(nodes, offsetChildren(rightNodes, 1+len(leftNodes))...)
	return nodes
}

// findBestSplit scans candidate features in random order (or in column order
// without a random source) and stops once maxFeatures non-constant features
// have been evaluated.
func (dt *DecisionTree) findBestSplit(features [][]float64, labels []int, indices []int, parentCounts []int) (int, float64, bool) {
	order := make([]int, dt.numFeatures)
	if dt.rng != nil {
		order = dt.rng.Perm(dt.numFeatures)
	} else {
		for i := range order {
			order[i] = i
		}
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64
	visited := 0
	sorted := make([]int, len(indices))

	for _, featureIdx := range order {
		if visited >= dt.maxFeatures {
			break
		}
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, b int) bool {
			return features[sorted[a]][featureIdx] < features[sorted[b]][featureIdx]
		})
		if features[sorted[0]][featureIdx] == features[sorted[len(sorted)-1]][featureIdx] {
			continue
		}
		visited++

		left := make([]int, dt.classes)
		right := append([]int(nil), parentCounts...)
		total := len(sorted)
		for i := 0; i < total-1; i++ {
			label := labels[sorted[i]]
			left[label]++
			right[label]--

			current := features[sorted[i]][featureIdx]
			next := features[sorted[i+1]][featureIdx]
			if current == next {
				continue
			}
			impurity := weightedGini(left, i+1, right, total-i-1)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = featureIdx
				bestThreshold = midpoint(current, next)
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitIndices(features [][]float64, indices []int, featureIdx int, threshold float64) ([]int, []int) {
	leftIdx := make([]int, 0)
	rightIdx := make([]int, 0)
	for _, i := range indices {
		if features[i][featureIdx] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	return leftIdx, rightIdx
}

func offsetChildren(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
	return nodes
}

// midpoint falls back to the lower value when rounding would put the
// threshold on the upper one.
func midpoint(lower, upper float64) float64 {
	mid := lower + (upper-lower)/2
	if mid >= upper {
		return lower
	}
	return mid
}

func weightedGini(left []int, leftTotal int, right []int, rightTotal int) float64 {
	total := float64(leftTotal + rightTotal)
	return (float64(leftTotal)/total)*gini(left, leftTotal) + (float64(rightTotal)/total)*gini(right, rightTotal)
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(total)
		impurity -= prob * prob
	}
	return impurity
}

func classCounts(labels []int, indices []int, classes int) []int {
	counts := make([]int, classes)
	for _, i := range indices {
		counts[labels[i]]++
	}
	return counts
}

func leafNode(counts []int, total int) TreeNode {
	distribution := make([]float64, len(counts))
	for label, count := range counts {
		distribution[label] = float64(count) / float64(total)
	}
	return TreeNode{
		FeatureIdx:   -1,
		LeftChild:    -1,
		RightChild:   -1,
		ClassLabel:   argmax(distribution),
		IsLeaf:       true,
		Distribution: distribution,
	}
}

// argmax returns the lowest index among equal maxima.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, count := range counts {
		if count > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func maxLabel(labels []int) int {
	best := 0
	for _, label := range labels {
		if label > best {
			best = label
		}
	}
	return best
}

func validateTrainingSet(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("feature vectors are empty")
	}
	for i, row := range features {
		if len(row) != width {
			return ErrFeatureMismatch
		}
		if labels[i] < 0 {
			return errors.New("labels must be non-negative class indices")
		}
	}
	return nil
}

package ml

import (
	"errors"
)

// Sample is one labeled training row.
type Sample struct {
	Features FeatureTriple
	Label    string
}

// BuildTrainingSet fits a label encoder over every sample's label and returns
// the feature matrix with the encoded labels. Features are used raw.
func BuildTrainingSet(samples []Sample) (features [][]float64, labels []int, encoder *LabelEncoder, err error) {
	if len(samples) == 0 {
		return nil, nil, nil, errors.New("no training samples")
	}

	raw := make([]string, len(samples))
	features = make([][]float64, len(samples))
	for i, sample := range samples {
		raw[i] = sample.Label
		features[i] = sample.Features.Vector()
	}

	encoder = NewLabelEncoder()
	labels, err = encoder.FitTransform(raw)
	if err != nil {
		return nil, nil, nil, err
	}
	return features, labels, encoder, nil
}

// Accuracy is the share of samples the model labels correctly.
func Accuracy(model Classifier, features [][]float64, labels []int) (float64, error) {
	if len(features) == 0 {
		return 0, nil
	}
	correct := 0
	for i, feature := range features {
		label, _, err := model.Predict(feature)
		if err != nil {
			return 0, err
		}
		if label == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(features)), nil
}

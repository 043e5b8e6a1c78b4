package ml

import (
	"errors"
)

// FeatureRange summarizes one feature column of a training set.
type FeatureRange struct {
	Name string
	Min  float64
	Max  float64
	Mean float64
}

func ComputeFeatureStats(vectors [][]float64) ([]FeatureRange, error) {
	if len(vectors) == 0 {
		return nil, errors.New("features is empty")
	}
	names := FeatureNames()
	if len(vectors[0]) != len(names) {
		return nil, ErrFeatureMismatch
	}

	stats := make([]FeatureRange, len(names))
	for i, name := range names {
		stats[i] = FeatureRange{Name: name, Min: vectors[0][i], Max: vectors[0][i]}
	}
	for _, vector := range vectors {
		if len(vector) != len(names) {
			return nil, ErrFeatureMismatch
		}
		for i, value := range vector {
			if value < stats[i].Min {
				stats[i].Min = value
			}
			if value > stats[i].Max {
				stats[i].Max = value
			}
			stats[i].Mean += value
		}
	}
	for i := range stats {
		stats[i].Mean /= float64(len(vectors))
	}
	return stats, nil
}

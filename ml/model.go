package ml

type MLModel interface {
	Train(features [][]float64, labels []int) error
	Predict(features []float64) (int, float64, error)
	Classes() int
	Save(path string) error
	Load(path string) error
}

// Classifier is the read-only side of a trained model.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
	Classes() int
}

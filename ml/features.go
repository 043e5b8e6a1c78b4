package ml

// FeatureTriple is one student's model input. Values are passed through
// unchecked; out-of-range inputs still produce a prediction.
type FeatureTriple struct {
	Attendance    float64 `json:"attendance"`
	InternalMarks float64 `json:"internalMarks"`
	CGPA          float64 `json:"cgpa"`
}

// Vector returns the features in the fixed column order the model is
// trained with.
func (f FeatureTriple) Vector() []float64 {
	return []float64{f.Attendance, f.InternalMarks, f.CGPA}
}

func FeatureNames() []string {
	return []string{"attendance", "internalMarks", "cgpa"}
}

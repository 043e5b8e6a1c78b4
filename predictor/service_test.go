package predictor

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentrisk/advisor"
	"studentrisk/dataset"
	"studentrisk/ml"
)

type fakeModel struct {
	label int
	err   error
	calls int
}

func (f *fakeModel) Predict(features []float64) (int, float64, error) {
	f.calls++
	return f.label, 0.9, f.err
}

func (f *fakeModel) Classes() int {
	return 3
}

type countingLoader struct {
	model   ml.Classifier
	encoder *ml.LabelEncoder
	err     error
	calls   int
}

func (l *countingLoader) Load() (ml.Classifier, *ml.LabelEncoder, error) {
	l.calls++
	if l.err != nil {
		return nil, nil, l.err
	}
	return l.model, l.encoder, nil
}

func newLoader(t *testing.T, label int) *countingLoader {
	t.Helper()
	encoder := ml.NewLabelEncoder()
	require.NoError(t, encoder.Fit([]string{"Low", "Medium", "High"}))
	return &countingLoader{model: &fakeModel{label: label}, encoder: encoder}
}

func TestPredictFallbackSuggestion(t *testing.T) {
	service, err := NewService(newLoader(t, 0), Options{Rules: advisor.DefaultRules()})
	require.NoError(t, err)

	result, err := service.Predict(ml.FeatureTriple{Attendance: 90, InternalMarks: 80, CGPA: 8.5})
	require.NoError(t, err)
	assert.Equal(t, "Low", result.RiskLevel)
	assert.Empty(t, result.WeakAreas)
	assert.Equal(t, "Maintain consistency and continue current academic efforts.", result.Suggestion)

	var out bytes.Buffer
	require.NoError(t, WriteJSONLine(&out, result))
	assert.Equal(t,
		`{"riskLevel":"Low","weakAreas":[],"suggestion":"Maintain consistency and continue current academic efforts."}`+"\n",
		out.String())
}

func TestPredictAllWeakAreas(t *testing.T) {
	service, err := NewService(newLoader(t, 2), Options{})
	require.NoError(t, err)

	result, err := service.Predict(ml.FeatureTriple{Attendance: 40, InternalMarks: 30, CGPA: 4.0})
	require.NoError(t, err)
	assert.Equal(t, "High", result.RiskLevel)
	assert.Equal(t, []string{"Attendance", "Internal Marks", "CGPA"}, result.WeakAreas)
	assert.Equal(t,
		"Attend classes regularly to improve understanding. "+
			"Focus more on internal assessments, assignments, and tests. "+
			"Concentrate on core subjects and improve overall academic performance.",
		result.Suggestion)
}

func TestPredictKeepsModelAndRulesIndependent(t *testing.T) {
	service, err := NewService(newLoader(t, 0), Options{})
	require.NoError(t, err)

	result, err := service.Predict(ml.FeatureTriple{Attendance: 40, InternalMarks: 30, CGPA: 8})
	require.NoError(t, err)
	assert.Equal(t, "Low", result.RiskLevel)
	assert.Equal(t, []string{"Attendance", "Internal Marks"}, result.WeakAreas)
}

func TestPredictIsDeterministic(t *testing.T) {
	for _, cacheSize := range []int{0, 8} {
		loader := newLoader(t, 1)
		service, err := NewService(loader, Options{CacheSize: cacheSize})
		require.NoError(t, err)

		input := ml.FeatureTriple{Attendance: 55, InternalMarks: 65, CGPA: 5.5}
		first, err := service.Predict(input)
		require.NoError(t, err)

		var want bytes.Buffer
		require.NoError(t, WriteJSONLine(&want, first))
		first.WeakAreas[0] = "mutated"

		for i := 0; i < 5; i++ {
			again, err := service.Predict(input)
			require.NoError(t, err)
			var got bytes.Buffer
			require.NoError(t, WriteJSONLine(&got, again))
			assert.Equal(t, want.String(), got.String())
		}
		assert.Equal(t, 1, loader.calls)
	}
}

func TestPredictUsesCache(t *testing.T) {
	loader := newLoader(t, 1)
	service, err := NewService(loader, Options{CacheSize: 4})
	require.NoError(t, err)

	input := ml.FeatureTriple{Attendance: 70, InternalMarks: 60, CGPA: 7}
	for i := 0; i < 3; i++ {
		_, err := service.Predict(input)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loader.model.(*fakeModel).calls)
}

func TestPredictUnknownClassIndex(t *testing.T) {
	service, err := NewService(newLoader(t, 7), Options{})
	require.NoError(t, err)

	_, err = service.Predict(ml.FeatureTriple{Attendance: 70, InternalMarks: 60, CGPA: 7})
	assert.True(t, errors.Is(err, ml.ErrUnknownLabel))
}

func TestNewServiceLoadFailure(t *testing.T) {
	loader := &countingLoader{err: errors.New("no such file")}
	_, err := NewService(loader, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load artifacts")
}

func TestParseFeatures(t *testing.T) {
	input, err := ParseFeatures([]string{"75.5", " 62", "-1"})
	require.NoError(t, err)
	assert.Equal(t, ml.FeatureTriple{Attendance: 75.5, InternalMarks: 62, CGPA: -1}, input)

	_, err = ParseFeatures([]string{"75", "62"})
	assert.True(t, errors.Is(err, ErrInvalidArgs))

	_, err = ParseFeatures([]string{"75", "sixty", "7"})
	require.True(t, errors.Is(err, ErrInvalidArgs))
	assert.Contains(t, err.Error(), "internalMarks")
}

func TestPredictArgsRejectsMalformedInputBeforeLoading(t *testing.T) {
	loader := newLoader(t, 0)
	_, err := PredictArgs([]string{"abc", "80", "8.5"}, loader, Options{})
	require.True(t, errors.Is(err, ErrInvalidArgs))
	assert.Equal(t, 0, loader.calls)

	result, err := PredictArgs([]string{"90", "80", "8.5"}, loader, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Low", result.RiskLevel)
	assert.Equal(t, 1, loader.calls)
}

func TestPredictBatch(t *testing.T) {
	service, err := NewService(newLoader(t, 1), Options{CacheSize: 4})
	require.NoError(t, err)

	rows := []dataset.StudentRow{
		{Line: 2, Name: "Asha", RollNo: "R1", Features: ml.FeatureTriple{Attendance: 92, InternalMarks: 81, CGPA: 8.7}},
		{Line: 4, Features: ml.FeatureTriple{Attendance: 55, InternalMarks: 45, CGPA: 5.5}},
	}
	skipped := []dataset.RowError{{Line: 3, Err: errors.New("attendance is empty")}}
	results, err := service.PredictBatch(rows, skipped)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "R1", results[0].RollNo)
	assert.Empty(t, results[0].WeakAreas)
	assert.Equal(t, []string{"Attendance", "Internal Marks", "CGPA"}, results[1].WeakAreas)

	var out bytes.Buffer
	require.NoError(t, WriteJSONLine(&out, results[1]))
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.NotContains(t, out.String(), "rollNo")
}

func TestCountByRiskLevel(t *testing.T) {
	results := []BatchResult{
		{Line: 2, Result: Result{RiskLevel: "High"}},
		{Line: 3, Result: Result{RiskLevel: "Low"}},
		{Line: 5, Result: Result{RiskLevel: "High"}},
	}
	assert.Equal(t, map[string]int{"High": 2, "Low": 1}, CountByRiskLevel(results))
	assert.Empty(t, CountByRiskLevel(nil))
}

func TestFileLoaderMissingArtifacts(t *testing.T) {
	loader := FileLoader{ModelType: ml.ModelTypeRandomForest, Paths: ml.ArtifactPathsIn(filepath.Join(t.TempDir(), "models"))}
	_, err := NewService(loader, Options{})
	assert.Error(t, err)
}

func TestNewServiceWithoutRulesUsesDefaultThresholds(t *testing.T) {
	service, err := NewService(newLoader(t, 2), Options{})
	require.NoError(t, err)

	result, err := service.Predict(ml.FeatureTriple{Attendance: 40, InternalMarks: 30, CGPA: 4.0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Attendance", "Internal Marks", "CGPA"}, result.WeakAreas)

	result, err = service.Predict(ml.FeatureTriple{Attendance: 60, InternalMarks: 50, CGPA: 6.0})
	require.NoError(t, err)
	assert.Empty(t, result.WeakAreas)
	assert.Equal(t, advisor.DefaultRules().Messages.Fallback, result.Suggestion)
}

func TestNewServiceHonorsCustomRules(t *testing.T) {
	rules := advisor.Rules{AttendanceMin: 75, InternalMarksMin: 40, CGPAMin: 5}
	service, err := NewService(newLoader(t, 1), Options{Rules: rules})
	require.NoError(t, err)

	result, err := service.Predict(ml.FeatureTriple{Attendance: 70, InternalMarks: 45, CGPA: 5.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"Attendance"}, result.WeakAreas)
	assert.Equal(t, advisor.DefaultRules().Messages.Attendance, result.Suggestion)
}

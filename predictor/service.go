// Package predictor turns a feature triple into a risk level plus rule-based
// feedback, using artifacts loaded once when the service is built.
package predictor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"studentrisk/advisor"
	"studentrisk/ml"
)

var ErrInvalidArgs = errors.New("invalid arguments")

// Loader supplies the trained model together with the label encoder it was
// trained with.
type Loader interface {
	Load() (ml.Classifier, *ml.LabelEncoder, error)
}

// FileLoader reads the artifacts written by training.
type FileLoader struct {
	ModelType string
	Paths     ml.ArtifactPaths
}

func (l FileLoader) Load() (ml.Classifier, *ml.LabelEncoder, error) {
	model, encoder, err := ml.LoadArtifacts(l.ModelType, l.Paths)
	if err != nil {
		return nil, nil, err
	}
	return model, encoder, nil
}

type Result struct {
	RiskLevel  string   `json:"riskLevel"`
	WeakAreas  []string `json:"weakAreas"`
	Suggestion string   `json:"suggestion"`
}

// Options configures a Service. Zero Rules means advisor.DefaultRules.
type Options struct {
	Rules     advisor.Rules
	CacheSize int
	Logger    *zap.Logger
}

// Service holds the loaded artifacts. It is never mutated after NewService
// returns, so repeated calls with the same input give the same Result.
type Service struct {
	model   ml.Classifier
	encoder *ml.LabelEncoder
	rules   advisor.Rules
	cache   *lru.Cache[ml.FeatureTriple, Result]
	logger  *zap.Logger
}

// NewService loads both artifacts eagerly; any load failure is returned.
func NewService(loader Loader, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	model, encoder, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	if model == nil || encoder == nil {
		return nil, errors.New("load artifacts: loader returned no model")
	}

	rules := opts.Rules
	if rules.IsZero() {
		rules = advisor.DefaultRules()
	}
	s := &Service{
		model:   model,
		encoder: encoder,
		rules:   rules.WithDefaults(),
		logger:  logger,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[ml.FeatureTriple, Result](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	logger.Debug("artifacts loaded", zap.Strings("classes", encoder.Classes()))
	return s, nil
}

func (s *Service) Predict(input ml.FeatureTriple) (Result, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(input); ok {
			return cached.clone(), nil
		}
	}

	idx, _, err := s.model.Predict(input.Vector())
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	riskLevel, err := s.encoder.Decode(idx)
	if err != nil {
		return Result{}, fmt.Errorf("decode prediction: %w", err)
	}

	feedback := s.rules.Evaluate(input)
	result := Result{
		RiskLevel:  riskLevel,
		WeakAreas:  feedback.WeakAreas,
		Suggestion: feedback.Suggestion,
	}
	s.logger.Debug("prediction",
		zap.Float64("attendance", input.Attendance),
		zap.Float64("internal_marks", input.InternalMarks),
		zap.Float64("cgpa", input.CGPA),
		zap.String("risk_level", riskLevel),
		zap.Strings("weak_areas", result.WeakAreas))

	if s.cache != nil {
		s.cache.Add(input, result.clone())
	}
	return result, nil
}

func (r Result) clone() Result {
	r.WeakAreas = append(make([]string, 0, len(r.WeakAreas)), r.WeakAreas...)
	return r
}

// ParseFeatures parses attendance, internal marks and CGPA, in that order.
// No range check is applied.
func ParseFeatures(args []string) (ml.FeatureTriple, error) {
	names := ml.FeatureNames()
	if len(args) != len(names) {
		return ml.FeatureTriple{}, fmt.Errorf("%w: expected %d values (%s), got %d",
			ErrInvalidArgs, len(names), strings.Join(names, ", "), len(args))
	}
	values := make([]float64, len(args))
	for i, arg := range args {
		value, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return ml.FeatureTriple{}, fmt.Errorf("%w: %s %q is not a number", ErrInvalidArgs, names[i], arg)
		}
		values[i] = value
	}
	return ml.FeatureTriple{Attendance: values[0], InternalMarks: values[1], CGPA: values[2]}, nil
}

// PredictArgs parses the command-line values before loading any artifact,
// so malformed input fails without touching the model files.
func PredictArgs(args []string, loader Loader, opts Options) (Result, error) {
	input, err := ParseFeatures(args)
	if err != nil {
		return Result{}, err
	}
	service, err := NewService(loader, opts)
	if err != nil {
		return Result{}, err
	}
	return service.Predict(input)
}

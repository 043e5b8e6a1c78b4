package ml

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownLabel = errors.New("unknown label")
	ErrNoLabels     = errors.New("no labels to fit")
)

// LabelEncoder maps risk-level strings to class indices. Indices follow the
// order in which labels are first seen during Fit.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

type encoderState struct {
	Classes []string `json:"classes"`
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{index: make(map[string]int)}
}

func (le *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return ErrNoLabels
	}
	classes := make([]string, 0)
	index := make(map[string]int)
	for _, label := range labels {
		if _, ok := index[label]; ok {
			continue
		}
		index[label] = len(classes)
		classes = append(classes, label)
	}
	le.classes = classes
	le.index = index
	return nil
}

// FitTransform fits the encoder and returns the encoded labels.
func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := le.Fit(labels); err != nil {
		return nil, err
	}
	encoded := make([]int, len(labels))
	for i, label := range labels {
		encoded[i] = le.index[label]
	}
	return encoded, nil
}

func (le *LabelEncoder) Encode(label string) (int, error) {
	idx, ok := le.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return idx, nil
}

func (le *LabelEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(le.classes) {
		return "", fmt.Errorf("%w: class index %d", ErrUnknownLabel, index)
	}
	return le.classes[index], nil
}

func (le *LabelEncoder) Classes() []string {
	return append([]string(nil), le.classes...)
}

func (le *LabelEncoder) Len() int {
	return len(le.classes)
}

func (le *LabelEncoder) Save(path string) error {
	if len(le.classes) == 0 {
		return ErrNoLabels
	}
	return saveJSON(path, encoderState{Classes: le.classes})
}

func (le *LabelEncoder) Load(path string) error {
	var state encoderState
	if err := loadJSON(path, &state); err != nil {
		return err
	}
	if len(state.Classes) == 0 {
		return errors.New("corrupt label encoder: no classes")
	}
	index := make(map[string]int, len(state.Classes))
	for i, label := range state.Classes {
		if _, dup := index[label]; dup {
			return fmt.Errorf("corrupt label encoder: duplicate class %q", label)
		}
		index[label] = i
	}
	le.classes = state.Classes
	le.index = index
	return nil
}

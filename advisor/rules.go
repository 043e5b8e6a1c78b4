// Package advisor flags weak areas from fixed thresholds on the raw inputs.
// It runs independently of the model's predicted risk level.
package advisor

import (
	"strings"

	"studentrisk/ml"
)

const (
	AreaAttendance    = "Attendance"
	AreaInternalMarks = "Internal Marks"
	AreaCGPA          = "CGPA"
)

type Messages struct {
	Attendance    string `yaml:"attendance"`
	InternalMarks string `yaml:"internal_marks"`
	CGPA          string `yaml:"cgpa"`
	Fallback      string `yaml:"fallback"`
}

// Rules flags a feature when it is strictly below its minimum.
type Rules struct {
	AttendanceMin    float64  `yaml:"attendance_min"`
	InternalMarksMin float64  `yaml:"internal_marks_min"`
	CGPAMin          float64  `yaml:"cgpa_min"`
	Messages         Messages `yaml:"messages"`
}

type Feedback struct {
	WeakAreas  []string
	Suggestion string
}

func DefaultRules() Rules {
	return Rules{
		AttendanceMin:    60,
		InternalMarksMin: 50,
		CGPAMin:          6.0,
		Messages: Messages{
			Attendance:    "Attend classes regularly to improve understanding.",
			InternalMarks: "Focus more on internal assessments, assignments, and tests.",
			CGPA:          "Concentrate on core subjects and improve overall academic performance.",
			Fallback:      "Maintain consistency and continue current academic efforts.",
		},
	}
}

// IsZero reports whether no threshold or message has been set.
func (r Rules) IsZero() bool {
	return r == Rules{}
}

// WithDefaults fills empty messages from DefaultRules.
func (r Rules) WithDefaults() Rules {
	defaults := DefaultRules().Messages
	if r.Messages.Attendance == "" {
		r.Messages.Attendance = defaults.Attendance
	}
	if r.Messages.InternalMarks == "" {
		r.Messages.InternalMarks = defaults.InternalMarks
	}
	if r.Messages.CGPA == "" {
		r.Messages.CGPA = defaults.CGPA
	}
	if r.Messages.Fallback == "" {
		r.Messages.Fallback = defaults.Fallback
	}
	return r
}

// Evaluate checks attendance, internal marks and CGPA in that order. The
// suggestion joins triggered messages with single spaces and is never empty.
func (r Rules) Evaluate(input ml.FeatureTriple) Feedback {
	checks := []struct {
		area    string
		value   float64
		min     float64
		message string
	}{
		{AreaAttendance, input.Attendance, r.AttendanceMin, r.Messages.Attendance},
		{AreaInternalMarks, input.InternalMarks, r.InternalMarksMin, r.Messages.InternalMarks},
		{AreaCGPA, input.CGPA, r.CGPAMin, r.Messages.CGPA},
	}

	weakAreas := make([]string, 0, len(checks))
	suggestions := make([]string, 0, len(checks))
	for _, check := range checks {
		if check.value < check.min {
			weakAreas = append(weakAreas, check.area)
			suggestions = append(suggestions, check.message)
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, r.Messages.Fallback)
	}
	return Feedback{
		WeakAreas:  weakAreas,
		Suggestion: strings.Join(suggestions, " "),
	}
}

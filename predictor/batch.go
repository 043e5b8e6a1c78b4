package predictor

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"studentrisk/dataset"
)

type BatchResult struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	RollNo string `json:"rollNo,omitempty"`
	Result
}

// PredictBatch predicts every row in order. Skipped rows from the reader are
// logged, not returned.
func (s *Service) PredictBatch(rows []dataset.StudentRow, skipped []dataset.RowError) ([]BatchResult, error) {
	for _, rowErr := range skipped {
		s.logger.Warn("skipping invalid row", zap.Int("line", rowErr.Line), zap.Error(rowErr.Err))
	}
	results := make([]BatchResult, 0, len(rows))
	for _, row := range rows {
		result, err := s.Predict(row.Features)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}
		results = append(results, BatchResult{
			Line:   row.Line,
			Name:   row.Name,
			RollNo: row.RollNo,
			Result: result,
		})
	}
	return results, nil
}

// CountByRiskLevel tallies batch results per predicted risk level.
func CountByRiskLevel(results []BatchResult) map[string]int {
	counts := make(map[string]int)
	for _, result := range results {
		counts[result.RiskLevel]++
	}
	return counts
}

// WriteJSONLine writes v as a single JSON line.
func WriteJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

package dataset

import (
	"errors"
	"fmt"
	"io"

	"studentrisk/ml"
)

// TrainingRecord is one labeled row of the training dataset.
type TrainingRecord struct {
	Attendance    float64
	InternalMarks float64
	CGPA          float64
	RiskLevel     string
}

func (r TrainingRecord) Features() ml.FeatureTriple {
	return ml.FeatureTriple{Attendance: r.Attendance, InternalMarks: r.InternalMarks, CGPA: r.CGPA}
}

func (r TrainingRecord) Sample() ml.Sample {
	return ml.Sample{Features: r.Features(), Label: r.RiskLevel}
}

// StudentRow is one unlabeled row submitted for batch prediction.
type StudentRow struct {
	Line     int
	Name     string
	RollNo   string
	Features ml.FeatureTriple
}

// RowError records a batch row that was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ReadTrainingRecords reads every row of a labeled dataset. Any invalid row
// fails the whole read.
func ReadTrainingRecords(path string) ([]TrainingRecord, error) {
	tbl, closer, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	if err := tbl.require(ColumnAttendance, ColumnInternalMarks, ColumnCGPA, ColumnRiskLevel); err != nil {
		return nil, err
	}

	records := make([]TrainingRecord, 0)
	for {
		row, err := tbl.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		if isBlank(row) {
			continue
		}
		features, err := tbl.features(row)
		if err != nil {
			return nil, RowError{Line: tbl.line, Err: err}
		}
		label := tbl.field(row, ColumnRiskLevel)
		if label == "" {
			return nil, RowError{Line: tbl.line, Err: fmt.Errorf("%s is empty", ColumnRiskLevel)}
		}
		records = append(records, TrainingRecord{
			Attendance:    features.Attendance,
			InternalMarks: features.InternalMarks,
			CGPA:          features.CGPA,
			RiskLevel:     label,
		})
	}
	if len(records) == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return records, nil
}

// ReadStudentRows reads a batch file. Rows with missing or non-numeric
// features are skipped and reported.
func ReadStudentRows(path string) ([]StudentRow, []RowError, error) {
	tbl, closer, err := openTable(path)
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	if err := tbl.require(ColumnAttendance, ColumnInternalMarks, ColumnCGPA); err != nil {
		return nil, nil, err
	}

	var (
		rows    []StudentRow
		skipped []RowError
	)
	for {
		row, err := tbl.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read batch: %w", err)
		}
		if isBlank(row) {
			continue
		}
		features, err := tbl.features(row)
		if err != nil {
			skipped = append(skipped, RowError{Line: tbl.line, Err: err})
			continue
		}
		rows = append(rows, StudentRow{
			Line:     tbl.line,
			Name:     tbl.field(row, ColumnName),
			RollNo:   tbl.field(row, ColumnRollNo),
			Features: features,
		})
	}
	return rows, skipped, nil
}

func (t *table) features(record []string) (ml.FeatureTriple, error) {
	attendance, err := t.float(record, ColumnAttendance)
	if err != nil {
		return ml.FeatureTriple{}, err
	}
	internalMarks, err := t.float(record, ColumnInternalMarks)
	if err != nil {
		return ml.FeatureTriple{}, err
	}
	cgpa, err := t.float(record, ColumnCGPA)
	if err != nil {
		return ml.FeatureTriple{}, err
	}
	return ml.FeatureTriple{Attendance: attendance, InternalMarks: internalMarks, CGPA: cgpa}, nil
}

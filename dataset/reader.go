package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	ColumnAttendance    = "attendance"
	ColumnInternalMarks = "internalMarks"
	ColumnCGPA          = "cgpa"
	ColumnRiskLevel     = "riskLevel"
	ColumnName          = "name"
	ColumnRollNo        = "rollNo"
)

var ErrMissingColumn = errors.New("missing column")

// table is a CSV file with its header resolved to column positions.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

// openTable decodes the file as UTF-8 unless a BOM says otherwise, so
// spreadsheet exports with a UTF-8 or UTF-16 BOM read the same as plain files.
func openTable(path string) (*table, io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(file, decoder))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("read dataset header: empty file")
		}
		return nil, nil, fmt.Errorf("read dataset header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	return &table{reader: reader, columns: columns, line: 1}, file, nil
}

func (t *table) require(names ...string) error {
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}
	return nil
}

// next returns the following record, or io.EOF.
func (t *table) next() ([]string, error) {
	record, err := t.reader.Read()
	if err != nil {
		return nil, err
	}
	t.line++
	return record, nil
}

func (t *table) field(record []string, name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (t *table) float(record []string, name string) (float64, error) {
	raw := t.field(record, name)
	if raw == "" {
		return 0, fmt.Errorf("%s is empty", name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return value, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"studentrisk/ml"
	"studentrisk/training"
)

func TestGuardNegativeNumbers(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"90", "80", "8.5"}, []string{"90", "80", "8.5"}},
		{[]string{"-5", "80", "8.5"}, []string{"--", "-5", "80", "8.5"}},
		{[]string{"--config", "c.yaml", "90", "-1", "7"}, []string{"--config", "c.yaml", "--", "90", "-1", "7"}},
		{[]string{"--", "-5", "80", "8"}, []string{"--", "-5", "80", "8"}},
		{[]string{"--batch", "rows.csv"}, []string{"--batch", "rows.csv"}},
		{[]string{"-5", "--model-dir", "m", "50", "7"}, []string{"--model-dir", "m", "--", "-5", "50", "7"}},
		{[]string{"-5", "--model-dir=m", "50", "7"}, []string{"--model-dir=m", "--", "-5", "50", "7"}},
		{[]string{"90", "-1", "7", "--config", "c.yaml", "--model-dir", "m"}, []string{"--config", "c.yaml", "--model-dir", "m", "--", "90", "-1", "7"}},
	}
	for _, tc := range cases {
		if got := guardNegativeNumbers(newPredictCmd(), tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("guardNegativeNumbers(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func trainFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, "students.csv")
	content := "attendance,internalMarks,cgpa,riskLevel\n" +
		"95,85,9.1,Low\n90,80,8.5,Low\n88,78,8.2,Low\n" +
		"45,35,4.5,High\n50,40,5.0,High\n40,30,4.0,High\n"
	if err := os.WriteFile(datasetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	modelDir := filepath.Join(dir, "models")
	_, err := training.Train(training.TrainingConfig{
		DatasetPath: datasetPath,
		ModelType:   ml.ModelTypeRandomForest,
		Forest:      ml.ForestConfig{NumTrees: 10, MinSamplesSplit: 2, Seed: 42},
		Artifacts:   ml.ArtifactPathsIn(modelDir),
	}, nil)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	return modelDir
}

func TestPredictCommandPrintsOneJSONLine(t *testing.T) {
	modelDir := trainFixture(t)
	cmd := newPredictCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--model-dir", modelDir, "90", "80", "8.5"})

	// an explicit missing config is an error
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for explicit missing config")
	}

	cmd = newPredictCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--model-dir", modelDir, "90", "80", "8.5"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Fatalf("expected one line, got %q", out.String())
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["riskLevel"] != "Low" {
		t.Fatalf("unexpected risk level: %v", payload["riskLevel"])
	}
	if areas, ok := payload["weakAreas"].([]interface{}); !ok || len(areas) != 0 {
		t.Fatalf("expected empty weakAreas array, got %v", payload["weakAreas"])
	}
}

func TestPredictCommandRejectsNonNumeric(t *testing.T) {
	cmd := newPredictCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--model-dir", filepath.Join(t.TempDir(), "missing"), "abc", "80", "8.5"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "not a number") {
		t.Fatalf("expected parse error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestPredictCommandBatch(t *testing.T) {
	modelDir := trainFixture(t)
	batchPath := filepath.Join(t.TempDir(), "batch.csv")
	content := "name,rollNo,attendance,internalMarks,cgpa\nAsha,R1,92,81,8.7\nRavi,R2,?,33,4.1\nMina,R3,42,31,4.2\n"
	if err := os.WriteFile(batchPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	cmd := newPredictCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--model-dir", modelDir, "--batch", batchPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[1], `"rollNo":"R3"`) || !strings.Contains(lines[1], `"riskLevel":"High"`) {
		t.Fatalf("unexpected batch line: %s", lines[1])
	}
}

func TestPredictCommandFlagsAfterNegativeNumber(t *testing.T) {
	modelDir := trainFixture(t)
	cmd := newPredictCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(guardNegativeNumbers(cmd, []string{"-5", "--model-dir", modelDir, "50", "7"}))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		WeakAreas []string `json:"weakAreas"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !reflect.DeepEqual(payload.WeakAreas, []string{"Attendance"}) {
		t.Fatalf("unexpected weak areas: %v", payload.WeakAreas)
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ready4exam/worksheet/internal/question"
)

const sampleJSON = `[
  {"id": "q1", "question_type": "mcq", "question_text": "Which is a base?",
   "options": {"A": "NaOH", "B": "HCl", "C": "H2O", "D": "NaCl"}, "correct_answer": "A"},
  {"id": "q2", "question_type": "mcq", "question_text": "pH of water?",
   "option_a": "7", "option_b": "1", "option_c": "14", "option_d": "0", "correct_answer": "a"},
  {"id": "q3", "question_type": "mcq", "question_text": "Broken answer",
   "option_a": "x", "option_b": "y", "option_c": "z", "option_d": "w", "correct_answer": "E"}
]`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		wantFmt  string
		wantDiff string
	}{
		{"missing file", nil, true, "", ""},
		{"format from extension", []string{"-file", "set.JSON"}, false, "json", ""},
		{"explicit format", []string{"-file", "set.dat", "-format", "xlsx"}, false, "xlsx", ""},
		{"unsupported format", []string{"-file", "set.csv"}, true, "", ""},
		{"difficulty normalized", []string{"-file", "set.json", "-difficulty", "advance"}, false, "json", "Advanced"},
		{"unknown difficulty", []string{"-file", "set.json", "-difficulty", "extreme"}, true, "", ""},
		{"unknown flag", []string{"-nope"}, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if o.format != tt.wantFmt {
				t.Errorf("format = %q, want %q", o.format, tt.wantFmt)
			}
			if o.difficulty != tt.wantDiff {
				t.Errorf("difficulty = %q, want %q", o.difficulty, tt.wantDiff)
			}
		})
	}
}

func TestRun_DryRunJSON(t *testing.T) {
	path := writeFile(t, "acids.json", []byte(sampleJSON))

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"-file", path, "-topic", "science_acids_salts_10_quiz", "-difficulty", "simple", "-dry-run",
	}, &out)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "3 records read, 2 usable") {
		t.Errorf("output = %q", got)
	}
}

func TestRun_DryRunXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"ID", "Topic ID", "Difficulty", "Question Type", "Question Text", "Option A", "Option B", "Option C", "Option D", "Correct Answer"},
		{"q1", "science_acids_salts_10_quiz", "medium", "mcq", "Which is a metal?", "Iron", "Sulphur", "Carbon", "Neon", "A"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	path := writeFile(t, "metals.xlsx", buf.Bytes())

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-file", path, "-dry-run"}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "1 records read, 1 usable") {
		t.Errorf("output = %q", got)
	}
}

func TestRun_MissingTopic(t *testing.T) {
	path := writeFile(t, "acids.json", []byte(sampleJSON))

	err := run(context.Background(), []string{"-file", path, "-dry-run"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "-topic") {
		t.Errorf("run() error = %v, want missing topic error", err)
	}
}

func TestRun_MissingFile(t *testing.T) {
	err := run(context.Background(), []string{"-file", filepath.Join(t.TempDir(), "none.json")}, &bytes.Buffer{})
	if err == nil {
		t.Error("run() should fail for a missing file")
	}
}

func TestRun_RequiresDatabase(t *testing.T) {
	t.Setenv("QUIZ_DATABASE_URL", "")
	path := writeFile(t, "acids.json", []byte(sampleJSON))

	err := run(context.Background(), []string{"-file", path, "-topic", "science_acids_salts_10_quiz"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "QUIZ_DATABASE_URL") {
		t.Errorf("run() error = %v, want database URL error", err)
	}
}

func TestTouchedSets(t *testing.T) {
	records := []question.Record{
		{TopicID: "physics_motion_11_quiz", Difficulty: "Simple"},
		{TopicID: "chemistry_atoms_11_quiz", Difficulty: "Medium"},
		{TopicID: "physics_motion_11_quiz", Difficulty: "Simple"},
		{TopicID: "chemistry_atoms_11_quiz", Difficulty: "Advanced"},
	}

	want := [][2]string{
		{"chemistry_atoms_11_quiz", "Advanced"},
		{"chemistry_atoms_11_quiz", "Medium"},
		{"physics_motion_11_quiz", "Simple"},
	}
	if got := touchedSets(records); !reflect.DeepEqual(got, want) {
		t.Errorf("touchedSets() = %v, want %v", got, want)
	}
}

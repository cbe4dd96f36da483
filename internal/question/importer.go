package question

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"github.com/xuri/excelize/v2"
)

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["question_type"],
    "properties": {
      "id": {"type": "string"},
      "topic_id": {"type": "string"},
      "difficulty": {"type": "string"},
      "question_type": {"type": "string", "minLength": 1},
      "question_text": {"type": "string"},
      "text": {"type": "string"},
      "scenario_reason_text": {"type": "string"},
      "scenario_reason": {"type": "string"},
      "option_a": {"type": "string"},
      "option_b": {"type": "string"},
      "option_c": {"type": "string"},
      "option_d": {"type": "string"},
      "options": {
        "type": "object",
        "additionalProperties": {"type": "string"}
      },
      "correct_answer": {"type": "string"},
      "correct_answer_key": {"type": "string"}
    },
    "allOf": [
      {"anyOf": [
        {"required": ["question_text"]},
        {"required": ["text"]}
      ]},
      {"anyOf": [
        {"required": ["correct_answer"]},
        {"required": ["correct_answer_key"]}
      ]}
    ]
  }
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
})

// ValidationError lists every problem found in an import.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid question import: %s", strings.Join(e.Problems, "; "))
}

// DecodeJSON validates a JSON array of records against the import schema
// and decodes it.
func DecodeJSON(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if err := validate(gojsonschema.NewBytesLoader(data)); err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	return records, nil
}

// Validate checks already-decoded records against the import schema.
func Validate(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return validate(gojsonschema.NewGoLoader(records))
}

func validate(doc gojsonschema.JSONLoader) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile import schema: %w", err)
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("validate import: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, e := range result.Errors() {
		verr.Problems = append(verr.Problems, e.String())
	}
	return verr
}

// xlsxColumns maps normalized header names to record fields.
var xlsxColumns = map[string]func(*Record, string){
	"id":                   func(r *Record, v string) { r.ID = v },
	"topic_id":             func(r *Record, v string) { r.TopicID = v },
	"table":                func(r *Record, v string) { r.TopicID = v },
	"difficulty":           func(r *Record, v string) { r.Difficulty = v },
	"question_type":        func(r *Record, v string) { r.QuestionType = v },
	"type":                 func(r *Record, v string) { r.QuestionType = v },
	"question_text":        func(r *Record, v string) { r.QuestionText = v },
	"text":                 func(r *Record, v string) { r.Text = v },
	"scenario_reason_text": func(r *Record, v string) { r.ScenarioReasonText = v },
	"scenario_reason":      func(r *Record, v string) { r.ScenarioReason = v },
	"option_a":             func(r *Record, v string) { r.OptionA = v },
	"option_b":             func(r *Record, v string) { r.OptionB = v },
	"option_c":             func(r *Record, v string) { r.OptionC = v },
	"option_d":             func(r *Record, v string) { r.OptionD = v },
	"correct_answer":       func(r *Record, v string) { r.CorrectAnswer = v },
	"correct_answer_key":   func(r *Record, v string) { r.CorrectAnswerKey = v },
}

// ReadXLSX reads records from a workbook. The first row is the header; an
// empty sheet name selects the first sheet. Unknown columns are ignored.
func ReadXLSX(r io.Reader, sheet string) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	setters := make([]func(*Record, string), len(rows[0]))
	for i, h := range rows[0] {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		setters[i] = xlsxColumns[name]
	}

	var records []Record
	for _, row := range rows[1:] {
		var rec Record
		blank := true
		for i, cell := range row {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
			}
			setters[i](&rec, cell)
		}
		if !blank {
			records = append(records, rec)
		}
	}

	if err := Validate(records); err != nil {
		return nil, err
	}
	return records, nil
}

// ApplyDefaults fills missing topic and difficulty fields.
func ApplyDefaults(records []Record, topicID, difficulty string) {
	for i := range records {
		if records[i].TopicID == "" {
			records[i].TopicID = topicID
		}
		if records[i].Difficulty == "" {
			records[i].Difficulty = difficulty
		}
	}
}

// Package question fetches raw question records from the question store and
// normalizes them into quiz questions.
package question

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ready4exam/worksheet/internal/quiz"
)

// ErrInvalidAnswerKey is returned when a record's correct answer cannot be
// mapped to one of A–D.
var ErrInvalidAnswerKey = errors.New("correct answer is not one of A-D")

// Record is a question as stored or imported. Several field spellings are
// accepted because source datasets were authored by different tools.
type Record struct {
	ID                 string            `json:"id"`
	TopicID            string            `json:"topic_id,omitempty"`
	Difficulty         string            `json:"difficulty,omitempty"`
	QuestionType       string            `json:"question_type"`
	QuestionText       string            `json:"question_text,omitempty"`
	Text               string            `json:"text,omitempty"`
	ScenarioReasonText string            `json:"scenario_reason_text,omitempty"`
	ScenarioReason     string            `json:"scenario_reason,omitempty"`
	OptionA            string            `json:"option_a,omitempty"`
	OptionB            string            `json:"option_b,omitempty"`
	OptionC            string            `json:"option_c,omitempty"`
	OptionD            string            `json:"option_d,omitempty"`
	Options            map[string]string `json:"options,omitempty"`
	CorrectAnswer      string            `json:"correct_answer,omitempty"`
	CorrectAnswerKey   string            `json:"correct_answer_key,omitempty"`
}

// Body returns the question text, preferring question_text over text.
func (r Record) Body() string {
	return firstNonEmpty(r.QuestionText, r.Text)
}

// Scenario returns the scenario/reason text under either spelling.
func (r Record) Scenario() string {
	return firstNonEmpty(r.ScenarioReasonText, r.ScenarioReason)
}

// Option returns the text of option key from the options map or the flat
// option_x columns.
func (r Record) Option(key string) string {
	for k, v := range r.Options {
		if strings.EqualFold(strings.TrimSpace(k), key) && v != "" {
			return v
		}
	}
	switch key {
	case "A":
		return r.OptionA
	case "B":
		return r.OptionB
	case "C":
		return r.OptionC
	case "D":
		return r.OptionD
	}
	return ""
}

// AnswerKey returns the normalized correct option, or "" if it is unusable.
func (r Record) AnswerKey() string {
	return quiz.NormalizeOptionKey(firstNonEmpty(r.CorrectAnswer, r.CorrectAnswerKey))
}

// ToQuestion normalizes the record. Assertion-reason records get their
// assertion and reason split into Text and ScenarioReason.
func (r Record) ToQuestion() (quiz.Question, error) {
	key := r.AnswerKey()
	if key == "" {
		return quiz.Question{}, fmt.Errorf("question %q: %w (got %q)", r.ID, ErrInvalidAnswerKey, firstNonEmpty(r.CorrectAnswer, r.CorrectAnswerKey))
	}

	q := quiz.Question{
		ID:             r.ID,
		Type:           strings.TrimSpace(r.QuestionType),
		Text:           strings.TrimSpace(r.Body()),
		ScenarioReason: strings.TrimSpace(r.Scenario()),
		CorrectAnswer:  key,
	}
	for i, k := range quiz.OptionKeys {
		q.Options[i] = strings.TrimSpace(r.Option(k))
	}

	if q.Category() == quiz.CategoryAssertionReason {
		ar := quiz.NormalizeAssertionReason(q.Text, q.ScenarioReason)
		q.Text = ar.Assertion
		q.ScenarioReason = ar.Reason
	}
	return q, nil
}

// Normalize converts records to questions, dropping and logging records
// whose answer key is unusable. Records without an id get a positional id
// (see recordIDs) so answers can still be keyed.
func Normalize(records []Record) []quiz.Question {
	ids := recordIDs(records)
	questions := make([]quiz.Question, 0, len(records))
	for i, r := range records {
		q, err := r.ToQuestion()
		if err != nil {
			slog.Warn("dropping question record", "id", r.ID, "topic", r.TopicID, "error", err)
			continue
		}
		if q.ID == "" {
			q.ID = ids[i]
		}
		questions = append(questions, q)
	}
	return questions
}

// recordIDs returns the id of each record. A record without one is numbered
// "q<n>" from its position, moving past numbers that another record in the
// set already uses, so no two records share an answer slot.
func recordIDs(records []Record) []string {
	taken := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ID != "" {
			taken[r.ID] = true
		}
	}

	ids := make([]string, len(records))
	for i, r := range records {
		if r.ID != "" {
			ids[i] = r.ID
			continue
		}
		id := fmt.Sprintf("q%d", i+1)
		for n := i + 2; taken[id]; n++ {
			id = fmt.Sprintf("q%d", n)
		}
		taken[id] = true
		ids[i] = id
	}
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

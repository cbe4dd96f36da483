// Package quiz holds the worksheet session model: question categories,
// assertion-reason normalization, the session state machine and scoring.
package quiz

import "strings"

// OptionKeys are the four answer keys every question carries, in display order.
var OptionKeys = []string{"A", "B", "C", "D"}

// Category is the scoring and rendering bucket of a question.
type Category string

const (
	CategoryMCQ             Category = "mcq"
	CategoryAssertionReason Category = "ar"
	CategoryCaseStudy       Category = "case"
)

// Classify maps a free-form question type to its category. Types mentioning
// "ar" or "assertion" are assertion-reason, types mentioning "case" are case
// studies, everything else is plain multiple choice.
func Classify(questionType string) Category {
	t := strings.ToLower(questionType)
	switch {
	case strings.Contains(t, "ar") || strings.Contains(t, "assertion"):
		return CategoryAssertionReason
	case strings.Contains(t, "case"):
		return CategoryCaseStudy
	default:
		return CategoryMCQ
	}
}

// Question is a normalized worksheet question.
type Question struct {
	ID             string    `json:"id"`
	Type           string    `json:"question_type"`
	Text           string    `json:"text"`
	ScenarioReason string    `json:"scenario_reason,omitempty"`
	Options        [4]string `json:"options"`
	CorrectAnswer  string    `json:"correct_answer"`
}

// Category returns the question's category.
func (q Question) Category() Category {
	return Classify(q.Type)
}

// Option returns the option text for key, or "" for an unknown key.
func (q Question) Option(key string) string {
	i := optionIndex(key)
	if i < 0 {
		return ""
	}
	return q.Options[i]
}

// IsCorrect reports whether option is the canonical answer. An empty option
// is never correct.
func (q Question) IsCorrect(option string) bool {
	return option != "" && option == q.CorrectAnswer
}

// ValidOption reports whether key is one of A–D.
func ValidOption(key string) bool {
	return optionIndex(key) >= 0
}

// NormalizeOptionKey turns loosely written keys ("b", "(C)", "Option d")
// into A–D. It returns "" when nothing usable remains.
func NormalizeOptionKey(raw string) string {
	k := strings.ToUpper(strings.TrimSpace(raw))
	k = strings.TrimPrefix(k, "OPTION")
	k = strings.Trim(k, " ()._:")
	if ValidOption(k) {
		return k
	}
	return ""
}

func optionIndex(key string) int {
	for i, k := range OptionKeys {
		if k == key {
			return i
		}
	}
	return -1
}

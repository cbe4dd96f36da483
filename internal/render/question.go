// Package render maps worksheet state to HTML. The mapping functions are
// pure; View holds the parsed templates and is built once at startup.
package render

import (
	"fmt"

	"github.com/ready4exam/worksheet/internal/quiz"
)

// ARLabels are the fixed answer choices of every assertion-reason question.
var ARLabels = [4]string{
	"Both A and R are true and R is the correct explanation of A.",
	"Both A and R are true but R is not the correct explanation of A.",
	"A is true but R is false.",
	"A is false but R is true.",
}

// OptionView is one answer choice as displayed.
type OptionView struct {
	Key      string
	Text     string
	Selected bool
	Correct  bool
	Wrong    bool
	Disabled bool
}

// State returns the marking class of the option.
func (o OptionView) State() string {
	switch {
	case o.Correct:
		return "correct"
	case o.Wrong:
		return "wrong"
	case o.Selected:
		return "selected"
	default:
		return "idle"
	}
}

// QuestionView is a question ready for display.
type QuestionView struct {
	ID       string
	Number   int
	Category quiz.Category
	Text     string // MCQ and case-study body, or the assertion
	Reason   string // assertion-reason only
	Hint     string // case-study only
	Options  []OptionView
}

// IsAssertionReason reports whether the view uses the assertion-reason layout.
func (v QuestionView) IsAssertionReason() bool {
	return v.Category == quiz.CategoryAssertionReason
}

// IsCaseStudy reports whether the view carries a hint panel.
func (v QuestionView) IsCaseStudy() bool {
	return v.Category == quiz.CategoryCaseStudy
}

// BuildQuestionView maps a question at 1-based position with the user's
// selection to its display form. Before submission only the selection is
// marked; after it the canonical answer is marked correct, a differing
// selection wrong, and every input is disabled.
func BuildQuestionView(q quiz.Question, position int, selected string, submitted bool) QuestionView {
	v := QuestionView{
		ID:       q.ID,
		Number:   position,
		Category: q.Category(),
		Text:     q.Text,
	}

	labels := q.Options
	switch v.Category {
	case quiz.CategoryAssertionReason:
		ar := quiz.NormalizeAssertionReason(q.Text, q.ScenarioReason)
		v.Text = ar.Assertion
		v.Reason = ar.Reason
		labels = ARLabels
	case quiz.CategoryCaseStudy:
		v.Hint = q.ScenarioReason
	}

	v.Options = make([]OptionView, len(quiz.OptionKeys))
	for i, key := range quiz.OptionKeys {
		isSel := selected == key
		isCorrect := submitted && q.CorrectAnswer == key
		v.Options[i] = OptionView{
			Key:      key,
			Text:     labels[i],
			Selected: isSel,
			Correct:  isCorrect,
			Wrong:    submitted && isSel && !isCorrect,
			Disabled: submitted,
		}
	}
	return v
}

// Navigation is the visibility of the footer controls.
type Navigation struct {
	ShowPrev   bool
	ShowNext   bool
	ShowSubmit bool
	Counter    string
}

// BuildNavigation computes footer controls for 0-based index i of total.
func BuildNavigation(i, total int, submitted bool) Navigation {
	if total == 0 {
		return Navigation{}
	}
	last := i == total-1
	return Navigation{
		ShowPrev:   i > 0,
		ShowNext:   !last,
		ShowSubmit: last && !submitted,
		Counter:    fmt.Sprintf("%d/%d", i+1, total),
	}
}
